package media

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Handler struct {
	log zerolog.Logger
}

func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{log: log.With().Str("component", "media").Logger()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/media/preview", h.Preview)
}

// Preview renders an uploaded radiograph as PNG. The png field is base64 in
// the JSON response.
func (h *Handler) Preview(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file upload required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}

	preview, err := Load(fh.Filename, data)
	if err != nil {
		h.log.Warn().Err(err).Str("file", fh.Filename).Msg("preview render failed")
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, preview)
}

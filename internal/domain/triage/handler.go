package triage

import (
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/insightray/insightray/internal/platform/fhir"
)

type Handler struct {
	svc   *Service
	store *Store
}

func NewHandler(svc *Service, store *Store) *Handler {
	return &Handler{svc: svc, store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/triage/batch", h.RunBatch)
	api.POST("/triage/single", h.RunSingle)
	api.GET("/triage", h.ListRows)
	api.DELETE("/triage", h.ClearRows)
	api.GET("/triage/findings", h.ListFindings)
	api.GET("/triage/:studyID", h.GetRow)
	api.GET("/triage/:studyID/export", h.ExportRow)
	api.GET("/triage/:studyID/fhir", h.ExportFHIR)
}

// selectedFindings resolves the findings form values, defaulting to the
// standard screening set when none were sent.
func selectedFindings(c echo.Context) ([]Finding, error) {
	names := []string{}
	if form, err := c.FormParams(); err == nil {
		names = form["findings"]
	}
	if len(names) == 0 {
		names = DefaultFindingNames()
	}
	return FindingsByName(names)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *Handler) RunBatch(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files uploaded")
	}
	findings, err := selectedFindings(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	files := make([]BatchFile, 0, len(uploads))
	for _, fh := range uploads {
		data, err := readUpload(fh)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload: "+fh.Filename)
		}
		files = append(files, BatchFile{Name: fh.Filename, Data: data})
	}

	rows, failed := h.svc.RunBatch(c.Request().Context(), files, findings)
	h.store.Append(rows...)

	return c.JSON(http.StatusOK, map[string]any{
		"rows":   rows,
		"failed": failed,
	})
}

func (h *Handler) RunSingle(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file upload required")
	}
	data, err := readUpload(fh)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	findings, err := selectedFindings(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if c.QueryParam("debug") == "true" {
		return h.runSingleDebug(c, fh.Filename, data, findings)
	}

	row, err := h.svc.RunCase(c.Request().Context(), fh.Filename, data, findings)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	h.store.Append(row)
	return c.JSON(http.StatusOK, row)
}

// runSingleDebug mirrors RunCase but keeps every raw model payload so a
// technician can see exactly what the service returned.
func (h *Handler) runSingleDebug(c echo.Context, filename string, data []byte, findings []Finding) error {
	ctx := c.Request().Context()

	studyID, err := h.svc.CreateStudy(ctx, "triage")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if err := h.svc.client.AddImage(ctx, studyID, filename, data); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	scores, rawScores := h.svc.RunClassifiersDebug(ctx, studyID, findings)
	narrative, rawNarrative := h.svc.RunNarrativeDebug(ctx, studyID)

	row := Row{
		StudyID:    studyID,
		File:       filename,
		Urgency:    Urgency(scores),
		Scores:     scores,
		Narrative:  narrative,
		TopSummary: TopSummary(scores, 3),
		Models:     ModelTable(findings),
		CreatedAt:  h.svc.now().UTC(),
	}
	h.store.Append(row)

	return c.JSON(http.StatusOK, map[string]any{
		"row": row,
		"debug": map[string]any{
			"classifiers": rawScores,
			"narrative":   rawNarrative,
		},
	})
}

// ListRows returns the worklist ordered most urgent first.
func (h *Handler) ListRows(c echo.Context) error {
	rows := h.store.List()
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Urgency > rows[j].Urgency
	})
	return c.JSON(http.StatusOK, map[string]any{
		"rows":  rows,
		"total": len(rows),
	})
}

func (h *Handler) ClearRows(c echo.Context) error {
	h.store.Clear()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListFindings(c echo.Context) error {
	type entry struct {
		Name     string `json:"name"`
		Model    string `json:"model,omitempty"`
		Critical bool   `json:"critical"`
	}
	catalog := Catalog()
	out := make([]entry, 0, len(catalog))
	for _, f := range catalog {
		id, _ := f.Model.Direct()
		out = append(out, entry{Name: f.Name, Model: id, Critical: IsCritical(f.Name)})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"findings": out,
		"default":  DefaultFindingNames(),
	})
}

func (h *Handler) GetRow(c echo.Context) error {
	row, ok := h.store.Get(c.Param("studyID"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "study not found")
	}
	return c.JSON(http.StatusOK, row)
}

// ExportRow returns the flat per-case summary used by downstream scripts.
func (h *Handler) ExportRow(c echo.Context) error {
	row, ok := h.store.Get(c.Param("studyID"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "study not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"study_id":     row.StudyID,
		"file":         row.File,
		"scores":       row.Scores,
		"urgency":      row.Urgency,
		"vlm_findings": row.Narrative,
		"models":       row.Models,
	})
}

func (h *Handler) ExportFHIR(c echo.Context) error {
	row, ok := h.store.Get(c.Param("studyID"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "study not found")
	}
	report := fhir.NewDiagnosticReport(row.StudyID, row.Scores, row.Narrative, row.CreatedAt)
	return c.JSON(http.StatusOK, report)
}

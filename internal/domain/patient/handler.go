package patient

import (
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/insightray/insightray/internal/domain/triage"
)

const (
	defaultFlagThreshold  = 0.50
	defaultMaybeThreshold = 0.35
)

type Handler struct {
	svc *triage.Service
}

func NewHandler(svc *triage.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patient/analyze", h.Analyze)
}

// Check is one plain-language screening result.
type Check struct {
	Finding string  `json:"finding"`
	Label   string  `json:"label"`
	Score   float64 `json:"score"`
	Verdict string  `json:"verdict"`
	Tone    Tone    `json:"tone"`
}

// Report is the full patient-view response for one image.
type Report struct {
	StudyID      string         `json:"study_id"`
	Narrative    string         `json:"narrative"`
	Keywords     []string       `json:"keywords"`
	LikelyNormal bool           `json:"likely_normal"`
	Checks       []Check        `json:"checks"`
	Debug        map[string]any `json:"debug"`
}

func thresholdParam(c echo.Context, name string, fallback float64) (float64, error) {
	raw := c.FormValue(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

// Analyze screens one uploaded image against the focused patient subset and
// renders the result in plain language. The verdict wording comes from fixed
// bands; only the color reacts to the caller's thresholds.
func (h *Handler) Analyze(c echo.Context) error {
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

	flagThr, err := thresholdParam(c, "flag_threshold", defaultFlagThreshold)
	if err != nil {
		return err
	}
	maybeThr, err := thresholdParam(c, "maybe_threshold", defaultMaybeThreshold)
	if err != nil {
		return err
	}
	if maybeThr > flagThr {
		return echo.NewHTTPError(http.StatusBadRequest, "maybe_threshold must not exceed flag_threshold")
	}

	findings, err := triage.FindingsByName(triage.PatientFindingNames())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	studyID, err := h.svc.CreateStudy(ctx, "patient")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if err := h.svc.UploadImage(ctx, studyID, fh.Filename, data); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	scores, rawScores := h.svc.RunClassifiersDebug(ctx, studyID, findings)
	narrative, rawNarrative := h.svc.RunNarrativeDebug(ctx, studyID)

	checks := make([]Check, 0, len(scores))
	for name, score := range scores {
		verdict, _ := Verdict(score)
		checks = append(checks, Check{
			Finding: name,
			Label:   Label(name),
			Score:   score,
			Verdict: verdict,
			Tone:    ToneAt(score, flagThr, maybeThr),
		})
	}
	sort.Slice(checks, func(i, j int) bool {
		if checks[i].Score != checks[j].Score {
			return checks[i].Score > checks[j].Score
		}
		return checks[i].Finding < checks[j].Finding
	})

	return c.JSON(http.StatusOK, Report{
		StudyID:      studyID,
		Narrative:    narrative,
		Keywords:     ExtractKeywords(narrative),
		LikelyNormal: IsLikelyNormal(scores, maybeThr),
		Checks:       checks,
		Debug: map[string]any{
			"classifiers": rawScores,
			"narrative":   rawNarrative,
		},
	})
}

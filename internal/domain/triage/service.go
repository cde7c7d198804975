package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightray/insightray/internal/platform/hoppr"
)

const (
	// Classifier models score the uploaded image regardless of prompt text.
	classifierPrompt = "ignored for classification"

	narrativeModelID = "cxr-vlm-experimental"
	narrativePrompt  = "Provide a concise radiology-style description of key findings."
)

// StudyClient is the remote inference surface the service needs. Satisfied by
// *hoppr.Client.
type StudyClient interface {
	CreateStudy(ctx context.Context, name string) (string, error)
	AddImage(ctx context.Context, studyID, filename string, data []byte) error
	InvokeModel(ctx context.Context, studyID, modelID, prompt string) (*hoppr.Reply, error)
}

// Service orchestrates one case end to end: create a remote study, attach the
// image, fan the selected classifiers over it, and collect the narrative.
type Service struct {
	client StudyClient
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(client StudyClient, log zerolog.Logger) *Service {
	return &Service{
		client: client,
		log:    log.With().Str("component", "triage").Logger(),
		now:    time.Now,
	}
}

// CreateStudy opens a remote study named after the prefix and the current UTC
// time, unique down to the microsecond.
func (s *Service) CreateStudy(ctx context.Context, prefix string) (string, error) {
	name := fmt.Sprintf("%s-%s", prefix, s.now().UTC().Format("20060102-150405-000000"))
	return s.client.CreateStudy(ctx, name)
}

// UploadImage attaches raw image bytes to an existing remote study.
func (s *Service) UploadImage(ctx context.Context, studyID, filename string, data []byte) error {
	return s.client.AddImage(ctx, studyID, filename, data)
}

// RunClassifiers invokes each finding's classifier and collects the scores it
// could extract. Narrative-only findings are skipped. A classifier that fails
// or replies without a usable score simply contributes no entry; one flaky
// model must not sink the rest of the case.
func (s *Service) RunClassifiers(ctx context.Context, studyID string, findings []Finding) ScoreMap {
	scores, _ := s.runClassifiers(ctx, studyID, findings)
	return scores
}

// RunClassifiersDebug additionally returns the raw payload per finding, with
// failures and unparsable replies replaced by small descriptor objects.
func (s *Service) RunClassifiersDebug(ctx context.Context, studyID string, findings []Finding) (ScoreMap, map[string]any) {
	return s.runClassifiers(ctx, studyID, findings)
}

func (s *Service) runClassifiers(ctx context.Context, studyID string, findings []Finding) (ScoreMap, map[string]any) {
	scores := make(ScoreMap)
	raw := make(map[string]any)
	for _, f := range findings {
		modelID, ok := f.Model.Direct()
		if !ok {
			continue
		}
		reply, err := s.client.InvokeModel(ctx, studyID, modelID, classifierPrompt)
		if err != nil {
			s.log.Warn().Err(err).
				Str("study_id", studyID).
				Str("finding", f.Name).
				Str("model", modelID).
				Msg("classifier call failed")
			raw[f.Name] = map[string]any{"error": err.Error()}
			continue
		}
		payload, ok := hoppr.Normalize(reply)
		if !ok {
			s.log.Warn().
				Str("study_id", studyID).
				Str("finding", f.Name).
				Msg("classifier reply unparsable")
			raw[f.Name] = emptyPayloadNote()
			continue
		}
		raw[f.Name] = debugPayload(payload)
		if v, ok := hoppr.Score(payload); ok {
			scores[f.Name] = v
		} else {
			s.log.Warn().
				Str("study_id", studyID).
				Str("finding", f.Name).
				Msg("classifier reply carried no score")
		}
	}
	return scores, raw
}

// RunNarrative asks the vision-language model to describe the study. The
// narrative is best effort: any failure yields an empty string.
func (s *Service) RunNarrative(ctx context.Context, studyID string) string {
	text, _ := s.runNarrative(ctx, studyID)
	return text
}

// RunNarrativeDebug also returns the raw payload descriptor.
func (s *Service) RunNarrativeDebug(ctx context.Context, studyID string) (string, any) {
	return s.runNarrative(ctx, studyID)
}

func (s *Service) runNarrative(ctx context.Context, studyID string) (string, any) {
	reply, err := s.client.InvokeModel(ctx, studyID, narrativeModelID, narrativePrompt)
	if err != nil {
		s.log.Warn().Err(err).Str("study_id", studyID).Msg("narrative call failed")
		return "", map[string]any{"error": err.Error()}
	}
	payload, ok := hoppr.Normalize(reply)
	if !ok {
		return "", emptyPayloadNote()
	}
	text, _ := hoppr.FindingsText(payload)
	return text, debugPayload(payload)
}

// debugPayload renders a normalized reply for the debug views. A reply that
// parsed but carried nothing is reported the same way as an unparsable one.
func debugPayload(p hoppr.Payload) any {
	if len(p) == 0 {
		return emptyPayloadNote()
	}
	return p
}

func emptyPayloadNote() map[string]any {
	return map[string]any{"note": "empty or unparsable payload"}
}

// RunCase triages one file: remote study, image upload, classifiers,
// narrative, urgency. Only the create and upload steps are fatal; model-level
// failures degrade to missing scores or an empty narrative.
func (s *Service) RunCase(ctx context.Context, filename string, data []byte, findings []Finding) (Row, error) {
	studyID, err := s.CreateStudy(ctx, "triage")
	if err != nil {
		return Row{}, fmt.Errorf("create study for %s: %w", filename, err)
	}
	if err := s.client.AddImage(ctx, studyID, filename, data); err != nil {
		return Row{}, fmt.Errorf("upload %s: %w", filename, err)
	}

	scores := s.RunClassifiers(ctx, studyID, findings)
	narrative := s.RunNarrative(ctx, studyID)

	return Row{
		StudyID:    studyID,
		File:       filename,
		Urgency:    Urgency(scores),
		Scores:     scores,
		Narrative:  narrative,
		TopSummary: TopSummary(scores, 3),
		Models:     ModelTable(findings),
		CreatedAt:  s.now().UTC(),
	}, nil
}

// BatchFile is one upload in a batch run.
type BatchFile struct {
	Name string
	Data []byte
}

// BatchError records a file that could not be triaged at all.
type BatchError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// RunBatch triages files sequentially. Failed files are reported alongside the
// rows that succeeded instead of aborting the batch.
func (s *Service) RunBatch(ctx context.Context, files []BatchFile, findings []Finding) ([]Row, []BatchError) {
	var rows []Row
	var failed []BatchError
	for _, f := range files {
		row, err := s.RunCase(ctx, f.Name, f.Data, findings)
		if err != nil {
			s.log.Error().Err(err).Str("file", f.Name).Msg("case failed")
			failed = append(failed, BatchError{File: f.Name, Error: err.Error()})
			continue
		}
		rows = append(rows, row)
	}
	return rows, failed
}

package triage

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Model identifies how a finding is screened: either through a dedicated
// remote classifier, or only through the narrative model. The zero value is
// narrative-only, so a finding can never silently carry a half-configured
// classifier reference.
type Model struct {
	id string
}

// DirectModel references a remote classifier by id.
func DirectModel(id string) Model { return Model{id: id} }

// NarrativeOnly marks a finding with no dedicated classifier; it can still be
// described by the narrative model.
var NarrativeOnly = Model{}

// Direct returns the classifier model id and whether one exists.
func (m Model) Direct() (string, bool) { return m.id, m.id != "" }

// IsNarrativeOnly reports whether the finding has no dedicated classifier.
func (m Model) IsNarrativeOnly() bool { return m.id == "" }

func (m Model) String() string {
	if m.id == "" {
		return "narrative-only"
	}
	return m.id
}

// Finding is a named clinical condition and the model used to screen it.
type Finding struct {
	Name  string
	Model Model
}

// ScoreMap maps finding name to classifier probability in [0,1]. A missing
// key means the score was unavailable, not that it was zero.
type ScoreMap map[string]float64

// Row is one triaged case: a single uploaded file run through the selected
// classifiers and the narrative model.
type Row struct {
	StudyID    string            `json:"study_id"`
	File       string            `json:"file"`
	Urgency    float64           `json:"urgency"`
	Scores     ScoreMap          `json:"scores"`
	Narrative  string            `json:"narrative"`
	TopSummary string            `json:"top_summary"`
	Models     map[string]string `json:"models"`
	CreatedAt  time.Time         `json:"created_at"`
}

// criticalFindings carry immediate clinical risk and are weighted higher in
// the urgency aggregate.
var criticalFindings = map[string]bool{
	"Pneumothorax":     true,
	"Pleural Effusion": true,
}

// IsCritical reports whether a finding is designated critical.
func IsCritical(name string) bool { return criticalFindings[name] }

// catalog is the full finding table: direct classifiers, aliases pointing at
// the closest available model, and narrative-only findings.
var catalog = []Finding{
	{Name: "Atelectasis", Model: DirectModel("mc_chestradiography_atelectasis:v1.20250828")},
	{Name: "Cardiomegaly", Model: DirectModel("mc_chestradiography_cardiomegaly:v1.20250828")},
	{Name: "Pleural Effusion", Model: DirectModel("mc_chestradiography_pleural_effusion:v1.20250828")},
	{Name: "Pneumothorax", Model: DirectModel("mc_chestradiography_pneumothorax:v1.20250828")},

	// Aliases mapped to the closest available classifier.
	{Name: "Consolidation", Model: DirectModel("mc_chestradiography_air_space_opacity:v1.20250828")},
	{Name: "Lung Opacity", Model: DirectModel("mc_chestradiography_air_space_opacity:v1.20250828")},
	{Name: "Infiltration", Model: DirectModel("mc_chestradiography_air_space_opacity:v1.20250828")},
	{Name: "ILD", Model: DirectModel("mc_chestradiography_interstitial_thickening:v1.20250828")},
	{Name: "Pulmonary Fibrosis", Model: DirectModel("mc_chestradiography_interstitial_thickening:v1.20250828")},

	// Narrative-only: no shared classifier ids.
	{Name: "Aortic Enlargement", Model: NarrativeOnly},
	{Name: "Calcification", Model: NarrativeOnly},
	{Name: "Pleural Thickening", Model: NarrativeOnly},
	{Name: "Normal", Model: NarrativeOnly},
}

// Catalog returns the full finding table.
func Catalog() []Finding {
	out := make([]Finding, len(catalog))
	copy(out, catalog)
	return out
}

// DefaultFindingNames are the findings screened when the caller selects none.
func DefaultFindingNames() []string {
	return []string{"Pneumothorax", "Pleural Effusion", "Cardiomegaly"}
}

// PatientFindingNames is the focused subset used by the patient view.
func PatientFindingNames() []string {
	return []string{"Pneumothorax", "Pleural Effusion", "Cardiomegaly", "Consolidation", "ILD"}
}

// FindingsByName resolves names against the catalog, errors on unknown ones.
func FindingsByName(names []string) ([]Finding, error) {
	byName := make(map[string]Finding, len(catalog))
	for _, f := range catalog {
		byName[f.Name] = f
	}
	out := make([]Finding, 0, len(names))
	for _, n := range names {
		f, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown finding: %s", n)
		}
		out = append(out, f)
	}
	return out, nil
}

// ModelTable renders selected findings as a name→model-id map for export;
// narrative-only findings map to the empty string.
func ModelTable(findings []Finding) map[string]string {
	out := make(map[string]string, len(findings))
	for _, f := range findings {
		id, _ := f.Model.Direct()
		out[f.Name] = id
	}
	return out
}

// TopSummary lists the n highest-scoring findings as "Name 0.87; ...", or an
// em dash when nothing scored.
func TopSummary(scores ScoreMap, n int) string {
	if len(scores) == 0 {
		return "—"
	}
	type kv struct {
		name  string
		score float64
	}
	ranked := make([]kv, 0, len(scores))
	for k, v := range scores {
		ranked = append(ranked, kv{k, v})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	parts := make([]string, 0, n)
	for _, e := range ranked[:n] {
		parts = append(parts, fmt.Sprintf("%s %.2f", e.name, e.score))
	}
	return strings.Join(parts, "; ")
}

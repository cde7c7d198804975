// Package fhir renders triage results as FHIR R4 resources for handoff to
// downstream clinical systems.
package fhir

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Observation is one AI finding probability, contained in the report.
type Observation struct {
	ResourceType  string          `json:"resourceType"`
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Code          CodeableConcept `json:"code"`
	ValueQuantity Quantity        `json:"valueQuantity"`
	Issued        string          `json:"issued"`
}

type Attachment struct {
	ContentType string `json:"contentType"`
	Data        string `json:"data,omitempty"`
}

// DiagnosticReport is the exported FHIR resource for one triaged study. The
// finding observations ride along in `contained` so the report is a single
// self-sufficient document.
type DiagnosticReport struct {
	ResourceType      string            `json:"resourceType"`
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	Category          []CodeableConcept `json:"category"`
	Code              CodeableConcept   `json:"code"`
	EffectiveDateTime string            `json:"effectiveDateTime"`
	Issued            string            `json:"issued"`
	Contained         []Observation     `json:"contained"`
	Conclusion        string            `json:"conclusion,omitempty"`
	PresentedForm     []Attachment      `json:"presentedForm,omitempty"`
}

// NewDiagnosticReport builds a preliminary AI-generated DiagnosticReport with
// one contained Observation per scored finding. Scores are rounded to three
// decimals; timestamps are rendered in UTC at second precision.
func NewDiagnosticReport(studyID string, scores map[string]float64, narrative string, issued time.Time) DiagnosticReport {
	ts := issued.UTC().Format(time.RFC3339)

	names := make([]string, 0, len(scores))
	for n := range scores {
		names = append(names, n)
	}
	sort.Strings(names)

	contained := make([]Observation, 0, len(names))
	for i, name := range names {
		contained = append(contained, Observation{
			ResourceType: "Observation",
			ID:           observationID(studyID, i),
			Status:       "final",
			Code:         CodeableConcept{Text: name + " (AI probability)"},
			ValueQuantity: Quantity{
				Value: math.Round(scores[name]*1000) / 1000,
				Unit:  "probability (0-1)",
			},
			Issued: ts,
		})
	}

	form, _ := json.Marshal(map[string]string{"study_id": studyID})

	return DiagnosticReport{
		ResourceType: "DiagnosticReport",
		ID:           studyID,
		Status:       "preliminary",
		Category: []CodeableConcept{{
			Coding: []Coding{{
				System:  "http://terminology.hl7.org/CodeSystem/v2-0074",
				Code:    "RAD",
				Display: "Radiology",
			}},
		}},
		Code:              CodeableConcept{Text: "Chest radiograph AI assessment"},
		EffectiveDateTime: ts,
		Issued:            ts,
		Contained:         contained,
		Conclusion:        narrative,
		PresentedForm: []Attachment{{
			ContentType: "application/json",
			Data:        string(form),
		}},
	}
}

func observationID(studyID string, i int) string {
	return fmt.Sprintf("%s-obs-%d", studyID, i+1)
}

// Package patient renders triage output in plain language for the
// patient-facing view. Nothing here is diagnostic; the wording is
// deliberately cautious.
package patient

// labels maps clinical finding names to plain-language descriptions.
var labels = map[string]string{
	"Pneumothorax":        "Collapsed lung",
	"Pleural Effusion":    "Fluid around the lungs",
	"Cardiomegaly":        "Enlarged heart",
	"Lung Nodule or Mass": "Lung spot (nodule/mass)",
	"Consolidation":       "Area of lung filled (consolidation)",
	"Lung Opacity":        "Hazy area in lung (opacity)",
	"Infiltration":        "Hazy area in lung (infiltration)",
	"ILD":                 "Scarring pattern (interstitial)",
	"Pulmonary Fibrosis":  "Lung scarring (fibrosis)",
	"Aortic Enlargement":  "Enlarged aorta",
	"Calcification":       "Calcium deposits",
	"Pleural Thickening":  "Thickened lining of lung",
	"Normal":              "No clear abnormality",
}

// Label translates a finding name for patients; unknown names pass through.
func Label(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return name
}

// Tone is the traffic-light color attached to a check.
type Tone string

const (
	ToneRed   Tone = "red"
	ToneAmber Tone = "amber"
	ToneGreen Tone = "green"
)

// Verdict maps a probability to fixed wording. The bands are intentionally
// stable so the phrasing never shifts with the caller's display thresholds.
func Verdict(score float64) (string, Tone) {
	switch {
	case score >= 0.7:
		return "Needs prompt attention", ToneRed
	case score >= 0.4:
		return "Possibility present", ToneAmber
	default:
		return "No strong signs", ToneGreen
	}
}

// ToneAt recomputes only the color using caller-chosen cutoffs, leaving the
// verdict wording to the fixed bands.
func ToneAt(score, flagThreshold, maybeThreshold float64) Tone {
	switch {
	case score >= flagThreshold:
		return ToneRed
	case score >= maybeThreshold:
		return ToneAmber
	default:
		return ToneGreen
	}
}

// DefaultNormalThreshold bounds what still counts as "likely normal".
const DefaultNormalThreshold = 0.30

// IsLikelyNormal reports whether every available score sits below the
// threshold. An empty score map is not normal, it is unknown.
func IsLikelyNormal(scores map[string]float64, threshold float64) bool {
	if len(scores) == 0 {
		return false
	}
	for _, v := range scores {
		if v >= threshold {
			return false
		}
	}
	return true
}

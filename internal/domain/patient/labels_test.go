package patient

import "testing"

func TestLabel(t *testing.T) {
	if got := Label("Pneumothorax"); got != "Collapsed lung" {
		t.Errorf("got %q", got)
	}
	if got := Label("Mystery Finding"); got != "Mystery Finding" {
		t.Errorf("unknown names should pass through, got %q", got)
	}
}

func TestVerdict_Bands(t *testing.T) {
	cases := []struct {
		score   float64
		verdict string
		tone    Tone
	}{
		{0.95, "Needs prompt attention", ToneRed},
		{0.70, "Needs prompt attention", ToneRed},
		{0.69, "Possibility present", ToneAmber},
		{0.40, "Possibility present", ToneAmber},
		{0.39, "No strong signs", ToneGreen},
		{0.0, "No strong signs", ToneGreen},
	}
	for _, tc := range cases {
		verdict, tone := Verdict(tc.score)
		if verdict != tc.verdict || tone != tc.tone {
			t.Errorf("Verdict(%v) = %q/%s, want %q/%s", tc.score, verdict, tone, tc.verdict, tc.tone)
		}
	}
}

func TestToneAt_CustomCutoffs(t *testing.T) {
	if got := ToneAt(0.55, 0.5, 0.35); got != ToneRed {
		t.Errorf("expected red above flag cutoff, got %s", got)
	}
	if got := ToneAt(0.4, 0.5, 0.35); got != ToneAmber {
		t.Errorf("expected amber between cutoffs, got %s", got)
	}
	if got := ToneAt(0.1, 0.5, 0.35); got != ToneGreen {
		t.Errorf("expected green below maybe cutoff, got %s", got)
	}
}

func TestIsLikelyNormal(t *testing.T) {
	if IsLikelyNormal(nil, DefaultNormalThreshold) {
		t.Error("no scores means unknown, not normal")
	}
	if !IsLikelyNormal(map[string]float64{"a": 0.1, "b": 0.29}, 0.30) {
		t.Error("all scores below threshold should be likely normal")
	}
	if IsLikelyNormal(map[string]float64{"a": 0.1, "b": 0.30}, 0.30) {
		t.Error("a score at the threshold is not below it")
	}
}

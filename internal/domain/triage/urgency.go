package triage

// criticalWeight boosts findings that demand immediate attention so they
// dominate the worklist ordering even at moderate probabilities.
const criticalWeight = 1.25

// Urgency reduces a score map to a single ranking value: the maximum of each
// score times its finding weight. Critical findings weigh criticalWeight,
// everything else 1.0. An empty map yields 0.0. The value is a ranking key,
// not a probability, so it is deliberately not clamped to 1.0.
func Urgency(scores ScoreMap) float64 {
	var max float64
	for name, score := range scores {
		w := 1.0
		if IsCritical(name) {
			w = criticalWeight
		}
		if v := score * w; v > max {
			max = v
		}
	}
	return max
}

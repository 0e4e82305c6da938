package query

import "math"

// scoreConfidence computes a heuristic confidence for a response from the
// shape of the retrieval results alone: a base of 0.3, a bonus for each
// source that produced results, and a quality bonus that grows as the
// average vector distance shrinks. Capped at 1.0.
func scoreConfidence(hitDistances []float64, factCount int) float64 {
	confidence := 0.3

	if len(hitDistances) > 0 {
		confidence += 0.4
	}
	if factCount > 0 {
		confidence += 0.3
	}

	if len(hitDistances) > 0 {
		var total float64
		for _, d := range hitDistances {
			total += d
		}
		avg := total / float64(len(hitDistances))
		if bonus := (1.0 - avg) * 0.2; bonus > 0 {
			confidence += bonus
		}
	}

	return math.Min(1.0, confidence)
}

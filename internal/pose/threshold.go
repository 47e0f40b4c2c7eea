package pose

const (
	defaultThreshold = 0.3
	// strongConfidence is the sequence-wide peak below which a joint's
	// threshold is relaxed to half its peak.
	strongConfidence = 0.6
)

// Thresholds computes the per-joint confidence cutoff over a whole sequence.
func Thresholds(conf []Confidences) [JointCount]float64 {
	var th [JointCount]float64
	for j := range th {
		th[j] = threshold(peakConfidence(conf, Joint(j)))
	}
	return th
}

func threshold(peak float64) float64 {
	if peak < strongConfidence {
		return peak / 2
	}
	return defaultThreshold
}

func peakConfidence(conf []Confidences, j Joint) float64 {
	var peak float64
	for i := range conf {
		peak = max(peak, conf[i][j])
	}
	return peak
}

// qualifies reports whether a sample may take part in smoothing. A joint that
// was never detected has threshold 0, so every one of its samples qualifies.
func qualifies(confidence, threshold float64) bool {
	return confidence >= threshold
}

package vision

// Classifier decides whether a match confidence is strong enough to count
// as confirmed. Anything below the threshold is a tentative candidate that
// needs human verification. The label itself stays untouched; presentation
// layers decide how to decorate tentative tags.
type Classifier struct {
	ConfirmThreshold float64
}

func (c Classifier) IsTentative(confidence float64) bool {
	return confidence < c.ConfirmThreshold
}

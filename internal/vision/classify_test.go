package vision

import "testing"

func TestClassifierIsTentative(t *testing.T) {
	c := Classifier{ConfirmThreshold: 70}

	tests := []struct {
		confidence float64
		want       bool
	}{
		{0, true},
		{10, true},
		{69.9, true},
		{70, false}, // threshold is inclusive for confirmed
		{70.1, false},
		{100, false},
	}

	for _, tt := range tests {
		if got := c.IsTentative(tt.confidence); got != tt.want {
			t.Errorf("IsTentative(%v) = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}

package analysis

// Band is the color band of a score. The same thresholds apply to
// scorecards, confidence badges and heatmap cells.
type Band string

const (
	BandGreen Band = "green"
	BandAmber Band = "amber"
	BandRed   Band = "red"
)

const (
	GreenThreshold = 80
	AmberThreshold = 60
)

// ClampScore keeps a score inside [0,100].
func ClampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// BandFor returns the band of a (clamped) score.
func BandFor(score int) Band {
	score = ClampScore(score)
	switch {
	case score >= GreenThreshold:
		return BandGreen
	case score >= AmberThreshold:
		return BandAmber
	default:
		return BandRed
	}
}

// Color is the background color used by the dashboard.
func (b Band) Color() string {
	switch b {
	case BandGreen:
		return "#4CAF50"
	case BandAmber:
		return "#FFC107"
	default:
		return "#F44336"
	}
}

// TextColor keeps amber badges readable.
func (b Band) TextColor() string {
	if b == BandAmber {
		return "#333"
	}
	return "white"
}

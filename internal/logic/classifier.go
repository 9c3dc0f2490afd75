package logic

// Classify maps one signal-strength value to a coarse zone using the
// profile's thresholds. At or above the inside threshold classifies
// Inside, at or below the outside threshold classifies Outside, and the
// band between classifies Transitioning. Classify is stateless:
// identical inputs always produce identical outputs.
func Classify(strength int, p Profile) Zone {
	switch {
	case strength >= p.InsideThreshold:
		return ZoneInside
	case strength <= p.OutsideThreshold:
		return ZoneOutside
	default:
		return ZoneTransitioning
	}
}

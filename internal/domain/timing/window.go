package timing

// WithinActiveWindow reports whether hour lies inside the daily active
// range. Both bounds are inclusive. start > end means the range wraps
// past midnight (e.g. 22–6 covers 22..23 and 0..6).
func WithinActiveWindow(hour, start, end int) bool {
	if start <= end {
		return start <= hour && hour <= end
	}
	return hour >= start || hour <= end
}

// ActiveHourCount returns the number of active hours per day for the
// given range, wraparound-aware. A result of 0 marks a degenerate window
// and must not be used as a divisor.
func ActiveHourCount(start, end int) int {
	if start <= end {
		return end - start
	}
	return (24 - start) + end
}

// InPeakWindow reports whether hour falls in any peak window. Peak
// windows are half-open [Start, End), unlike the inclusive active-hour
// check above; the asymmetry matches observed scheduling behavior and is
// pinned by tests.
func InPeakWindow(hour int, windows []Window) bool {
	for _, w := range windows {
		if w.Start <= hour && hour < w.End {
			return true
		}
	}
	return false
}

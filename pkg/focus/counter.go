package focus

// Counter accumulates consecutive qualifying samples.
//
// Observe is edge-triggered: it reports true only on the sample that brings
// the count to the threshold. The counter never resets itself; the owner does
// that when it acts on the crossing.
type Counter struct {
	threshold int
	floor     float64
	count     int
}

// NewCounter creates a counter with the given threshold and confidence floor.
func NewCounter(threshold int, floor float64) (*Counter, error) {
	if threshold < 1 {
		return nil, ErrInvalidThreshold
	}
	if !(floor >= 0 && floor <= 1) {
		return nil, ErrInvalidConfidence
	}
	return &Counter{threshold: threshold, floor: floor}, nil
}

// Observe folds one sample in and reports whether the threshold was just reached.
func (c *Counter) Observe(s Sample) bool {
	if s.Qualifies(c.floor) {
		c.count++
	} else {
		c.count = 0
	}
	return c.count == c.threshold
}

// Reset sets the count back to zero.
func (c *Counter) Reset() {
	c.count = 0
}

// Count returns the current run length.
func (c *Counter) Count() int {
	return c.count
}

// Threshold returns the configured trigger point.
func (c *Counter) Threshold() int {
	return c.threshold
}

// Floor returns the confidence floor.
func (c *Counter) Floor() float64 {
	return c.floor
}

package sensor

// EdgeDetector turns sampled pull-up levels into press events.
//
// The zero value starts "pressed" (low); use NewEdgeDetector with the
// sampled level instead.
type EdgeDetector struct {
	last bool
}

// NewEdgeDetector starts from the level read at construction.
func NewEdgeDetector(initial bool) *EdgeDetector {
	return &EdgeDetector{last: initial}
}

// Update records level and reports whether it is a new press: the level
// changed and is now low. Unchanged levels and releases report false.
func (d *EdgeDetector) Update(level bool) bool {
	if level == d.last {
		return false
	}
	d.last = level
	return !level
}

// Level returns the last observed level.
func (d *EdgeDetector) Level() bool {
	return d.last
}

package metropolis

// Recorder receives every sample a chain records with its weight.
// The recorded estimate of a sample is Color·weight.
type Recorder interface {
	Record(s Sample, weight float64)
}

// RecorderFunc adapts a function to a Recorder
type RecorderFunc func(s Sample, weight float64)

// Record calls f
func (f RecorderFunc) Record(s Sample, weight float64) {
	f(s, weight)
}

// recordStep records one transition from x to the proposal y with expected
// values: both states are recorded with their acceptance-weighted share, so
// rejected proposals still contribute. When fy < fx the proposal's weight
// a/fy is written as 1/fx, which is equal and avoids dividing by a small fy.
func recordStep(rec Recorder, x, y Sample, a float64) {
	if y.F < x.F {
		if y.F > 0 {
			rec.Record(y, 1/x.F)
		}
		if a < 1 {
			rec.Record(x, (1-a)/x.F)
		}
		return
	}
	rec.Record(y, 1/y.F)
}

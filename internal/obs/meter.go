package obs

// Label is a key/value pair attached to a count.
type Label struct {
	Key   string
	Value string
}

// Meter accumulates engine event counts. Implementations may no-op or bridge
// into a metrics system; callers must tolerate concurrent use.
type Meter interface {
	Count(name string, delta int64, labels ...Label)
}

// NopMeter discards all counts.
type NopMeter struct{}

func (NopMeter) Count(string, int64, ...Label) {}

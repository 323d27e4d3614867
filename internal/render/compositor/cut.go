package compositor

// Cut is the trivial compositor used when no named transition is configured
// or its duration is zero: it returns one of the inputs unchanged.
type Cut struct{}

// Blend selects the "to" frame once eased progress passes the midpoint.
func (Cut) Blend(from, to []byte, progress float64) ([]byte, error) {
	if progress > 0.5 {
		return to, nil
	}
	return from, nil
}

func (Cut) Close() error { return nil }

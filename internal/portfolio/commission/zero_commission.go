package commission

type Zero struct{}

// NewZero charges nothing. Useful for frictionless simulations.
func NewZero() Schedule {
	return &Zero{}
}

func (f *Zero) Calculate(quantity int) float64 {
	return 0
}

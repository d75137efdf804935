package brightness

import "context"

// Tool is the external brightness utility. Get must return a nil error
// whenever the process ran, reporting its exit status in the Result.
type Tool interface {
	Get(ctx context.Context) (Result, error)
	Set(ctx context.Context, level int) error
}

// Control is the host-facing side of a brightness slider. Values are
// fractions in [0, 1].
type Control interface {
	SetVisible(visible bool)
	SetValue(value float64)
}

// Controls fans updates out to every attached surface.
type Controls []Control

func (cs Controls) SetVisible(visible bool) {
	for _, c := range cs {
		c.SetVisible(visible)
	}
}

func (cs Controls) SetValue(value float64) {
	for _, c := range cs {
		c.SetValue(value)
	}
}

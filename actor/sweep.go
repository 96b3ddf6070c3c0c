package actor

import "github.com/go-gl/mathgl/mgl64"

// Sweep describes the motion of a body over one step, for continuous collision.
// The shapes are defined relative to the body origin, which may not coincide
// with the center of mass; the sweep interpolates the center of mass.
type Sweep struct {
	LocalCenter mgl64.Vec2 // center of mass in body space
	C0, C       mgl64.Vec2 // center of mass at T0 and at the end of the step
	A0, A       float64    // angles at T0 and at the end of the step
	T0          float64    // fraction of the step already covered, in [0,1)
}

// GetTransform returns the interpolated transform at fraction t of the step.
func (s *Sweep) GetTransform(t float64) Transform {
	xf := Transform{}
	if 1.0-s.T0 > Epsilon {
		alpha := (t - s.T0) / (1.0 - s.T0)
		xf.Position = s.C0.Mul(1.0 - alpha).Add(s.C.Mul(alpha))
		xf.R = mgl64.Rotate2D((1.0-alpha)*s.A0 + alpha*s.A)
	} else {
		xf.Position = s.C
		xf.R = mgl64.Rotate2D(s.A)
	}

	// Shift to origin
	xf.Position = xf.Position.Sub(xf.R.Mul2x1(s.LocalCenter))
	return xf
}

// Advance moves the start of the sweep forward to t, keeping the end pose.
func (s *Sweep) Advance(t float64) {
	if s.T0 < t && 1.0-s.T0 > Epsilon {
		alpha := (t - s.T0) / (1.0 - s.T0)
		s.C0 = s.C0.Mul(1.0 - alpha).Add(s.C.Mul(alpha))
		s.A0 = (1.0-alpha)*s.A0 + alpha*s.A
		s.T0 = t
	}
}

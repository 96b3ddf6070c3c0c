package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const toiSlop = 0.04

// Test helper functions

func at(x, y float64) actor.Transform {
	return actor.NewTransform(mgl64.Vec2{x, y}, 0)
}

func distance(a actor.ShapeInterface, xfA actor.Transform, b actor.ShapeInterface, xfB actor.Transform) (float64, mgl64.Vec2, mgl64.Vec2) {
	simplex := SimplexPool.Get().(*Simplex)
	defer SimplexPool.Put(simplex)
	return Distance(NewProxy(a), xfA, NewProxy(b), xfB, simplex)
}

func sweepBetween(from, to mgl64.Vec2) actor.Sweep {
	return actor.Sweep{C0: from, C: to}
}

// MinkowskiSupport tests

func TestMinkowskiSupport(t *testing.T) {
	box := NewProxy(actor.NewBox(1, 1))

	var v SimplexVertex
	MinkowskiSupport(&v, box, at(0, 0), box, at(3, 0), mgl64.Vec2{-1, 0})

	// Leftmost point of B minus rightmost point of A
	if v.W.X() != 1 {
		t.Errorf("W.X = %v, want 1", v.W.X())
	}
	if v.WA.X() != 1 || v.WB.X() != 2 {
		t.Errorf("support points = %v, %v, want x=1 and x=2", v.WA, v.WB)
	}
}

// Distance tests

func TestDistance(t *testing.T) {
	tests := []struct {
		name       string
		a          actor.ShapeInterface
		xfA        actor.Transform
		b          actor.ShapeInterface
		xfB        actor.Transform
		want       float64
		wantPointA mgl64.Vec2
		wantPointB mgl64.Vec2
		checkPts   bool
	}{
		{
			name:       "separated circles",
			a:          actor.NewCircle(mgl64.Vec2{}, 1),
			xfA:        at(0, 0),
			b:          actor.NewCircle(mgl64.Vec2{}, 1),
			xfB:        at(5, 0),
			want:       3,
			wantPointA: mgl64.Vec2{1, 0},
			wantPointB: mgl64.Vec2{4, 0},
			checkPts:   true,
		},
		{
			name: "overlapping circles",
			a:    actor.NewCircle(mgl64.Vec2{}, 1),
			xfA:  at(0, 0),
			b:    actor.NewCircle(mgl64.Vec2{}, 1),
			xfB:  at(1.5, 0),
			want: 0,
		},
		{
			name:       "separated boxes",
			a:          actor.NewBox(1, 1),
			xfA:        at(0, 0),
			b:          actor.NewBox(1, 1),
			xfB:        at(4, 0),
			want:       2,
			wantPointA: mgl64.Vec2{1, -1},
			wantPointB: mgl64.Vec2{3, -1},
			checkPts:   true,
		},
		{
			name: "overlapping boxes",
			a:    actor.NewBox(1, 1),
			xfA:  at(0, 0),
			b:    actor.NewBox(1, 1),
			xfB:  at(1.5, 0.5),
			want: 0,
		},
		{
			name: "rotated box corner facing a box",
			a:    actor.NewBox(1, 1),
			xfA:  actor.NewTransform(mgl64.Vec2{}, math.Pi/4),
			b:    actor.NewBox(1, 1),
			xfB:  at(3, 0),
			want: 2 - math.Sqrt2,
		},
		{
			name:       "point above an edge",
			a:          actor.NewEdge(mgl64.Vec2{-1, 0}, mgl64.Vec2{1, 0}),
			xfA:        at(0, 0),
			b:          actor.NewPoint(mgl64.Vec2{}, 1),
			xfB:        at(0.5, 2),
			want:       2,
			wantPointA: mgl64.Vec2{0.5, 0},
			wantPointB: mgl64.Vec2{0.5, 2},
			checkPts:   true,
		},
		{
			name:       "circle beside a box",
			a:          actor.NewBox(1, 1),
			xfA:        at(0, 0),
			b:          actor.NewCircle(mgl64.Vec2{}, 0.5),
			xfB:        at(0, 3),
			want:       1.5,
			wantPointA: mgl64.Vec2{0, 1},
			wantPointB: mgl64.Vec2{0, 2.5},
			checkPts:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, pA, pB := distance(tt.a, tt.xfA, tt.b, tt.xfB)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}
			if !tt.checkPts {
				return
			}
			if pA.Sub(tt.wantPointA).Len() > 1e-9 {
				t.Errorf("pointA = %v, want %v", pA, tt.wantPointA)
			}
			if pB.Sub(tt.wantPointB).Len() > 1e-9 {
				t.Errorf("pointB = %v, want %v", pB, tt.wantPointB)
			}
		})
	}
}

func TestDistance_Symmetry(t *testing.T) {
	a := actor.NewBox(0.5, 2)
	b := actor.NewOrientedBox(1, 0.25, mgl64.Vec2{}, 0.3)
	xfA := actor.NewTransform(mgl64.Vec2{-1, 0.2}, 0.1)
	xfB := actor.NewTransform(mgl64.Vec2{2.5, -0.4}, -0.7)

	d1, _, _ := distance(a, xfA, b, xfB)
	d2, _, _ := distance(b, xfB, a, xfA)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("Distance(a, b) = %v, Distance(b, a) = %v, want equal", d1, d2)
	}
	if d1 <= 0 {
		t.Errorf("Distance() = %v, want a positive distance", d1)
	}
}

func TestOverlap(t *testing.T) {
	box := actor.NewBox(1, 1)
	circle := actor.NewCircle(mgl64.Vec2{}, 1)

	if !Overlap(box, at(0, 0), circle, at(1.5, 0)) {
		t.Errorf("box and circle should overlap")
	}
	if Overlap(box, at(0, 0), circle, at(2.5, 0)) {
		t.Errorf("box and circle should not overlap")
	}
}

// Simplex reduction tests

func TestLine(t *testing.T) {
	t.Run("origin in the segment region", func(t *testing.T) {
		s := &Simplex{Count: 2}
		s.V[0].W = mgl64.Vec2{-1, 1}
		s.V[1].W = mgl64.Vec2{1, 1}

		line(s)

		if s.Count != 2 {
			t.Fatalf("Count = %d, want 2", s.Count)
		}
		if s.V[0].A != 0.5 || s.V[1].A != 0.5 {
			t.Errorf("barycentric = %v, %v, want 0.5, 0.5", s.V[0].A, s.V[1].A)
		}
	})

	t.Run("origin behind the second point", func(t *testing.T) {
		s := &Simplex{Count: 2}
		s.V[0].W = mgl64.Vec2{3, 1}
		s.V[1].W = mgl64.Vec2{1, 1}

		line(s)

		if s.Count != 1 {
			t.Fatalf("Count = %d, want 1", s.Count)
		}
		if s.V[0].W != (mgl64.Vec2{1, 1}) || s.V[0].A != 1 {
			t.Errorf("kept vertex = %v (a=%v), want (1,1) with a=1", s.V[0].W, s.V[0].A)
		}
	})
}

func TestTriangle(t *testing.T) {
	t.Run("origin inside", func(t *testing.T) {
		s := &Simplex{Count: 3}
		s.V[0].W = mgl64.Vec2{-1, -1}
		s.V[1].W = mgl64.Vec2{1, -1}
		s.V[2].W = mgl64.Vec2{0, 1}

		triangle(s)

		if s.Count != 3 {
			t.Fatalf("Count = %d, want 3", s.Count)
		}
		sum := s.V[0].A + s.V[1].A + s.V[2].A
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("barycentric sum = %v, want 1", sum)
		}
	})

	t.Run("origin beyond an edge", func(t *testing.T) {
		s := &Simplex{Count: 3}
		s.V[0].W = mgl64.Vec2{-1, 1}
		s.V[1].W = mgl64.Vec2{1, 1}
		s.V[2].W = mgl64.Vec2{0, 3}

		triangle(s)

		if s.Count != 2 {
			t.Fatalf("Count = %d, want 2", s.Count)
		}
	})
}

// TimeOfImpact tests

func TestTimeOfImpact_HeadOn(t *testing.T) {
	circle := actor.NewCircle(mgl64.Vec2{}, 0.5)
	box := actor.NewBox(1, 1)
	circle.UpdateSweepRadius(mgl64.Vec2{})
	box.UpdateSweepRadius(mgl64.Vec2{})

	sweepA := sweepBetween(mgl64.Vec2{-10, 0}, mgl64.Vec2{10, 0})
	sweepB := sweepBetween(mgl64.Vec2{}, mgl64.Vec2{})

	alpha := TimeOfImpact(circle, sweepA, box, sweepB, toiSlop)

	// The cores stop 1.5*toiSlop apart, so the circle overlaps the box face at x = -1.5
	// by half a toiSlop
	want := (10 - 1.5 + 0.5*toiSlop) / 20
	if math.Abs(alpha-want) > 0.05*toiSlop/20+1e-9 {
		t.Errorf("TimeOfImpact() = %v, want %v", alpha, want)
	}

	// Touching, but never deeper than toiSlop
	x := sweepA.GetTransform(alpha).Position.X()
	if penetration := x + 1.5; penetration <= 0 || penetration >= toiSlop {
		t.Errorf("penetration at impact = %v, want within (0, %v)", penetration, toiSlop)
	}
}

func TestTimeOfImpact_NoImpact(t *testing.T) {
	circle := actor.NewCircle(mgl64.Vec2{}, 0.5)
	box := actor.NewBox(1, 1)
	circle.UpdateSweepRadius(mgl64.Vec2{})
	box.UpdateSweepRadius(mgl64.Vec2{})

	// Moving away from the box
	sweepA := sweepBetween(mgl64.Vec2{-3, 0}, mgl64.Vec2{-10, 0})
	sweepB := sweepBetween(mgl64.Vec2{}, mgl64.Vec2{})

	if alpha := TimeOfImpact(circle, sweepA, box, sweepB, toiSlop); alpha != 1 {
		t.Errorf("TimeOfImpact() = %v, want 1", alpha)
	}
}

func TestTimeOfImpact_AlreadyTouching(t *testing.T) {
	circle := actor.NewCircle(mgl64.Vec2{}, 0.5)
	box := actor.NewBox(1, 1)
	circle.UpdateSweepRadius(mgl64.Vec2{})
	box.UpdateSweepRadius(mgl64.Vec2{})

	sweepA := sweepBetween(mgl64.Vec2{-1.4, 0}, mgl64.Vec2{5, 0})
	sweepB := sweepBetween(mgl64.Vec2{}, mgl64.Vec2{})

	if alpha := TimeOfImpact(circle, sweepA, box, sweepB, toiSlop); alpha != 0 {
		t.Errorf("TimeOfImpact() = %v, want 0", alpha)
	}
}

func TestTimeOfImpact_BoxOnBox(t *testing.T) {
	falling := actor.NewBox(0.5, 0.5)
	ground := actor.NewBox(5, 0.5)
	falling.UpdateSweepRadius(mgl64.Vec2{})
	ground.UpdateSweepRadius(mgl64.Vec2{})

	sweepA := sweepBetween(mgl64.Vec2{0, 10}, mgl64.Vec2{0, -10})
	sweepB := sweepBetween(mgl64.Vec2{}, mgl64.Vec2{})

	alpha := TimeOfImpact(falling, sweepA, ground, sweepB, toiSlop)

	// Faces meet at y = 1, the boxes end up overlapping by half a toiSlop
	y := sweepA.GetTransform(alpha).Position.Y()
	if penetration := 1 - y; penetration <= 0 || penetration >= toiSlop {
		t.Errorf("penetration at impact = %v, want within (0, %v)", penetration, toiSlop)
	}
}

func TestTimeOfImpact_ThinEdge(t *testing.T) {
	// A small fast circle crossing a static edge entirely within one step
	circle := actor.NewCircle(mgl64.Vec2{}, 0.1)
	edge := actor.NewEdge(mgl64.Vec2{-5, 0}, mgl64.Vec2{5, 0})
	circle.UpdateSweepRadius(mgl64.Vec2{})
	edge.UpdateSweepRadius(mgl64.Vec2{})

	sweepA := sweepBetween(mgl64.Vec2{0, 5}, mgl64.Vec2{0, -5})
	sweepB := sweepBetween(mgl64.Vec2{}, mgl64.Vec2{})

	alpha := TimeOfImpact(circle, sweepA, edge, sweepB, toiSlop)
	if alpha <= 0 || alpha >= 0.5 {
		t.Fatalf("TimeOfImpact() = %v, want within (0, 0.5)", alpha)
	}

	// The circle reaches the edge without crossing it
	y := sweepA.GetTransform(alpha).Position.Y()
	if y >= 0.1 || y <= 0.1-toiSlop {
		t.Errorf("circle center at impact y = %v, want within (%v, 0.1)", y, 0.1-toiSlop)
	}
}

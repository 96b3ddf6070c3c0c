// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) distance algorithm in 2D
// and the conservative advancement time of impact built on top of it.
//
// GJK computes the distance between two convex shapes as the distance from the origin
// to their Minkowski difference. The algorithm keeps a simplex of at most 3 points and
// reduces it to the feature closest to the origin, tracking barycentric coordinates so
// that the closest points on each shape can be recovered.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const maxIterations = 20

// Proxy is a convex hull with a rounding radius, in the local frame of its shape
type Proxy struct {
	Vertices []mgl64.Vec2
	Radius   float64
}

// NewProxy views a shape as a rounded hull
func NewProxy(shape actor.ShapeInterface) Proxy {
	return Proxy{Vertices: shape.Vertices(), Radius: shape.Radius()}
}

// Support returns the index of the vertex furthest along d
func (p Proxy) Support(d mgl64.Vec2) int {
	bestIndex := 0
	bestValue := p.Vertices[0].Dot(d)
	for i := 1; i < len(p.Vertices); i++ {
		value := p.Vertices[i].Dot(d)
		if value > bestValue {
			bestIndex = i
			bestValue = value
		}
	}
	return bestIndex
}

// SimplexVertex is a point of the Minkowski difference B - A, with the support
// points it was built from.
type SimplexVertex struct {
	WA, WB         mgl64.Vec2 // support points in world space
	W              mgl64.Vec2 // WB - WA
	A              float64    // barycentric coordinate of the closest point
	IndexA, IndexB int
}

// Simplex represents a set of 1-3 points in the Minkowski difference space.
// Size progression: 1 point → 2 points (line) → 3 points (triangle)
type Simplex struct {
	V     [3]SimplexVertex
	Count int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport fills v with the support point of B - A in direction d
func MinkowskiSupport(v *SimplexVertex, proxyA Proxy, xfA actor.Transform, proxyB Proxy, xfB actor.Transform, d mgl64.Vec2) {
	v.IndexA = proxyA.Support(xfA.InverseRotate(d.Mul(-1)))
	v.WA = xfA.Apply(proxyA.Vertices[v.IndexA])
	v.IndexB = proxyB.Support(xfB.InverseRotate(d))
	v.WB = xfB.Apply(proxyB.Vertices[v.IndexB])
	v.W = v.WB.Sub(v.WA)
}

// Distance computes the distance between two rounded hulls and the closest points on
// each of them. Overlapping shapes report a zero distance and a shared point.
//
// Algorithm overview:
//  1. Start the simplex with an arbitrary vertex pair
//  2. Reduce the simplex to the feature closest to the origin
//  3. Search for a new support point toward the origin
//  4. Stop when the simplex encloses the origin or no progress is made
//  5. Remove the radii from the core distance
func Distance(proxyA Proxy, xfA actor.Transform, proxyB Proxy, xfB actor.Transform, simplex *Simplex) (float64, mgl64.Vec2, mgl64.Vec2) {
	simplex.Reset()

	// Get first point of the simplex in the Minkowski difference
	v := &simplex.V[0]
	v.IndexA, v.IndexB = 0, 0
	v.WA = xfA.Apply(proxyA.Vertices[0])
	v.WB = xfB.Apply(proxyB.Vertices[0])
	v.W = v.WB.Sub(v.WA)
	v.A = 1.0
	simplex.Count = 1

	var saveA, saveB [3]int

	for i := 0; i < maxIterations; i++ {
		// Copy simplex so we can identify duplicates
		saveCount := simplex.Count
		for j := 0; j < saveCount; j++ {
			saveA[j] = simplex.V[j].IndexA
			saveB[j] = simplex.V[j].IndexB
		}

		switch simplex.Count {
		case 2:
			line(simplex)
		case 3:
			triangle(simplex)
		}

		// If we have 3 points, then the origin is in the corresponding triangle
		if simplex.Count == 3 {
			break
		}

		direction := searchDirection(simplex)

		// The origin is probably contained by a line segment or triangle,
		// thus the shapes are overlapped
		if direction.Dot(direction) < actor.Epsilon*actor.Epsilon {
			break
		}

		vertex := &simplex.V[simplex.Count]
		MinkowskiSupport(vertex, proxyA, xfA, proxyB, xfB, direction)

		// Main termination criterion: a repeated support point means no progress
		duplicate := false
		for j := 0; j < saveCount; j++ {
			if vertex.IndexA == saveA[j] && vertex.IndexB == saveB[j] {
				duplicate = true
				break
			}
		}
		if duplicate {
			break
		}

		simplex.Count++
	}

	pointA, pointB := witnessPoints(simplex)
	distance := pointB.Sub(pointA).Len()

	// Apply radii
	rA, rB := proxyA.Radius, proxyB.Radius
	if distance > rA+rB && distance > actor.Epsilon {
		// Shapes are still not overlapped, move the witness points to the outer surfaces
		distance -= rA + rB
		normal := pointB.Sub(pointA)
		normal, _ = actor.Normalize(normal)
		pointA = pointA.Add(normal.Mul(rA))
		pointB = pointB.Sub(normal.Mul(rB))
	} else {
		// Shapes are overlapped when radii are considered, use the midpoint
		p := pointA.Add(pointB).Mul(0.5)
		pointA = p
		pointB = p
		distance = 0.0
	}

	return distance, pointA, pointB
}

// searchDirection points from the closest feature of the simplex toward the origin
func searchDirection(s *Simplex) mgl64.Vec2 {
	switch s.Count {
	case 1:
		return s.V[0].W.Mul(-1)
	case 2:
		e12 := s.V[1].W.Sub(s.V[0].W)
		sgn := actor.Cross(e12, s.V[0].W.Mul(-1))
		if sgn > 0.0 {
			// Origin is left of e12
			return actor.CrossSV(1.0, e12)
		}
		// Origin is right of e12
		return actor.CrossVS(e12, 1.0)
	}
	return mgl64.Vec2{}
}

func witnessPoints(s *Simplex) (mgl64.Vec2, mgl64.Vec2) {
	switch s.Count {
	case 1:
		return s.V[0].WA, s.V[0].WB
	case 2:
		pA := s.V[0].WA.Mul(s.V[0].A).Add(s.V[1].WA.Mul(s.V[1].A))
		pB := s.V[0].WB.Mul(s.V[0].A).Add(s.V[1].WB.Mul(s.V[1].A))
		return pA, pB
	case 3:
		pA := s.V[0].WA.Mul(s.V[0].A).Add(s.V[1].WA.Mul(s.V[1].A)).Add(s.V[2].WA.Mul(s.V[2].A))
		return pA, pA
	}
	return mgl64.Vec2{}, mgl64.Vec2{}
}

// line reduces a 2 point simplex to the feature closest to the origin, using
// barycentric coordinates.
//
// Tests which Voronoi region contains the origin:
//   - Region W1: origin closest to the first point alone
//   - Region W2: origin closest to the second point alone
//   - Region W12: origin closest to the segment interior
func line(s *Simplex) {
	w1 := s.V[0].W
	w2 := s.V[1].W
	e12 := w2.Sub(w1)

	// w1 region
	d12_2 := -w1.Dot(e12)
	if d12_2 <= 0.0 {
		// a2 <= 0, so we clamp it to 0
		s.V[0].A = 1.0
		s.Count = 1
		return
	}

	// w2 region
	d12_1 := w2.Dot(e12)
	if d12_1 <= 0.0 {
		// a1 <= 0, so we clamp it to 0
		s.V[1].A = 1.0
		s.Count = 1
		s.V[0] = s.V[1]
		return
	}

	// Must be in e12 region
	inv := 1.0 / (d12_1 + d12_2)
	s.V[0].A = d12_1 * inv
	s.V[1].A = d12_2 * inv
	s.Count = 2
}

// triangle reduces a 3 point simplex. Possible regions are the three vertices, the
// three edges and the interior, the last one meaning the origin is enclosed.
func triangle(s *Simplex) {
	w1 := s.V[0].W
	w2 := s.V[1].W
	w3 := s.V[2].W

	// Edge12
	e12 := w2.Sub(w1)
	d12_1 := w2.Dot(e12)
	d12_2 := -w1.Dot(e12)

	// Edge13
	e13 := w3.Sub(w1)
	d13_1 := w3.Dot(e13)
	d13_2 := -w1.Dot(e13)

	// Edge23
	e23 := w3.Sub(w2)
	d23_1 := w3.Dot(e23)
	d23_2 := -w2.Dot(e23)

	// Triangle123
	n123 := actor.Cross(e12, e13)
	d123_1 := n123 * actor.Cross(w2, w3)
	d123_2 := n123 * actor.Cross(w3, w1)
	d123_3 := n123 * actor.Cross(w1, w2)

	// w1 region
	if d12_2 <= 0.0 && d13_2 <= 0.0 {
		s.V[0].A = 1.0
		s.Count = 1
		return
	}

	// e12
	if d12_1 > 0.0 && d12_2 > 0.0 && d123_3 <= 0.0 {
		inv := 1.0 / (d12_1 + d12_2)
		s.V[0].A = d12_1 * inv
		s.V[1].A = d12_2 * inv
		s.Count = 2
		return
	}

	// e13
	if d13_1 > 0.0 && d13_2 > 0.0 && d123_2 <= 0.0 {
		inv := 1.0 / (d13_1 + d13_2)
		s.V[0].A = d13_1 * inv
		s.V[2].A = d13_2 * inv
		s.Count = 2
		s.V[1] = s.V[2]
		return
	}

	// w2 region
	if d12_1 <= 0.0 && d23_2 <= 0.0 {
		s.V[1].A = 1.0
		s.Count = 1
		s.V[0] = s.V[1]
		return
	}

	// w3 region
	if d13_1 <= 0.0 && d23_1 <= 0.0 {
		s.V[2].A = 1.0
		s.Count = 1
		s.V[0] = s.V[2]
		return
	}

	// e23
	if d23_1 > 0.0 && d23_2 > 0.0 && d123_1 <= 0.0 {
		inv := 1.0 / (d23_1 + d23_2)
		s.V[1].A = d23_1 * inv
		s.V[2].A = d23_2 * inv
		s.Count = 2
		s.V[0] = s.V[2]
		return
	}

	// Must be in triangle123
	inv := 1.0 / (d123_1 + d123_2 + d123_3)
	s.V[0].A = d123_1 * inv
	s.V[1].A = d123_2 * inv
	s.V[2].A = d123_3 * inv
	s.Count = 3
}

// Overlap reports whether two shapes touch, radii included
func Overlap(shapeA actor.ShapeInterface, xfA actor.Transform, shapeB actor.ShapeInterface, xfB actor.Transform) bool {
	simplex := SimplexPool.Get().(*Simplex)
	defer SimplexPool.Put(simplex)

	distance, _, _ := Distance(NewProxy(shapeA), xfA, NewProxy(shapeB), xfB, simplex)
	return distance < actor.Epsilon
}

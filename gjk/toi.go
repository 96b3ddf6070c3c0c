package gjk

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// TimeOfImpact computes the fraction of the remaining sweep interval at which the two
// shapes come within a small target distance of each other, using conservative
// advancement over GJK distance. Both sweeps must share the same T0.
//
// The distance is measured between the cores of the shapes, shrunk by toiSlop on every
// side. Stopping at 1.5*toiSlop between the cores leaves the shapes themselves slightly
// overlapping, so the narrow phase finds contact points at the time of impact.
//
// The result is relative to [T0, 1]: 0 means the shapes already touch at T0 and 1
// means no impact during the step. The caller maps it back onto the step.
//
// The motion bound uses the sweep radius of each shape around its body center, so
// the advancement never overshoots, even for fast rotations.
func TimeOfImpact(shapeA actor.ShapeInterface, sweepA actor.Sweep, shapeB actor.ShapeInterface, sweepB actor.Sweep, toiSlop float64) float64 {
	simplex := SimplexPool.Get().(*Simplex)
	defer SimplexPool.Put(simplex)

	var bufferA, bufferB [actor.MaxPolygonVertices]mgl64.Vec2
	proxyA, coreRadiusA := coreProxy(shapeA, toiSlop, bufferA[:0])
	proxyB, coreRadiusB := coreProxy(shapeB, toiSlop, bufferB[:0])

	rA := shapeA.SweepRadius()
	rB := shapeB.SweepRadius()

	t0 := sweepA.T0
	vA := sweepA.C.Sub(sweepA.C0)
	vB := sweepB.C.Sub(sweepB.C0)
	omegaA := sweepA.A - sweepA.A0
	omegaB := sweepB.A - sweepB.A0

	alpha := 0.0
	target := 0.0

	for iter := 0; ; iter++ {
		t := (1.0-alpha)*t0 + alpha
		xfA := sweepA.GetTransform(t)
		xfB := sweepB.GetTransform(t)

		// Get the distance between the cores
		hullDistance, pointA, pointB := Distance(proxyA, xfA, proxyB, xfB, simplex)
		if hullDistance < actor.Epsilon {
			// Deep penetration, no separating direction left
			break
		}
		distance := hullDistance - coreRadiusA - coreRadiusB

		if iter == 0 {
			// Compute a reasonable target distance to give some breathing room
			// for conservative advancement
			if distance > 2.0*toiSlop {
				target = 1.5 * toiSlop
			} else {
				target = math.Max(0.05*toiSlop, distance-0.5*toiSlop)
			}
		}

		if distance-target < 0.05*toiSlop || iter == maxIterations {
			break
		}

		normal, _ := actor.Normalize(pointB.Sub(pointA))

		// Compute upper bound on remaining movement
		approachVelocityBound := normal.Dot(vA.Sub(vB)) + math.Abs(omegaA)*rA + math.Abs(omegaB)*rB
		if math.Abs(approachVelocityBound) < actor.Epsilon {
			alpha = 1.0
			break
		}

		// Get the conservative time increment. Don't advance all the way.
		dAlpha := (distance - target) / approachVelocityBound
		newAlpha := alpha + dAlpha

		// The shapes may be moving apart or a safe distance apart
		if newAlpha < 0.0 || 1.0 < newAlpha {
			alpha = 1.0
			break
		}

		// Ensure significant advancement
		if newAlpha < (1.0+100.0*actor.Epsilon)*alpha {
			break
		}

		alpha = newAlpha
	}

	return alpha
}

// coreProxy views a shape shrunk by skin on every side, as a hull and the radius left to
// subtract from the hull distance. The radius is negative for a shape too thin to
// shrink, such as an edge.
func coreProxy(shape actor.ShapeInterface, skin float64, buffer []mgl64.Vec2) (Proxy, float64) {
	if polygon, ok := shape.(*actor.Polygon); ok {
		vertices, shrunk := polygon.CoreVertices(buffer, skin)
		return Proxy{Vertices: vertices}, shrunk - skin
	}
	return Proxy{Vertices: shape.Vertices()}, shape.Radius() - skin
}

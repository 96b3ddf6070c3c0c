package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type clipVertex struct {
	v  mgl64.Vec2
	id ContactID
}

// CollidePolygons creates contact points for two convex hulls using the separating axis
// test and Sutherland-Hodgman clipping.
//
// Algorithm:
//  1. Find the axis of maximum separation among the face normals of both hulls
//  2. If any axis separates the hulls, there is no contact
//  3. The face owning that axis is the reference face, the most anti-parallel face of
//     the other hull is the incident face
//  4. Clip the incident face against the side planes of the reference face
//  5. Keep the clipped points that lie below the reference face
func CollidePolygons(m *Manifold, hA hull, xfA Transform, hB hull, xfB Transform) {
	m.PointCount = 0

	edgeA, separationA := findMaxSeparation(hA, xfA, hB, xfB)
	if separationA > 0.0 {
		return
	}

	edgeB, separationB := findMaxSeparation(hB, xfB, hA, xfA)
	if separationB > 0.0 {
		return
	}

	// Prefer hull A as reference unless B is clearly better, to avoid flip-flopping
	const relativeTol = 0.98
	const absoluteTol = 0.001

	h1, h2 := hA, hB
	xf1, xf2 := xfA, xfB
	edge1 := edgeA
	flip := false
	if separationB > relativeTol*separationA+absoluteTol {
		h1, h2 = hB, hA
		xf1, xf2 = xfB, xfA
		edge1 = edgeB
		flip = true
	}

	incidentEdge := findIncidentEdge(h1, xf1, edge1, h2, xf2)

	count1 := len(h1.vertices)
	v11 := h1.vertices[edge1]
	v12 := h1.vertices[(edge1+1)%count1]

	dv, _ := Normalize(v12.Sub(v11))
	sideNormal := xf1.Rotate(dv)
	frontNormal := CrossVS(sideNormal, 1.0)

	v11 = xf1.Apply(v11)
	v12 = xf1.Apply(v12)

	frontOffset := frontNormal.Dot(v11)
	sideOffset1 := -sideNormal.Dot(v11)
	sideOffset2 := sideNormal.Dot(v12)

	// Clip incident edge against extruded edge1 side edges
	var clipPoints1, clipPoints2 [2]clipVertex

	// Clip to box side 1
	if clipSegmentToLine(&clipPoints1, incidentEdge, sideNormal.Mul(-1), sideOffset1) < 2 {
		return
	}

	// Clip to negative box side 1
	if clipSegmentToLine(&clipPoints2, clipPoints1, sideNormal, sideOffset2) < 2 {
		return
	}

	// Now clipPoints2 contains the clipped points
	if flip {
		m.Normal = frontNormal.Mul(-1)
	} else {
		m.Normal = frontNormal
	}

	pointCount := 0
	for i := 0; i < MaxManifoldPoints; i++ {
		separation := frontNormal.Dot(clipPoints2[i].v) - frontOffset
		if separation > 0.0 {
			continue
		}

		id := clipPoints2[i].id
		id.Flip = flip
		m.Points[pointCount] = ManifoldPoint{
			LocalPoint1: xfA.ApplyInverse(clipPoints2[i].v),
			LocalPoint2: xfB.ApplyInverse(clipPoints2[i].v),
			Separation:  separation,
			ID:          id,
		}
		pointCount++
	}

	m.PointCount = pointCount
}

// findMaxSeparation returns the face of h1 whose normal separates the hulls the most
func findMaxSeparation(h1 hull, xf1 Transform, h2 hull, xf2 Transform) (int, float64) {
	bestIndex := 0
	maxSeparation := -math.MaxFloat64

	for i := range h1.vertices {
		// Face normal and vertex of h1 in the frame of h2
		n := xf2.InverseRotate(xf1.Rotate(h1.normals[i]))
		v1 := xf2.ApplyInverse(xf1.Apply(h1.vertices[i]))

		// Deepest point of h2 along -n
		si := math.MaxFloat64
		for j := range h2.vertices {
			si = math.Min(si, n.Dot(h2.vertices[j].Sub(v1)))
		}

		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}

	return bestIndex, maxSeparation
}

// findIncidentEdge returns the world-space face of h2 most anti-parallel to the reference normal
func findIncidentEdge(h1 hull, xf1 Transform, edge1 int, h2 hull, xf2 Transform) [2]clipVertex {
	// Get the normal of the reference edge in h2's frame
	normal1 := xf2.InverseRotate(xf1.Rotate(h1.normals[edge1]))

	// Find the incident edge on h2
	index := 0
	minDot := math.MaxFloat64
	for i := range h2.normals {
		dot := normal1.Dot(h2.normals[i])
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	// Build the clip vertices for the incident edge
	i1 := index
	i2 := (i1 + 1) % len(h2.vertices)

	return [2]clipVertex{
		{
			v:  xf2.Apply(h2.vertices[i1]),
			id: ContactID{ReferenceEdge: uint8(edge1), IncidentEdge: uint8(i1), IncidentVertex: 0},
		},
		{
			v:  xf2.Apply(h2.vertices[i2]),
			id: ContactID{ReferenceEdge: uint8(edge1), IncidentEdge: uint8(i2), IncidentVertex: 1},
		},
	}
}

// clipSegmentToLine keeps the part of the segment vIn behind the line dot(normal, x) = offset
func clipSegmentToLine(vOut *[2]clipVertex, vIn [2]clipVertex, normal mgl64.Vec2, offset float64) int {
	numOut := 0

	// Calculate the distance of end points to the line
	distance0 := normal.Dot(vIn[0].v) - offset
	distance1 := normal.Dot(vIn[1].v) - offset

	// If the points are behind the plane
	if distance0 <= 0.0 {
		vOut[numOut] = vIn[0]
		numOut++
	}
	if distance1 <= 0.0 {
		vOut[numOut] = vIn[1]
		numOut++
	}

	// If the points are on different sides of the plane
	if distance0*distance1 < 0.0 {
		// Find intersection point of edge and plane
		interp := distance0 / (distance0 - distance1)
		vOut[numOut].v = vIn[0].v.Add(vIn[1].v.Sub(vIn[0].v).Mul(interp))
		if distance0 > 0.0 {
			vOut[numOut].id = vIn[0].id
		} else {
			vOut[numOut].id = vIn[1].id
		}
		numOut++
	}

	return numOut
}

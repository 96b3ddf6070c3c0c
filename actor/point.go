package actor

import "github.com/go-gl/mathgl/mgl64"

// Point is a mass point with no extent. It adds a fixed mass at LocalPosition,
// independent of the density, and collides like a circle of radius zero.
type Point struct {
	LocalPosition mgl64.Vec2
	Mass          float64

	vertex      [1]mgl64.Vec2
	sweepRadius float64
}

func NewPoint(localPosition mgl64.Vec2, mass float64) *Point {
	if mass < 0 {
		panic("actor: point mass must not be negative")
	}
	p := &Point{LocalPosition: localPosition, Mass: mass}
	p.vertex[0] = localPosition
	return p
}

func (p *Point) Type() ShapeType { return ShapeTypePoint }

func (p *Point) ComputeAABB(xf Transform) AABB {
	v := xf.Apply(p.LocalPosition)
	return AABB{Min: v, Max: v}
}

func (p *Point) ComputeSweptAABB(xf1, xf2 Transform) AABB {
	return sweptAABB(p, xf1, xf2)
}

func (p *Point) ComputeMass(density float64) MassData {
	return MassData{
		Mass:   p.Mass,
		Center: p.LocalPosition,
		I:      p.Mass * p.LocalPosition.Dot(p.LocalPosition),
	}
}

func (p *Point) TestPoint(xf Transform, point mgl64.Vec2) bool {
	return false
}

func (p *Point) TestSegment(xf Transform, segment Segment, maxLambda float64) (SegmentCollide, float64, mgl64.Vec2) {
	return SegmentMiss, 0, mgl64.Vec2{}
}

func (p *Point) UpdateSweepRadius(center mgl64.Vec2) {
	p.sweepRadius = p.LocalPosition.Sub(center).Len()
}

func (p *Point) SweepRadius() float64 { return p.sweepRadius }

func (p *Point) Vertices() []mgl64.Vec2 {
	p.vertex[0] = p.LocalPosition
	return p.vertex[:]
}

func (p *Point) Radius() float64 { return 0 }

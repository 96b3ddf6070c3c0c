package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

type JointType uint8

const (
	JointTypeDistance JointType = iota
	JointTypeConstantVolume
)

func (t JointType) String() string {
	switch t {
	case JointTypeDistance:
		return "distance"
	case JointTypeConstantVolume:
		return "constant volume"
	default:
		return "unknown"
	}
}

// Joint is a constraint between bodies, linked in the joint graph. Each body of the
// joint holds one of its edges.
type Joint struct {
	Type             JointType
	CollideConnected bool
	UserData         any

	constraint constraint.Constraint
	bodies     []*Body
	edges      []JointEdge

	prev, next *Joint
	islandFlag bool

	// A constant volume joint owns the distance joints holding the edges of its ring
	owner     *Joint
	subJoints []*Joint
}

// JointDef describes a joint to create with World.CreateJoint
type JointDef interface {
	jointType() JointType
}

// DistanceJointDef binds two bodies at world anchors. The rest length is the distance
// between the anchors when the joint is created.
type DistanceJointDef struct {
	BodyA, BodyB     *Body
	AnchorA, AnchorB mgl64.Vec2
	// A positive frequency makes the joint a damped spring
	FrequencyHz      float64
	DampingRatio     float64
	CollideConnected bool
	UserData         any
}

func (DistanceJointDef) jointType() JointType { return JointTypeDistance }

// ConstantVolumeJointDef binds a counter-clockwise ring of at least 3 bodies whose
// enclosed area stays constant
type ConstantVolumeJointDef struct {
	Bodies           []*Body
	FrequencyHz      float64
	DampingRatio     float64
	CollideConnected bool
	UserData         any
}

func (ConstantVolumeJointDef) jointType() JointType { return JointTypeConstantVolume }

func newDistanceJoint(def DistanceJointDef) *Joint {
	dj := constraint.NewDistanceJoint(&def.BodyA.RigidBody, &def.BodyB.RigidBody, def.AnchorA, def.AnchorB)
	dj.FrequencyHz = def.FrequencyHz
	dj.DampingRatio = def.DampingRatio

	return &Joint{
		Type:             JointTypeDistance,
		CollideConnected: def.CollideConnected,
		UserData:         def.UserData,
		constraint:       dj,
		bodies:           []*Body{def.BodyA, def.BodyB},
		edges:            make([]JointEdge, 2),
	}
}

func newConstantVolumeJoint(def ConstantVolumeJointDef) *Joint {
	rigidBodies := make([]*actor.RigidBody, len(def.Bodies))
	for i, b := range def.Bodies {
		rigidBodies[i] = &b.RigidBody
	}

	cvj := constraint.NewConstantVolumeJoint(rigidBodies)
	cvj.FrequencyHz = def.FrequencyHz
	cvj.DampingRatio = def.DampingRatio

	return &Joint{
		Type:             JointTypeConstantVolume,
		CollideConnected: def.CollideConnected,
		UserData:         def.UserData,
		constraint:       cvj,
		bodies:           append([]*Body(nil), def.Bodies...),
		edges:            make([]JointEdge, len(def.Bodies)),
	}
}

// Distance returns the distance constraint, or nil for another joint type
func (j *Joint) Distance() *constraint.DistanceJoint {
	dj, _ := j.constraint.(*constraint.DistanceJoint)
	return dj
}

// ConstantVolume returns the area constraint, or nil for another joint type
func (j *Joint) ConstantVolume() *constraint.ConstantVolumeJoint {
	cvj, _ := j.constraint.(*constraint.ConstantVolumeJoint)
	return cvj
}

func (j *Joint) Bodies() []*Body { return j.bodies }

func (j *Joint) GetBodyA() *Body { return j.bodies[0] }

func (j *Joint) GetBodyB() *Body { return j.bodies[1] }

func (j *Joint) GetNext() *Joint { return j.next }

// Owner returns the constant volume joint a distance joint belongs to, if any
func (j *Joint) Owner() *Joint { return j.owner }

func (j *Joint) SubJoints() []*Joint { return j.subJoints }

func (j *Joint) hasBody(b *Body) bool {
	for _, body := range j.bodies {
		if body == b {
			return true
		}
	}
	return false
}

// link adds the edges of the joint to its bodies. Edge i sits on body i and points to
// the next body of the ring.
func (j *Joint) link() {
	n := len(j.bodies)
	for i, body := range j.bodies {
		edge := &j.edges[i]
		edge.Joint = j
		edge.Other = j.bodies[(i+1)%n]
		edge.prev = nil
		edge.next = body.jointList
		if body.jointList != nil {
			body.jointList.prev = edge
		}
		body.jointList = edge
	}
}

func (j *Joint) unlink() {
	for i, body := range j.bodies {
		edge := &j.edges[i]
		if edge.prev != nil {
			edge.prev.next = edge.next
		}
		if edge.next != nil {
			edge.next.prev = edge.prev
		}
		if edge == body.jointList {
			body.jointList = edge.next
		}
		edge.prev = nil
		edge.next = nil
	}
}

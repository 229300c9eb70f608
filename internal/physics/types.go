package physics

import (
	"io"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/robosim/internal/config"
)

type ShapeKind string

const KindBox ShapeKind = "box"

type JointKind string

const (
	KindHinge JointKind = "hinge"
	KindBall  JointKind = "ball"
)

// Param keys understood by joints. Stops are in radians.
const (
	ParamERP      = "erp"
	ParamCFM      = "cfm"
	ParamLoStop   = "lo_stop"
	ParamHiStop   = "hi_stop"
	ParamVelocity = "vel"
	ParamFMax     = "fmax"
)

type Engine interface {
	Name() string
	// Load reads world-level parameters. It allocates nothing.
	Load(cfg config.Physics) error
	// Init creates the backend world.
	Init() error
	CreateBody(cfg config.Body, origin mgl64.Vec3, static bool) (Body, error)
	CreateShape(kind ShapeKind, parent Body) (Shape, error)
	CreateJoint(kind JointKind) (Joint, error)
	Step(dt time.Duration) error
	// Close releases the world. Every body, shape and joint becomes invalid.
	Close() error
}

type Body interface {
	Name() string
	Static() bool
	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
	RPY() mgl64.Vec3
	LinearVelocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
}

type Shape interface {
	Kind() ShapeKind
	Name() string
	// Load reads the shape's parameters from a geom node.
	Load(n *yaml.Node) error
	// Save writes a geom node that Load accepts.
	Save(w io.Writer) error
}

type Box interface {
	Shape
	Size() mgl64.Vec3
	SetSize(size mgl64.Vec3) error
}

type Joint interface {
	Name() string
	Kind() JointKind
	Load(n *yaml.Node) error
	Save(w io.Writer) error
	// Attach binds the joint to two bodies. A nil body is the world.
	Attach(body1, body2 Body) error
	Detach()
	Body1() Body
	Body2() Body
	AxisCount() int

	Anchor(index int) (mgl64.Vec3, error)
	SetAnchor(index int, p mgl64.Vec3) error
	Axis(index int) (mgl64.Vec3, error)
	SetAxis(index int, dir mgl64.Vec3) error
	Angle(index int) (float64, error)
	Velocity(index int) (float64, error)
	SetVelocity(index int, v float64) error
	MaxForce(index int) (float64, error)
	SetMaxForce(index int, f float64) error
	// SetForce applies a torque for the next step only.
	SetForce(index int, torque float64) error
	// MotorTorque reports the torque the motor applied during the last step.
	MotorTorque(index int) (float64, error)

	Param(key string) (float64, error)
	SetParam(key string, v float64) error
}

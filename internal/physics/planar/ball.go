package planar

import (
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/robosim/internal/physics"
)

// Ball is a point constraint. In the plane it is a free revolute joint.
// Axis, angle, velocity and force calls are accepted and answer zero.
type Ball struct {
	jointBase
}

func newBall(e *Engine) *Ball {
	return &Ball{jointBase: newJointBase(e, physics.KindBall)}
}

func (b *Ball) AxisCount() int { return 0 }

func (b *Ball) Load(n *yaml.Node) error {
	_, err := b.load(n)
	return err
}

func (b *Ball) Save(w io.Writer) error {
	c := b.cfg
	c.Axis, c.LowStop, c.HighStop = nil, nil, nil
	return b.save(w, c)
}

func (b *Ball) Attach(body1, body2 physics.Body) error {
	return b.attach(body1, body2, nil)
}

func (b *Ball) Axis(int) (mgl64.Vec3, error)     { return mgl64.Vec3{}, nil }
func (b *Ball) SetAxis(int, mgl64.Vec3) error    { return nil }
func (b *Ball) Angle(int) (float64, error)       { return 0, nil }
func (b *Ball) Velocity(int) (float64, error)    { return 0, nil }
func (b *Ball) SetVelocity(int, float64) error   { return nil }
func (b *Ball) MaxForce(int) (float64, error)    { return 0, nil }
func (b *Ball) SetMaxForce(int, float64) error   { return nil }
func (b *Ball) SetForce(int, float64) error      { return nil }
func (b *Ball) MotorTorque(int) (float64, error) { return 0, nil }

func (b *Ball) Param(key string) (float64, error) { return b.param(key) }

func (b *Ball) SetParam(key string, v float64) error { return b.setParam(key, v) }

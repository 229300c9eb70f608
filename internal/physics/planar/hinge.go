package planar

import (
	"fmt"
	"io"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/physics"
)

const axisTolerance = 1e-9

// Hinge is a single-axis revolute joint driven by a motor. The motor is
// always enabled; with the default zero max force it resists nothing.
type Hinge struct {
	jointBase
	sign     float64 // +1 for axis +z, -1 for -z
	loStop   float64
	hiStop   float64
	velocity float64
	maxForce float64
}

func newHinge(e *Engine) *Hinge {
	return &Hinge{
		jointBase: newJointBase(e, physics.KindHinge),
		sign:      1,
		loStop:    math.Inf(-1),
		hiStop:    math.Inf(1),
	}
}

func (h *Hinge) AxisCount() int { return 1 }

func (h *Hinge) Load(n *yaml.Node) error {
	c, err := h.load(n)
	if err != nil {
		return err
	}
	if c.Axis != nil {
		if err := h.SetAxis(0, c.Axis.Mgl()); err != nil {
			return &config.FieldError{Field: "joint.axis", Reason: "unusable axis", Err: err}
		}
	}
	if c.LowStop != nil {
		h.loStop = config.Rad(*c.LowStop)
	}
	if c.HighStop != nil {
		h.hiStop = config.Rad(*c.HighStop)
	}
	h.applyLimits()
	return nil
}

func (h *Hinge) Save(w io.Writer) error {
	c := h.cfg
	axis := config.Vec3{0, 0, h.sign}
	c.Axis = &axis
	c.LowStop, c.HighStop = nil, nil
	if !math.IsInf(h.loStop, 0) {
		lo := config.Deg(h.loStop)
		c.LowStop = &lo
	}
	if !math.IsInf(h.hiStop, 0) {
		hi := config.Deg(h.hiStop)
		c.HighStop = &hi
	}
	return h.save(w, c)
}

func (h *Hinge) Attach(body1, body2 physics.Body) error {
	if err := h.attach(body1, body2, func(def *box2d.B2RevoluteJointDef) {
		def.EnableMotor = true
		def.MotorSpeed = h.sign * h.velocity
		def.MaxMotorTorque = h.maxForce
	}); err != nil {
		return err
	}
	h.applyLimits()
	return nil
}

// applyLimits pushes the stops to box2d, whose angle runs about +z.
func (h *Hinge) applyLimits() {
	if h.joint == nil {
		return
	}
	lo, hi := h.loStop, h.hiStop
	if h.sign < 0 {
		lo, hi = -hi, -lo
	}
	h.joint.SetLimits(lo, hi)
	h.joint.EnableLimit(!math.IsInf(lo, -1) || !math.IsInf(hi, 1))
}

func (h *Hinge) check(index int) error {
	if err := physics.CheckAxis(h.Name(), index, 1); err != nil {
		return err
	}
	return h.alive()
}

func (h *Hinge) Axis(index int) (mgl64.Vec3, error) {
	if err := h.check(index); err != nil {
		return mgl64.Vec3{}, err
	}
	return mgl64.Vec3{0, 0, h.sign}, nil
}

func (h *Hinge) SetAxis(index int, dir mgl64.Vec3) error {
	if err := h.check(index); err != nil {
		return err
	}
	if dir.Len() == 0 {
		return fmt.Errorf("%w: zero axis on joint %s", physics.ErrInvalidValue, h.Name())
	}
	n := dir.Normalize()
	if math.Abs(n[0]) > axisTolerance || math.Abs(n[1]) > axisTolerance {
		return fmt.Errorf("%w: joint %s axis %v", physics.ErrUnsupportedAxis, h.Name(), n)
	}
	sign := math.Copysign(1, n[2])
	if sign == h.sign {
		return nil
	}
	h.sign = sign
	if h.joint != nil {
		h.joint.SetMotorSpeed(h.sign * h.velocity)
	}
	h.applyLimits()
	return nil
}

func (h *Hinge) Angle(index int) (float64, error) {
	if err := h.check(index); err != nil {
		return 0, err
	}
	if h.joint == nil {
		return 0, nil
	}
	return h.sign * h.joint.GetJointAngle(), nil
}

func (h *Hinge) Velocity(index int) (float64, error) {
	if err := h.check(index); err != nil {
		return 0, err
	}
	if h.joint == nil {
		return 0, nil
	}
	return h.sign * h.joint.GetJointSpeed(), nil
}

func (h *Hinge) SetVelocity(index int, v float64) error {
	if err := h.check(index); err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &physics.ParamError{Joint: h.Name(), Key: physics.ParamVelocity, Wrapped: physics.ErrInvalidValue}
	}
	h.velocity = v
	if h.joint != nil {
		h.joint.SetMotorSpeed(h.sign * v)
	}
	return nil
}

func (h *Hinge) MaxForce(index int) (float64, error) {
	if err := h.check(index); err != nil {
		return 0, err
	}
	return h.maxForce, nil
}

func (h *Hinge) SetMaxForce(index int, f float64) error {
	if err := h.check(index); err != nil {
		return err
	}
	if f < 0 || math.IsNaN(f) {
		return &physics.ParamError{Joint: h.Name(), Key: physics.ParamFMax, Wrapped: physics.ErrInvalidValue}
	}
	h.maxForce = f
	if h.joint != nil {
		h.joint.SetMaxMotorTorque(f)
	}
	return nil
}

// SetForce applies equal and opposite torques to the two bodies. box2d
// clears applied torques after every step.
func (h *Hinge) SetForce(index int, torque float64) error {
	if err := h.check(index); err != nil {
		return err
	}
	if h.joint == nil {
		return fmt.Errorf("%w: %s", physics.ErrNotAttached, h.Name())
	}
	t := h.sign * torque
	h.bodyB().ApplyTorque(t, true)
	h.bodyA().ApplyTorque(-t, true)
	return nil
}

func (h *Hinge) MotorTorque(index int) (float64, error) {
	if err := h.check(index); err != nil {
		return 0, err
	}
	if h.joint == nil || h.engine.lastDt == 0 {
		return 0, nil
	}
	return h.sign * h.joint.GetMotorTorque(1/h.engine.lastDt), nil
}

func (h *Hinge) Param(key string) (float64, error) {
	switch key {
	case physics.ParamLoStop:
		return h.loStop, nil
	case physics.ParamHiStop:
		return h.hiStop, nil
	case physics.ParamVelocity:
		return h.velocity, nil
	case physics.ParamFMax:
		return h.maxForce, nil
	}
	return h.param(key)
}

func (h *Hinge) SetParam(key string, v float64) error {
	switch key {
	case physics.ParamLoStop, physics.ParamHiStop:
		lo, hi := h.loStop, h.hiStop
		if key == physics.ParamLoStop {
			lo = v
		} else {
			hi = v
		}
		if math.IsNaN(v) || lo > hi {
			return &physics.ParamError{Joint: h.Name(), Key: key, Wrapped: physics.ErrInvalidValue}
		}
		h.loStop, h.hiStop = lo, hi
		h.applyLimits()
		return nil
	case physics.ParamVelocity:
		return h.SetVelocity(0, v)
	case physics.ParamFMax:
		return h.SetMaxForce(0, v)
	}
	return h.setParam(key, v)
}

// Package planar is a physics engine built on box2d. It simulates the XY
// plane: bodies keep their z offset, gravity uses its x and y components,
// and hinge axes must be parallel to z.
package planar

import (
	"fmt"
	"time"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/physics"
)

const Name = "planar"

func init() {
	physics.Register(Name, func() physics.Engine { return New() })
}

type Engine struct {
	cfg    config.Physics
	world  *box2d.B2World
	ground *box2d.B2Body

	// gen changes on every Init so objects from an earlier world report ErrClosed.
	gen    int
	steps  uint64
	lastDt float64
}

func New() *Engine {
	return &Engine{cfg: config.DefaultWorld().Physics}
}

func (e *Engine) Name() string { return Name }

func (e *Engine) Load(cfg config.Physics) error {
	if cfg.VelocityIterations <= 0 || cfg.PositionIterations <= 0 {
		return fmt.Errorf("planar: solver iterations must be positive, got %d/%d",
			cfg.VelocityIterations, cfg.PositionIterations)
	}
	e.cfg = cfg
	return nil
}

func (e *Engine) Init() error {
	if e.world != nil {
		return fmt.Errorf("%w: planar engine initialized twice", physics.ErrContractViolation)
	}
	w := box2d.MakeB2World(vec2(e.cfg.Gravity.Mgl()))
	e.world = &w
	gd := box2d.MakeB2BodyDef()
	e.ground = e.world.CreateBody(&gd)
	e.gen++
	e.steps = 0
	e.lastDt = 0
	return nil
}

// Steps is the number of completed world steps since Init.
func (e *Engine) Steps() uint64 { return e.steps }

func (e *Engine) Config() config.Physics { return e.cfg }

func (e *Engine) check(gen int) error {
	if e.world == nil || gen != e.gen {
		return physics.ErrClosed
	}
	return nil
}

func (e *Engine) CreateBody(cfg config.Body, origin mgl64.Vec3, static bool) (physics.Body, error) {
	if e.world == nil {
		return nil, physics.ErrClosed
	}
	pos := origin.Add(cfg.XYZ.Mgl())
	bd := box2d.MakeB2BodyDef()
	bd.Position = vec2(pos)
	bd.Angle = cfg.RPY[2]
	static = static || cfg.Static
	if !static {
		bd.Type = box2d.B2BodyType.B2_dynamicBody
	}
	return &Body{
		engine: e,
		gen:    e.gen,
		name:   cfg.Name,
		b:      e.world.CreateBody(&bd),
		z:      pos[2],
		static: static,
	}, nil
}

func (e *Engine) CreateShape(kind physics.ShapeKind, parent physics.Body) (physics.Shape, error) {
	var pb *Body
	if parent != nil {
		b, ok := parent.(*Body)
		if !ok {
			return nil, fmt.Errorf("planar: parent %s is not a planar body", parent.Name())
		}
		pb = b
	}
	switch kind {
	case physics.KindBox:
		return newBox(pb), nil
	default:
		return nil, fmt.Errorf("%w: shape %q", physics.ErrUnknownKind, kind)
	}
}

func (e *Engine) CreateJoint(kind physics.JointKind) (physics.Joint, error) {
	if e.world == nil {
		return nil, physics.ErrClosed
	}
	switch kind {
	case physics.KindHinge:
		return newHinge(e), nil
	case physics.KindBall:
		return newBall(e), nil
	default:
		return nil, fmt.Errorf("%w: joint %q", physics.ErrUnknownKind, kind)
	}
}

func (e *Engine) Step(dt time.Duration) error {
	if e.world == nil {
		return physics.ErrClosed
	}
	s := dt.Seconds()
	if s <= 0 {
		return fmt.Errorf("planar: step must be positive, got %v", dt)
	}
	e.world.Step(s, e.cfg.VelocityIterations, e.cfg.PositionIterations)
	e.steps++
	e.lastDt = s
	return nil
}

func (e *Engine) Close() error {
	if e.world == nil {
		return nil
	}
	e.world.Destroy()
	e.world = nil
	e.ground = nil
	return nil
}

// addJoint links a revolute joint into the world the same way
// B2World.CreateJoint does. CreateJoint takes the base definition only, so
// a revolute definition cannot be passed through it.
func (e *Engine) addJoint(def *box2d.B2RevoluteJointDef) *box2d.B2RevoluteJoint {
	j := box2d.B2JointCreate(def).(*box2d.B2RevoluteJoint)
	w := e.world

	j.SetPrev(nil)
	j.SetNext(w.M_jointList)
	if w.M_jointList != nil {
		w.M_jointList.SetPrev(j)
	}
	w.M_jointList = j
	w.M_jointCount++

	link := func(edge *box2d.B2JointEdge, body, other *box2d.B2Body) {
		edge.Joint = j
		edge.Other = other
		edge.Prev = nil
		edge.Next = body.M_jointList
		if body.M_jointList != nil {
			body.M_jointList.Prev = edge
		}
		body.M_jointList = edge
	}
	link(j.GetEdgeA(), j.GetBodyA(), j.GetBodyB())
	link(j.GetEdgeB(), j.GetBodyB(), j.GetBodyA())
	return j
}

func vec2(v mgl64.Vec3) box2d.B2Vec2 { return box2d.MakeB2Vec2(v[0], v[1]) }

func vec3(v box2d.B2Vec2, z float64) mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, z} }

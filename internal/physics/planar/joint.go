package planar

import (
	"fmt"
	"io"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/physics"
)

// jointBase holds what hinge and ball joints share: the attached bodies, the
// revolute constraint, the anchor and the erp/cfm pair. Both joints are
// revolute joints in box2d; a ball joint simply runs without motor or limits.
type jointBase struct {
	engine *Engine
	gen    int
	kind   physics.JointKind
	cfg    config.Joint

	body1, body2 *Body
	joint        *box2d.B2RevoluteJoint

	anchor     mgl64.Vec3
	anchorSet  bool
	anchorStep uint64

	erp, cfm float64
}

func newJointBase(e *Engine, kind physics.JointKind) jointBase {
	return jointBase{
		engine: e,
		gen:    e.gen,
		kind:   kind,
		cfg:    config.Joint{Type: string(kind)},
		erp:    e.cfg.ERP,
		cfm:    e.cfg.CFM,
	}
}

func (j *jointBase) Name() string { return j.cfg.Name }

func (j *jointBase) Kind() physics.JointKind { return j.kind }

func (j *jointBase) alive() error { return j.engine.check(j.gen) }

func (j *jointBase) load(n *yaml.Node) (config.Joint, error) {
	c, err := config.DecodeJoint(n, "joint")
	if err != nil {
		return c, err
	}
	if c.Type != string(j.kind) {
		return c, &config.FieldError{
			Field:  "joint.type",
			Reason: fmt.Sprintf("%s joint cannot load %q", j.kind, c.Type),
		}
	}
	j.cfg = c
	if c.ERP != nil {
		j.erp = *c.ERP
	}
	if c.CFM != nil {
		j.cfm = *c.CFM
	}
	return c, nil
}

func (j *jointBase) save(w io.Writer, c config.Joint) error {
	erp, cfm := j.erp, j.cfm
	c.ERP, c.CFM = &erp, &cfm
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

func toBody(b physics.Body) (*Body, error) {
	if b == nil {
		return nil, nil
	}
	pb, ok := b.(*Body)
	if !ok {
		return nil, fmt.Errorf("planar: body %s is not a planar body", b.Name())
	}
	return pb, nil
}

// attach creates the revolute constraint. body2 is box2d's body A, so the
// joint angle is the rotation of body1 relative to body2.
func (j *jointBase) attach(b1, b2 physics.Body, configure func(*box2d.B2RevoluteJointDef)) error {
	if err := j.alive(); err != nil {
		return err
	}
	p1, err := toBody(b1)
	if err != nil {
		return err
	}
	p2, err := toBody(b2)
	if err != nil {
		return err
	}
	if p1 == nil && p2 == nil {
		return fmt.Errorf("planar: joint %s: both bodies are the world", j.Name())
	}
	if p1 == p2 {
		return fmt.Errorf("planar: joint %s: cannot join body %s to itself", j.Name(), p1.Name())
	}
	j.Detach()

	j.body1, j.body2 = p1, p2
	if !j.anchorSet {
		if p1 != nil {
			j.anchor = p1.Position()
		} else {
			j.anchor = p2.Position()
		}
	}

	def := box2d.MakeB2RevoluteJointDef()
	def.Initialize(j.bodyA(), j.bodyB(), vec2(j.anchor))
	if configure != nil {
		configure(&def)
	}
	j.joint = j.engine.addJoint(&def)
	return nil
}

func (j *jointBase) bodyA() *box2d.B2Body {
	if j.body2 == nil {
		return j.engine.ground
	}
	return j.body2.b
}

func (j *jointBase) bodyB() *box2d.B2Body {
	if j.body1 == nil {
		return j.engine.ground
	}
	return j.body1.b
}

func (j *jointBase) Detach() {
	if j.joint != nil && j.alive() == nil {
		j.engine.world.DestroyJoint(j.joint)
	}
	j.joint = nil
	j.body1, j.body2 = nil, nil
}

func (j *jointBase) Body1() physics.Body {
	if j.body1 == nil {
		return nil
	}
	return j.body1
}

func (j *jointBase) Body2() physics.Body {
	if j.body2 == nil {
		return nil
	}
	return j.body2
}

// Anchor returns the set point until the next step, then the point the
// solver holds body1 at.
func (j *jointBase) Anchor(index int) (mgl64.Vec3, error) {
	if err := physics.CheckAxis(j.Name(), index, 1); err != nil {
		return mgl64.Vec3{}, err
	}
	if err := j.alive(); err != nil {
		return mgl64.Vec3{}, err
	}
	if j.joint == nil || (j.anchorSet && j.anchorStep == j.engine.steps) {
		return j.anchor, nil
	}
	return vec3(j.joint.GetAnchorB(), j.anchor[2]), nil
}

func (j *jointBase) SetAnchor(index int, p mgl64.Vec3) error {
	if err := physics.CheckAxis(j.Name(), index, 1); err != nil {
		return err
	}
	if err := j.alive(); err != nil {
		return err
	}
	j.anchor = p
	j.anchorSet = true
	j.anchorStep = j.engine.steps
	if j.joint != nil {
		a, b := j.bodyA(), j.bodyB()
		j.joint.M_localAnchorA = a.GetLocalPoint(vec2(p))
		j.joint.M_localAnchorB = b.GetLocalPoint(vec2(p))
		a.SetAwake(true)
		b.SetAwake(true)
	}
	return nil
}

func (j *jointBase) param(key string) (float64, error) {
	switch key {
	case physics.ParamERP:
		return j.erp, nil
	case physics.ParamCFM:
		return j.cfm, nil
	}
	return 0, physics.UnsupportedParam(j.Name(), key)
}

func (j *jointBase) setParam(key string, v float64) error {
	if v < 0 {
		return &physics.ParamError{Joint: j.Name(), Key: key, Wrapped: physics.ErrInvalidValue}
	}
	switch key {
	case physics.ParamERP:
		j.erp = v
	case physics.ParamCFM:
		j.cfm = v
	default:
		return physics.UnsupportedParam(j.Name(), key)
	}
	return nil
}

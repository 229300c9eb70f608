package scene

import (
	"bytes"
	"fmt"
	"io"

	"github.com/rs/xid"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/physics"
)

// Build creates every model, body, geom and joint of w in engine. The
// engine must already be initialized.
func Build(w *config.World, engine physics.Engine) (*Graph, error) {
	g := New()
	for mi := range w.Models {
		if err := g.buildModel(&w.Models[mi], fmt.Sprintf("models[%d]", mi), engine); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Graph) buildModel(m *config.Model, field string, engine physics.Engine) error {
	model := g.Add(m.Name, KindModel, xid.NilID(), nil)
	model.Static = m.Static
	model.Origin = m.XYZ.Mgl()

	bodies := make(map[string]physics.Body)
	for bi, bc := range m.Bodies {
		bf := fmt.Sprintf("%s.bodies[%d]", field, bi)
		body, err := engine.CreateBody(bc, model.Origin, m.Static)
		if err != nil {
			return fmt.Errorf("%s: %w", bf, err)
		}
		be := g.Add(bc.Name, KindBody, model.ID, body)
		be.Static = body.Static()
		bodies[bc.Name] = body

		for gi := range bc.Geoms {
			gf := fmt.Sprintf("%s.geoms[%d]", bf, gi)
			h, err := config.DecodeHeader(&bc.Geoms[gi])
			if err != nil {
				return &config.FieldError{Field: gf, Reason: "malformed geom", Err: err}
			}
			shape, err := engine.CreateShape(physics.ShapeKind(h.Type), body)
			if err != nil {
				return &config.FieldError{Field: gf + ".type", Reason: "no such geom", Err: err}
			}
			if err := shape.Load(&bc.Geoms[gi]); err != nil {
				return fmt.Errorf("%s: %w", gf, err)
			}
			g.Add(h.Name, KindGeom, be.ID, shape)
		}
	}

	for ji := range m.Joints {
		jf := fmt.Sprintf("%s.joints[%d]", field, ji)
		if err := g.buildJoint(&m.Joints[ji], jf, model, bodies, engine); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) buildJoint(n *yaml.Node, field string, model *Entity, bodies map[string]physics.Body, engine physics.Engine) error {
	jc, err := config.DecodeJoint(n, field)
	if err != nil {
		return err
	}
	joint, err := engine.CreateJoint(physics.JointKind(jc.Type))
	if err != nil {
		return &config.FieldError{Field: field + ".type", Reason: "no such joint", Err: err}
	}
	if err := joint.Load(n); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}

	resolve := func(ref, name string) (physics.Body, error) {
		if name == "" || name == config.WorldBody {
			return nil, nil
		}
		b, ok := bodies[name]
		if !ok {
			return nil, &config.FieldError{Field: field + "." + ref, Reason: fmt.Sprintf("unknown body %q", name)}
		}
		return b, nil
	}
	b1, err := resolve("body1", jc.Body1)
	if err != nil {
		return err
	}
	b2, err := resolve("body2", jc.Body2)
	if err != nil {
		return err
	}
	ab, err := resolve("anchor", jc.AnchorBody())
	if err != nil {
		return err
	}

	anchor := model.Origin
	if ab != nil {
		anchor = ab.Position()
	}
	if jc.AnchorOffset != nil {
		anchor = anchor.Add(jc.AnchorOffset.Mgl())
	}
	if err := joint.SetAnchor(0, anchor); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if err := joint.Attach(b1, b2); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	g.Add(jc.Name, KindJoint, model.ID, joint)
	return nil
}

// Snapshot rebuilds the models of base from the live scene: body poses are
// read back from the engine and geoms and joints are re-encoded by their
// backends.
func (g *Graph) Snapshot(base *config.World) (*config.World, error) {
	w := *base
	w.Models = nil
	for _, me := range g.OfKind(KindModel) {
		m := config.Model{Name: me.Name, Static: me.Static, XYZ: config.Vec3(me.Origin)}
		for _, be := range g.children(me, KindBody) {
			body := be.Object.(physics.Body)
			bc := config.Body{
				Name:   be.Name,
				XYZ:    config.Vec3(body.Position().Sub(me.Origin)),
				RPY:    config.Vec3(body.RPY()),
				Static: be.Static && !me.Static,
			}
			for _, ge := range g.children(be, KindGeom) {
				n, err := encode(ge.Object.(physics.Shape).Save)
				if err != nil {
					return nil, fmt.Errorf("geom %s: %w", g.ScopedName(ge.ID), err)
				}
				bc.Geoms = append(bc.Geoms, n)
			}
			m.Bodies = append(m.Bodies, bc)
		}
		for _, je := range g.children(me, KindJoint) {
			n, err := g.snapshotJoint(me, je)
			if err != nil {
				return nil, fmt.Errorf("joint %s: %w", g.ScopedName(je.ID), err)
			}
			m.Joints = append(m.Joints, n)
		}
		w.Models = append(w.Models, m)
	}
	return &w, nil
}

// snapshotJoint encodes a joint with its live anchor written as an offset
// from the anchor body, or from the model origin for the world.
func (g *Graph) snapshotJoint(model, je *Entity) (yaml.Node, error) {
	joint := je.Object.(physics.Joint)
	n, err := encode(joint.Save)
	if err != nil {
		return n, err
	}
	var jc config.Joint
	if err := n.Decode(&jc); err != nil {
		return n, err
	}
	anchor, err := joint.Anchor(0)
	if err != nil {
		return n, err
	}
	ref := model.Origin
	for _, be := range g.children(model, KindBody) {
		if be.Name == jc.AnchorBody() {
			ref = be.Object.(physics.Body).Position()
			break
		}
	}
	offset := config.Vec3(anchor.Sub(ref))
	jc.AnchorOffset = &offset

	var out yaml.Node
	if err := out.Encode(jc); err != nil {
		return n, err
	}
	return out, nil
}

func encode(save func(io.Writer) error) (yaml.Node, error) {
	var buf bytes.Buffer
	if err := save(&buf); err != nil {
		return yaml.Node{}, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		return yaml.Node{}, err
	}
	if len(doc.Content) == 0 {
		return yaml.Node{}, fmt.Errorf("scene: empty encoding")
	}
	return *doc.Content[0], nil
}

// Bodies returns the backend bodies in insertion order.
func (g *Graph) Bodies() []physics.Body {
	var out []physics.Body
	for _, e := range g.OfKind(KindBody) {
		out = append(out, e.Object.(physics.Body))
	}
	return out
}

// Detach releases every joint before the engine world is torn down.
func (g *Graph) Detach() {
	for _, e := range g.OfKind(KindJoint) {
		e.Object.(physics.Joint).Detach()
	}
}

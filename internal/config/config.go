package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEngine             = "planar"
	DefaultStepTime           = 0.01
	DefaultERP                = 0.4
	DefaultCFM                = 0.8
	DefaultVelocityIterations = 8
	DefaultPositionIterations = 3
	DefaultDensity            = 1.0
	WorldBody                 = "world"
)

// DefaultGravity points down the y axis, the vertical of the planar engine.
var DefaultGravity = Vec3{0, -9.8, 0}

type World struct {
	Name    string  `yaml:"name"`
	Paused  bool    `yaml:"paused,omitempty"`
	Physics Physics `yaml:"physics"`
	Models  []Model `yaml:"models"`
}

type Physics struct {
	Engine             string  `yaml:"engine"`
	StepTime           float64 `yaml:"step_time"`
	UpdateRate         int     `yaml:"update_rate,omitempty"`
	Gravity            Vec3    `yaml:"gravity"`
	ERP                float64 `yaml:"erp"`
	CFM                float64 `yaml:"cfm"`
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations"`
}

type Model struct {
	Name   string      `yaml:"name"`
	Static bool        `yaml:"static,omitempty"`
	XYZ    Vec3        `yaml:"xyz"`
	Bodies []Body      `yaml:"bodies"`
	Joints []yaml.Node `yaml:"joints,omitempty"`
}

type Body struct {
	Name   string      `yaml:"name"`
	XYZ    Vec3        `yaml:"xyz"`
	RPY    Vec3        `yaml:"rpy"`
	Static bool        `yaml:"static,omitempty"`
	Geoms  []yaml.Node `yaml:"geoms,omitempty"`
}

// Header is the part of a geom or joint node shared by every kind.
type Header struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type Geom struct {
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
	Size    *Vec3   `yaml:"size,omitempty"`
	Density float64 `yaml:"density,omitempty"`
}

// Joint stops are in degrees. Nil pointers mean "use the default".
type Joint struct {
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	Body1        string   `yaml:"body1,omitempty"`
	Body2        string   `yaml:"body2,omitempty"`
	Anchor       string   `yaml:"anchor,omitempty"`
	AnchorOffset *Vec3    `yaml:"anchor_offset,omitempty"`
	Axis         *Vec3    `yaml:"axis,omitempty"`
	LowStop      *float64 `yaml:"low_stop,omitempty"`
	HighStop     *float64 `yaml:"high_stop,omitempty"`
	ERP          *float64 `yaml:"erp,omitempty"`
	CFM          *float64 `yaml:"cfm,omitempty"`
}

func (p Physics) StepDuration() time.Duration {
	return time.Duration(math.Round(p.StepTime * float64(time.Second)))
}

func DefaultWorld() *World {
	return &World{
		Name: "default",
		Physics: Physics{
			Engine:             DefaultEngine,
			StepTime:           DefaultStepTime,
			Gravity:            DefaultGravity,
			ERP:                DefaultERP,
			CFM:                DefaultCFM,
			VelocityIterations: DefaultVelocityIterations,
			PositionIterations: DefaultPositionIterations,
		},
	}
}

func Load(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Parse decodes a world over DefaultWorld and validates it.
func Parse(data []byte) (*World, error) {
	w := DefaultWorld()
	if err := yaml.Unmarshal(data, w); err != nil {
		return nil, &FieldError{Field: "world", Reason: "malformed yaml", Err: err}
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func Save(path string, w *World) error {
	data, err := Marshal(w)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func Marshal(w *World) ([]byte, error) {
	return yaml.Marshal(w)
}

func DecodeHeader(n *yaml.Node) (Header, error) {
	var h Header
	if err := n.Decode(&h); err != nil {
		return h, err
	}
	return h, nil
}

// DecodeGeom decodes and validates a geom node. The density defaults to
// DefaultDensity and an absent size stays nil.
func DecodeGeom(n *yaml.Node, field string) (Geom, error) {
	var g Geom
	if err := n.Decode(&g); err != nil {
		return g, &FieldError{Field: field, Reason: "malformed geom", Err: err}
	}
	if g.Density == 0 {
		g.Density = DefaultDensity
	}
	return g, g.validate(field)
}

func (g Geom) validate(field string) error {
	if g.Type == "" {
		return fieldErr(field+".type", "required")
	}
	if g.Density < 0 {
		return fieldErr(field+".density", "must be positive, got %g", g.Density)
	}
	if g.Size != nil {
		if err := ValidateSize(*g.Size, field+".size"); err != nil {
			return err
		}
	}
	return nil
}

func ValidateSize(size Vec3, field string) error {
	for i, s := range size {
		if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fieldErr(field, "component %d must be a finite non-negative length, got %g", i, s)
		}
	}
	return nil
}

func DecodeJoint(n *yaml.Node, field string) (Joint, error) {
	var j Joint
	if err := n.Decode(&j); err != nil {
		return j, &FieldError{Field: field, Reason: "malformed joint", Err: err}
	}
	return j, j.validate(field)
}

func (j Joint) validate(field string) error {
	if j.Name == "" {
		return fieldErr(field+".name", "required")
	}
	if j.Type == "" {
		return fieldErr(field+".type", "required")
	}
	if j.Body1 == "" && j.Body2 == "" {
		return fieldErr(field, "at least one of body1 and body2 is required")
	}
	if j.Axis != nil && j.Axis.Mgl().Len() == 0 {
		return fieldErr(field+".axis", "must be non-zero")
	}
	for _, stop := range []struct {
		key string
		v   *float64
	}{{"low_stop", j.LowStop}, {"high_stop", j.HighStop}} {
		if stop.v != nil && math.IsNaN(*stop.v) {
			return fieldErr(field+"."+stop.key, "must be a number")
		}
	}
	if j.LowStop != nil && j.HighStop != nil && *j.LowStop > *j.HighStop {
		return fieldErr(field, "low_stop %g exceeds high_stop %g", *j.LowStop, *j.HighStop)
	}
	return nil
}

// AnchorBody is the body the anchor offset is measured from.
func (j Joint) AnchorBody() string {
	switch {
	case j.Anchor != "":
		return j.Anchor
	case j.Body1 != "":
		return j.Body1
	default:
		return j.Body2
	}
}

func (w *World) Validate() error {
	p := w.Physics
	if p.Engine == "" {
		return fieldErr("physics.engine", "required")
	}
	if math.IsNaN(p.StepTime) || math.IsInf(p.StepTime, 0) || p.StepDuration() <= 0 {
		return fieldErr("physics.step_time", "must be at least 1ns, got %g", p.StepTime)
	}
	if p.UpdateRate < 0 {
		return fieldErr("physics.update_rate", "must not be negative, got %d", p.UpdateRate)
	}
	if p.VelocityIterations <= 0 || p.PositionIterations <= 0 {
		return fieldErr("physics", "solver iterations must be positive")
	}

	models := make(map[string]bool)
	for mi, m := range w.Models {
		mf := fmt.Sprintf("models[%d]", mi)
		if m.Name == "" {
			return fieldErr(mf+".name", "required")
		}
		if models[m.Name] {
			return fieldErr(mf+".name", "duplicate model %q", m.Name)
		}
		models[m.Name] = true

		bodies := make(map[string]bool)
		for bi, b := range m.Bodies {
			bf := fmt.Sprintf("%s.bodies[%d]", mf, bi)
			if b.Name == "" {
				return fieldErr(bf+".name", "required")
			}
			if b.Name == WorldBody || bodies[b.Name] {
				return fieldErr(bf+".name", "duplicate or reserved body name %q", b.Name)
			}
			bodies[b.Name] = true
			for gi := range b.Geoms {
				if _, err := DecodeGeom(&b.Geoms[gi], fmt.Sprintf("%s.geoms[%d]", bf, gi)); err != nil {
					return err
				}
			}
		}

		for ji := range m.Joints {
			jf := fmt.Sprintf("%s.joints[%d]", mf, ji)
			j, err := DecodeJoint(&m.Joints[ji], jf)
			if err != nil {
				return err
			}
			for _, ref := range []struct{ field, name string }{
				{"body1", j.Body1}, {"body2", j.Body2}, {"anchor", j.Anchor},
			} {
				if ref.name != "" && ref.name != WorldBody && !bodies[ref.name] {
					return fieldErr(jf+"."+ref.field, "unknown body %q", ref.name)
				}
			}
		}
	}
	return nil
}

// Rad converts a stop in degrees to radians.
func Rad(deg float64) float64 { return deg * math.Pi / 180 }

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

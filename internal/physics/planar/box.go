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

// Box is a box geom. Its x and y extents become a polygon fixture on the
// parent body; z is kept only as a parameter. A box with a zero x or y
// extent has no fixture.
type Box struct {
	parent  *Body
	name    string
	size    mgl64.Vec3
	density float64
	fixture *box2d.B2Fixture
}

func newBox(parent *Body) *Box {
	return &Box{parent: parent, density: config.DefaultDensity}
}

func (b *Box) Kind() physics.ShapeKind { return physics.KindBox }

func (b *Box) Name() string { return b.name }

func (b *Box) Size() mgl64.Vec3 { return b.size }

func (b *Box) Load(n *yaml.Node) error {
	g, err := config.DecodeGeom(n, "geom")
	if err != nil {
		return err
	}
	if g.Type != string(physics.KindBox) {
		return &config.FieldError{Field: "geom.type", Reason: fmt.Sprintf("box cannot load %q", g.Type)}
	}
	b.name = g.Name
	b.density = g.Density
	var size mgl64.Vec3
	if g.Size != nil {
		size = g.Size.Mgl()
	}
	return b.SetSize(size)
}

func (b *Box) Save(w io.Writer) error {
	size := config.Vec3(b.size)
	g := config.Geom{
		Name:    b.name,
		Type:    string(physics.KindBox),
		Size:    &size,
		Density: b.density,
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return err
	}
	return enc.Close()
}

func (b *Box) SetSize(size mgl64.Vec3) error {
	if err := config.ValidateSize(config.Vec3(size), "geom.size"); err != nil {
		return err
	}
	if b.parent != nil {
		if err := b.parent.alive(); err != nil {
			return err
		}
	}
	b.size = size
	b.rebuild()
	return nil
}

func (b *Box) rebuild() {
	if b.parent == nil {
		return
	}
	body := b.parent.b
	if b.fixture != nil {
		body.DestroyFixture(b.fixture)
		b.fixture = nil
	}
	if b.size[0] == 0 || b.size[1] == 0 {
		return
	}
	shape := box2d.MakeB2PolygonShape()
	shape.SetAsBox(b.size[0]/2, b.size[1]/2)
	b.fixture = body.CreateFixture(&shape, b.density)
}

package planar

import (
	"bytes"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/physics"
)

var _ = Describe("Box", func() {
	var box *Box

	BeforeEach(func() {
		box = newBox(nil)
	})

	It("should round trip its size through Save and Load", func() {
		Expect(box.SetSize(mgl64.Vec3{1, 2, 3})).To(Succeed())

		var buf bytes.Buffer
		Expect(box.Save(&buf)).To(Succeed())

		loaded := newBox(nil)
		Expect(loaded.Load(node(buf.String()))).To(Succeed())
		Expect(loaded.Size()).To(Equal(mgl64.Vec3{1, 2, 3}))
		Expect(loaded.Kind()).To(Equal(physics.KindBox))
	})

	It("should default a missing size to zero", func() {
		Expect(box.Load(node("{name: g, type: box}"))).To(Succeed())
		Expect(box.Size()).To(Equal(mgl64.Vec3{}))
		Expect(box.Name()).To(Equal("g"))
	})

	It("should accept the string vector form", func() {
		Expect(box.Load(node(`{name: g, type: box, size: "0.5 0.25 1"}`))).To(Succeed())
		Expect(box.Size()).To(Equal(mgl64.Vec3{0.5, 0.25, 1}))
	})

	It("should reject negative and malformed sizes", func() {
		Expect(box.Load(node("{name: g, type: box, size: [1, -2, 3]}"))).To(MatchError(config.ErrInvalid))
		Expect(box.Load(node("{name: g, type: box, size: [1, 2]}"))).To(MatchError(config.ErrInvalid))
		Expect(box.SetSize(mgl64.Vec3{-1, 0, 0})).To(MatchError(config.ErrInvalid))
	})

	It("should reject a geom of another type", func() {
		Expect(box.Load(node("{name: g, type: sphere}"))).To(MatchError(config.ErrInvalid))
	})

	It("should rebuild its fixture on the parent body", func() {
		e := newEngine(config.DefaultGravity)
		b, err := e.CreateBody(config.Body{Name: "b"}, mgl64.Vec3{}, false)
		Expect(err).NotTo(HaveOccurred())
		s, err := e.CreateShape(physics.KindBox, b)
		Expect(err).NotTo(HaveOccurred())
		shape := s.(*Box)
		raw := b.(*Body).b

		Expect(shape.SetSize(mgl64.Vec3{1, 1, 1})).To(Succeed())
		Expect(raw.GetFixtureList()).NotTo(BeNil())
		Expect(raw.GetMass()).To(BeNumerically("~", 1.0, 1e-9))

		Expect(shape.SetSize(mgl64.Vec3{2, 1, 1})).To(Succeed())
		Expect(raw.GetMass()).To(BeNumerically("~", 2.0, 1e-9))

		Expect(shape.SetSize(mgl64.Vec3{0, 1, 1})).To(Succeed())
		Expect(raw.GetFixtureList()).To(BeNil())
	})
})

package planar

import (
	"bytes"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/physics"
)

var _ = Describe("Ball", func() {
	var (
		e    *Engine
		ball *Ball
		link physics.Body
	)

	BeforeEach(func() {
		e = newEngine(config.DefaultGravity)
		link = boxBody(e, "link", config.Vec3{0.5, 0, 0})
		j, err := e.CreateJoint(physics.KindBall)
		Expect(err).NotTo(HaveOccurred())
		ball = j.(*Ball)
		Expect(ball.Load(node("{name: socket, type: ball, body1: link}"))).To(Succeed())
		Expect(ball.Attach(link, nil)).To(Succeed())
	})

	It("should return the anchor it was given before stepping", func() {
		Expect(ball.SetAnchor(0, mgl64.Vec3{0, 0, 1})).To(Succeed())
		p, err := ball.Anchor(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(mgl64.Vec3{0, 0, 1}))
	})

	It("should keep the anchor approximately after stepping", func() {
		Expect(ball.SetAnchor(0, mgl64.Vec3{0, 0, 1})).To(Succeed())
		for i := 0; i < 20; i++ {
			Expect(e.Step(testStep)).To(Succeed())
		}
		p, err := ball.Anchor(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(p[0]).To(BeNumerically("~", 0, 0.05))
		Expect(p[1]).To(BeNumerically("~", 0, 0.05))
		Expect(p[2]).To(Equal(1.0))
		Expect(link.Position()[1]).To(BeNumerically("<", 0))
	})

	It("should answer neutral values for axis operations", func() {
		for _, index := range []int{0, 1, 7} {
			axis, err := ball.Axis(index)
			Expect(err).NotTo(HaveOccurred())
			Expect(axis).To(Equal(mgl64.Vec3{}))

			Expect(ball.SetAxis(index, mgl64.Vec3{1, 0, 0})).To(Succeed())
			Expect(ball.SetVelocity(index, 3)).To(Succeed())
			Expect(ball.SetMaxForce(index, 3)).To(Succeed())
			Expect(ball.SetForce(index, 3)).To(Succeed())

			v, err := ball.Velocity(index)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeZero())
			f, err := ball.MaxForce(index)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(BeZero())
			a, err := ball.Angle(index)
			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(BeZero())
			t, err := ball.MotorTorque(index)
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(BeZero())
		}
		Expect(ball.AxisCount()).To(BeZero())
	})

	It("should only know erp and cfm", func() {
		erp, err := ball.Param(physics.ParamERP)
		Expect(err).NotTo(HaveOccurred())
		Expect(erp).To(Equal(0.4))
		_, err = ball.Param(physics.ParamFMax)
		Expect(err).To(MatchError(physics.ErrUnsupportedParameter))
		Expect(ball.SetParam(physics.ParamVelocity, 1)).To(MatchError(physics.ErrUnsupportedParameter))
	})

	It("should reject anchors on other indices", func() {
		_, err := ball.Anchor(1)
		Expect(err).To(MatchError(physics.ErrInvalidAxis))
	})

	It("should round trip without axis fields", func() {
		var buf bytes.Buffer
		Expect(ball.Save(&buf)).To(Succeed())
		Expect(buf.String()).NotTo(ContainSubstring("axis"))

		again := newBall(e)
		Expect(again.Load(node(buf.String()))).To(Succeed())
		Expect(again.Name()).To(Equal("socket"))
		Expect(again.Kind()).To(Equal(physics.KindBall))
	})
})

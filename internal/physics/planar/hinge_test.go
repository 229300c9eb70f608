package planar

import (
	"bytes"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/physics"
)

var _ = Describe("Hinge", func() {
	var (
		e     *Engine
		hinge *Hinge
		arm   physics.Body
	)

	steps := func(n int) {
		for i := 0; i < n; i++ {
			Expect(e.Step(testStep)).To(Succeed())
		}
	}

	BeforeEach(func() {
		e = newEngine(config.Vec3{})
		arm = boxBody(e, "arm", config.Vec3{0, 0, 0})
		j, err := e.CreateJoint(physics.KindHinge)
		Expect(err).NotTo(HaveOccurred())
		hinge = j.(*Hinge)
		Expect(hinge.Load(node("{name: pivot, type: hinge, body1: arm}"))).To(Succeed())
		Expect(hinge.Attach(arm, nil)).To(Succeed())
	})

	It("should use the documented defaults", func() {
		axis, err := hinge.Axis(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(axis).To(Equal(mgl64.Vec3{0, 0, 1}))

		erp, _ := hinge.Param(physics.ParamERP)
		cfm, _ := hinge.Param(physics.ParamCFM)
		lo, _ := hinge.Param(physics.ParamLoStop)
		hi, _ := hinge.Param(physics.ParamHiStop)
		Expect(erp).To(Equal(0.4))
		Expect(cfm).To(Equal(0.8))
		Expect(math.IsInf(lo, -1)).To(BeTrue())
		Expect(math.IsInf(hi, 1)).To(BeTrue())
		Expect(hinge.AxisCount()).To(Equal(1))
	})

	It("should fail every per-axis call on axis 1", func() {
		_, err := hinge.Anchor(1)
		Expect(err).To(MatchError(physics.ErrInvalidAxis))
		Expect(hinge.SetAnchor(1, mgl64.Vec3{})).To(MatchError(physics.ErrInvalidAxis))
		_, err = hinge.Axis(1)
		Expect(err).To(MatchError(physics.ErrInvalidAxis))
		Expect(hinge.SetAxis(1, mgl64.Vec3{0, 0, 1})).To(MatchError(physics.ErrInvalidAxis))
		_, err = hinge.Angle(1)
		Expect(err).To(MatchError(physics.ErrInvalidAxis))
		_, err = hinge.Velocity(-1)
		Expect(err).To(MatchError(physics.ErrInvalidAxis))
		Expect(hinge.SetVelocity(1, 1)).To(MatchError(physics.ErrInvalidAxis))
		_, err = hinge.MaxForce(1)
		Expect(err).To(MatchError(physics.ErrInvalidAxis))
		Expect(hinge.SetMaxForce(1, 1)).To(MatchError(physics.ErrInvalidAxis))
		Expect(hinge.SetForce(1, 1)).To(MatchError(physics.ErrInvalidAxis))
	})

	It("should apply no resisting torque when the max force is zero", func() {
		Expect(hinge.SetMaxForce(0, 0)).To(Succeed())
		Expect(hinge.SetVelocity(0, 5)).To(Succeed())
		steps(1)

		torque, err := hinge.MotorTorque(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(torque).To(Equal(0.0))
		v, _ := hinge.Velocity(0)
		Expect(v).To(BeNumerically("~", 0, 1e-12))
	})

	It("should drive towards the commanded velocity under a max force", func() {
		Expect(hinge.SetMaxForce(0, 10)).To(Succeed())
		Expect(hinge.SetVelocity(0, 5)).To(Succeed())
		steps(1)

		torque, _ := hinge.MotorTorque(0)
		Expect(torque).To(BeNumerically(">", 0))
		steps(100)
		v, _ := hinge.Velocity(0)
		Expect(v).To(BeNumerically("~", 5, 1e-6))
	})

	It("should track multi-turn rotation without wrapping", func() {
		Expect(hinge.SetMaxForce(0, 1000)).To(Succeed())
		Expect(hinge.SetVelocity(0, 2*math.Pi)).To(Succeed())
		steps(200)

		angle, err := hinge.Angle(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(angle).To(BeNumerically("~", 4*math.Pi, 0.2))
	})

	It("should report angles about a flipped axis with the opposite sign", func() {
		Expect(hinge.SetAxis(0, mgl64.Vec3{0, 0, -2})).To(Succeed())
		axis, _ := hinge.Axis(0)
		Expect(axis).To(Equal(mgl64.Vec3{0, 0, -1}))

		Expect(hinge.SetMaxForce(0, 1000)).To(Succeed())
		Expect(hinge.SetVelocity(0, 1)).To(Succeed())
		steps(50)

		angle, _ := hinge.Angle(0)
		Expect(angle).To(BeNumerically("~", 0.5, 0.05))
		Expect(arm.RPY()[2]).To(BeNumerically("~", -0.5, 0.05))
	})

	It("should reject axes outside the plane", func() {
		Expect(hinge.SetAxis(0, mgl64.Vec3{1, 0, 0})).To(MatchError(physics.ErrUnsupportedAxis))
		Expect(hinge.SetAxis(0, mgl64.Vec3{})).To(MatchError(physics.ErrInvalidValue))
	})

	It("should hold the high stop", func() {
		Expect(hinge.SetParam(physics.ParamHiStop, 0.5)).To(Succeed())
		Expect(hinge.SetMaxForce(0, 5)).To(Succeed())
		Expect(hinge.SetVelocity(0, 3)).To(Succeed())
		steps(200)

		angle, _ := hinge.Angle(0)
		Expect(angle).To(BeNumerically("<", 0.6))
		Expect(angle).To(BeNumerically(">", 0.4))
	})

	It("should apply SetForce for one step only", func() {
		Expect(hinge.SetForce(0, 2)).To(Succeed())
		steps(1)
		v1, _ := hinge.Velocity(0)
		Expect(v1).To(BeNumerically(">", 0))

		steps(10)
		v2, _ := hinge.Velocity(0)
		Expect(v2).To(BeNumerically("~", v1, 1e-9))
	})

	It("should validate params", func() {
		_, err := hinge.Param("bounce")
		Expect(err).To(MatchError(physics.ErrUnsupportedParameter))
		Expect(hinge.SetParam("bounce", 1)).To(MatchError(physics.ErrUnsupportedParameter))
		Expect(hinge.SetParam(physics.ParamLoStop, 1)).To(Succeed())
		Expect(hinge.SetParam(physics.ParamHiStop, 0.5)).To(MatchError(physics.ErrInvalidValue))
		Expect(hinge.SetMaxForce(0, -1)).To(MatchError(physics.ErrInvalidValue))

		Expect(hinge.SetParam(physics.ParamFMax, 3)).To(Succeed())
		f, _ := hinge.MaxForce(0)
		Expect(f).To(Equal(3.0))
		Expect(hinge.SetParam(physics.ParamERP, 0.2)).To(Succeed())
		erp, _ := hinge.Param(physics.ParamERP)
		Expect(erp).To(Equal(0.2))
	})

	It("should round trip its configuration", func() {
		h := newHinge(e)
		Expect(h.Load(node(`
name: knee
type: hinge
body1: arm
axis: "0 0 -1"
low_stop: -45
high_stop: 30
erp: 0.3
`))).To(Succeed())

		lo, _ := h.Param(physics.ParamLoStop)
		Expect(lo).To(BeNumerically("~", -math.Pi/4, 1e-12))

		var buf bytes.Buffer
		Expect(h.Save(&buf)).To(Succeed())
		again := newHinge(e)
		Expect(again.Load(node(buf.String()))).To(Succeed())

		Expect(again.Name()).To(Equal("knee"))
		axis, _ := again.Axis(0)
		Expect(axis).To(Equal(mgl64.Vec3{0, 0, -1}))
		hi, _ := again.Param(physics.ParamHiStop)
		Expect(hi).To(BeNumerically("~", math.Pi/6, 1e-12))
		erp, _ := again.Param(physics.ParamERP)
		Expect(erp).To(Equal(0.3))
		cfm, _ := again.Param(physics.ParamCFM)
		Expect(cfm).To(Equal(0.8))
	})

	It("should refuse a stop that is not a number", func() {
		h := newHinge(e)
		Expect(h.Load(node("{name: j, type: hinge, body1: arm, low_stop: .nan}"))).To(MatchError(config.ErrInvalid))
		Expect(h.Load(node("{name: j, type: hinge, body1: arm, high_stop: .nan}"))).To(MatchError(config.ErrInvalid))
	})

	It("should refuse velocities that are not finite", func() {
		Expect(hinge.SetVelocity(0, 2)).To(Succeed())
		Expect(hinge.SetVelocity(0, math.NaN())).To(MatchError(physics.ErrInvalidValue))
		Expect(hinge.SetVelocity(0, math.Inf(1))).To(MatchError(physics.ErrInvalidValue))
		Expect(hinge.SetParam(physics.ParamVelocity, math.Inf(-1))).To(MatchError(physics.ErrInvalidValue))
		v, _ := hinge.Param(physics.ParamVelocity)
		Expect(v).To(Equal(2.0))
	})

	It("should refuse a joint of the wrong type", func() {
		h := newHinge(e)
		Expect(h.Load(node("{name: j, type: ball, body1: arm}"))).To(MatchError(config.ErrInvalid))
	})

	It("should refuse to join a body to itself", func() {
		h := newHinge(e)
		Expect(h.Attach(arm, arm)).NotTo(Succeed())
		Expect(h.Attach(nil, nil)).NotTo(Succeed())
	})
})

package planar

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/physics"
)

var _ = Describe("Engine", func() {
	It("should register itself", func() {
		e, err := physics.Default.New(Name)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Name()).To(Equal(Name))
	})

	It("should reject a second Init", func() {
		e := newEngine(config.DefaultGravity)
		Expect(e.Init()).To(MatchError(physics.ErrContractViolation))
	})

	It("should refuse to step before Init and after Close", func() {
		e := New()
		Expect(e.Step(testStep)).To(MatchError(physics.ErrClosed))

		Expect(e.Init()).To(Succeed())
		Expect(e.Step(testStep)).To(Succeed())
		Expect(e.Steps()).To(Equal(uint64(1)))

		Expect(e.Close()).To(Succeed())
		Expect(e.Close()).To(Succeed())
		Expect(e.Step(testStep)).To(MatchError(physics.ErrClosed))
	})

	It("should reject unknown kinds", func() {
		e := newEngine(config.DefaultGravity)
		_, err := e.CreateShape("sphere", nil)
		Expect(err).To(MatchError(physics.ErrUnknownKind))
		_, err = e.CreateJoint("slider")
		Expect(err).To(MatchError(physics.ErrUnknownKind))
	})

	It("should drop dynamic bodies under gravity and hold static ones", func() {
		e := newEngine(config.DefaultGravity)
		falling := boxBody(e, "falling", config.Vec3{0, 10, 2})
		fixed, err := e.CreateBody(config.Body{Name: "fixed", XYZ: config.Vec3{5, 10, 0}}, [3]float64{}, true)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 50; i++ {
			Expect(e.Step(testStep)).To(Succeed())
		}

		Expect(falling.Position()[1]).To(BeNumerically("<", 10))
		Expect(falling.Position()[2]).To(Equal(2.0))
		Expect(falling.LinearVelocity()[1]).To(BeNumerically("<", 0))
		Expect(fixed.Position()[1]).To(Equal(10.0))
		Expect(fixed.Static()).To(BeTrue())
	})

	It("should offset bodies by their model origin", func() {
		e := newEngine(config.DefaultGravity)
		b, err := e.CreateBody(config.Body{Name: "b", XYZ: config.Vec3{1, 2, 3}}, [3]float64{10, 0, 0}, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Position()).To(Equal(config.Vec3{11, 2, 3}.Mgl()))
	})

	It("should invalidate objects from a closed world", func() {
		e := newEngine(config.DefaultGravity)
		j, err := e.CreateJoint(physics.KindHinge)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Close()).To(Succeed())
		Expect(e.Init()).To(Succeed())

		_, err = j.Angle(0)
		Expect(err).To(MatchError(physics.ErrClosed))
	})
})

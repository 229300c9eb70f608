package planar

import (
	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
)

type Body struct {
	engine *Engine
	gen    int
	name   string
	b      *box2d.B2Body
	z      float64
	static bool
}

func (b *Body) Name() string { return b.name }

func (b *Body) Static() bool { return b.static }

func (b *Body) Position() mgl64.Vec3 { return vec3(b.b.GetPosition(), b.z) }

func (b *Body) SetPosition(p mgl64.Vec3) {
	b.b.SetTransform(vec2(p), b.b.GetAngle())
	if !b.static {
		b.b.SetAwake(true)
	}
	b.z = p[2]
}

func (b *Body) RPY() mgl64.Vec3 { return mgl64.Vec3{0, 0, b.b.GetAngle()} }

func (b *Body) LinearVelocity() mgl64.Vec3 { return vec3(b.b.GetLinearVelocity(), 0) }

func (b *Body) AngularVelocity() mgl64.Vec3 {
	return mgl64.Vec3{0, 0, b.b.GetAngularVelocity()}
}

func (b *Body) alive() error { return b.engine.check(b.gen) }

package monitor

import (
	"github.com/rs/xid"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/physics"
	"github.com/san-kum/robosim/internal/sim"
)

type bodyDetail struct {
	Position        [3]float64
	RPY             [3]float64
	LinearVelocity  [3]float64
	AngularVelocity [3]float64
}

type axisDetail struct {
	Anchor      [3]float64
	Axis        [3]float64
	Angle       float64
	Velocity    float64
	MotorTorque float64
}

type jointDetail struct {
	Type  string
	Body1 string
	Body2 string
	Axes  []axisDetail
}

type geomDetail struct {
	Type string
	Size [3]float64
}

// entityDetail is a snapshot of an entity and its backend object, taken
// under the scheduler lock.
type entityDetail struct {
	sim.EntityInfo
	Children []string
	Body     *bodyDetail
	Joint    *jointDetail
	Geom     *geomDetail
}

func describe(l *sim.Locked, id xid.ID) *entityDetail {
	g := l.Graph()
	if g == nil {
		return nil
	}
	info, ok := l.Entity(id)
	if !ok {
		return nil
	}
	e, _ := g.Lookup(id)

	d := &entityDetail{EntityInfo: info}
	for _, c := range e.Children {
		d.Children = append(d.Children, g.ScopedName(c))
	}

	switch obj := e.Object.(type) {
	case physics.Body:
		d.Body = &bodyDetail{
			Position:        obj.Position(),
			RPY:             obj.RPY(),
			LinearVelocity:  obj.LinearVelocity(),
			AngularVelocity: obj.AngularVelocity(),
		}
	case physics.Joint:
		d.Joint = describeJoint(obj)
	case physics.Box:
		d.Geom = &geomDetail{Type: string(obj.Kind()), Size: obj.Size()}
	case physics.Shape:
		d.Geom = &geomDetail{Type: string(obj.Kind())}
	}
	return d
}

func describeJoint(j physics.Joint) *jointDetail {
	d := &jointDetail{
		Type:  string(j.Kind()),
		Body1: bodyName(j.Body1()),
		Body2: bodyName(j.Body2()),
	}
	for i := 0; i < j.AxisCount(); i++ {
		var a axisDetail
		if p, err := j.Anchor(i); err == nil {
			a.Anchor = p
		}
		if v, err := j.Axis(i); err == nil {
			a.Axis = v
		}
		a.Angle, _ = j.Angle(i)
		a.Velocity, _ = j.Velocity(i)
		a.MotorTorque, _ = j.MotorTorque(i)
		d.Axes = append(d.Axes, a)
	}
	return d
}

func bodyName(b physics.Body) string {
	if b == nil {
		return config.WorldBody
	}
	return b.Name()
}

package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/xid"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/physics"
	"github.com/san-kum/robosim/internal/physics/planar"
)

func buildPreset(t *testing.T, name string) (*Graph, *planar.Engine, *config.World) {
	t.Helper()
	w := config.GetPreset(name)
	e := planar.New()
	if err := e.Load(w.Physics); err != nil {
		t.Fatal(err)
	}
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	g, err := Build(w, e)
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	return g, e, w
}

func TestBuildPendulum(t *testing.T) {
	g, _, _ := buildPreset(t, "pendulum")

	if g.Len() != 4 {
		t.Fatalf("expected 4 entities, got %d", g.Len())
	}
	bob, ok := g.FindByName("pendulum::arm::bob")
	if !ok {
		t.Fatal("expected to find pendulum::arm::bob")
	}
	if bob.Kind != KindGeom {
		t.Errorf("expected geom, got %s", bob.Kind)
	}
	box := bob.Object.(physics.Box)
	if box.Size() != (mgl64.Vec3{0.2, 0.2, 0.2}) {
		t.Errorf("expected bob size 0.2, got %v", box.Size())
	}

	pivot, ok := g.FindByName("pendulum::pivot")
	if !ok {
		t.Fatal("expected to find pendulum::pivot")
	}
	anchor, err := pivot.Object.(physics.Joint).Anchor(0)
	if err != nil {
		t.Fatal(err)
	}
	if anchor.Sub(mgl64.Vec3{0, 0, 0}).Len() > 1e-12 {
		t.Errorf("expected anchor at origin, got %v", anchor)
	}
}

func TestParentOfKind(t *testing.T) {
	g, _, _ := buildPreset(t, "double_pendulum")

	link, _ := g.FindByName("double_pendulum::lower::lower_link")
	model, ok := g.ParentOfKind(link.ID, KindModel)
	if !ok || model.Name != "double_pendulum" {
		t.Errorf("expected model double_pendulum, got %v", model)
	}
	body, ok := g.ParentOfKind(link.ID, KindBody)
	if !ok || body.Name != "lower" {
		t.Errorf("expected body lower, got %v", body)
	}

	self, ok := g.ParentOfKind(body.ID, KindBody)
	if !ok || self.ID != body.ID {
		t.Error("expected a body to be its own parent body")
	}

	elbow, _ := g.FindByName("double_pendulum::elbow")
	if _, ok := g.ParentOfKind(elbow.ID, KindBody); ok {
		t.Error("expected joint to have no parent body")
	}
}

func TestStaleHandle(t *testing.T) {
	g, _, _ := buildPreset(t, "pendulum")
	arm, _ := g.FindByName("pendulum::arm")
	id := arm.ID

	g.Remove(id)
	if _, ok := g.Lookup(id); ok {
		t.Error("expected removed entity to be gone")
	}
	if _, ok := g.ParentOfKind(id, KindModel); ok {
		t.Error("expected stale handle to resolve to nothing")
	}
	if _, ok := g.FindByName("pendulum::arm::bob"); ok {
		t.Error("expected subtree to be removed")
	}
	if _, ok := g.Lookup(xid.New()); ok {
		t.Error("expected unknown handle to resolve to nothing")
	}

	g.Clear()
	if g.Len() != 0 || len(g.Entities()) != 0 {
		t.Error("expected empty graph after Clear")
	}
}

func TestBuildRejectsUnknownBody(t *testing.T) {
	w, err := config.Parse([]byte(`
models:
  - name: m
    bodies: [{name: a, geoms: [{name: g, type: box, size: [1, 1, 1]}]}]
`))
	if err != nil {
		t.Fatal(err)
	}
	w.Models[0].Joints = append(w.Models[0].Joints, mustNode(t, "{name: j, type: hinge, body1: a, body2: ghost}"))

	e := planar.New()
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	_, err = Build(w, e)
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	var fe *config.FieldError
	if !errors.As(err, &fe) || fe.Field != "models[0].joints[0].body2" {
		t.Errorf("expected body2 field error, got %v", err)
	}
}

func TestBuildRejectsUnknownKinds(t *testing.T) {
	w := config.DefaultWorld()
	geom := mustNode(t, "{name: g, type: cylinder}")
	w.Models = []config.Model{{Name: "m", Bodies: []config.Body{{Name: "a", Geoms: []yaml.Node{geom}}}}}

	e := planar.New()
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := Build(w, e); !errors.Is(err, physics.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind for geom, got %v", err)
	}

	w.Models[0].Bodies[0].Geoms = nil
	w.Models[0].Joints = []yaml.Node{mustNode(t, "{name: j, type: slider, body1: a}")}
	if _, err := Build(w, e); !errors.Is(err, physics.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind for joint, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	g, e, w := buildPreset(t, "double_pendulum")
	for i := 0; i < 100; i++ {
		if err := e.Step(w.Physics.StepDuration()); err != nil {
			t.Fatal(err)
		}
	}
	lower, _ := g.FindByName("double_pendulum::lower")
	live := lower.Object.(physics.Body).Position()

	snap, err := g.Snapshot(w)
	if err != nil {
		t.Fatal(err)
	}
	data, err := config.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	again, err := config.Parse(data)
	if err != nil {
		t.Fatalf("snapshot does not parse: %v\n%s", err, data)
	}

	body := again.Models[0].Bodies[1]
	if body.Name != "lower" {
		t.Fatalf("expected lower, got %s", body.Name)
	}
	for i := range live {
		if math.Abs(body.XYZ[i]-live[i]) > 1e-9 {
			t.Errorf("axis %d: expected %g, got %g", i, live[i], body.XYZ[i])
		}
	}
	elbow, err := config.DecodeJoint(&again.Models[0].Joints[1], "elbow")
	if err != nil {
		t.Fatal(err)
	}
	if elbow.HighStop == nil || math.Abs(*elbow.HighStop-90) > 1e-9 {
		t.Errorf("expected elbow high stop 90, got %v", elbow.HighStop)
	}
}

func TestSnapshotKeepsJointAnchor(t *testing.T) {
	g, _, w := buildPreset(t, "pendulum")
	pivot, _ := g.FindByName("pendulum::pivot")
	want := mgl64.Vec3{0, 0.5, 0}
	if err := pivot.Object.(physics.Joint).SetAnchor(0, want); err != nil {
		t.Fatal(err)
	}

	snap, err := g.Snapshot(w)
	if err != nil {
		t.Fatal(err)
	}
	data, err := config.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	again, err := config.Parse(data)
	if err != nil {
		t.Fatalf("snapshot does not parse: %v\n%s", err, data)
	}

	e := planar.New()
	if err := e.Load(again.Physics); err != nil {
		t.Fatal(err)
	}
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	rebuilt, err := Build(again, e)
	if err != nil {
		t.Fatal(err)
	}
	pivot, _ = rebuilt.FindByName("pendulum::pivot")
	got, err := pivot.Object.(physics.Joint).Anchor(0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Sub(want).Len() > 1e-9 {
		t.Errorf("expected anchor %v, got %v", want, got)
	}
}

func mustNode(t *testing.T, src string) yaml.Node {
	t.Helper()
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatal(err)
	}
	return *doc.Content[0]
}

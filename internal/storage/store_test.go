package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/robosim/internal/metrics"
)

func testSamples() []metrics.Sample {
	return []metrics.Sample{
		{Sim: 0, Real: 0, Steps: 0, Positions: []mgl64.Vec3{{1, 0, 0}, {2, 0, 0.5}}},
		{Sim: 10 * time.Millisecond, Real: 12 * time.Millisecond, Steps: 2, RTF: 0.833333, Positions: []mgl64.Vec3{{0.99, -0.1, 0}, {1.9, -0.3, 0.5}}},
		{Sim: 10 * time.Millisecond, Real: 40 * time.Millisecond, Pause: 25 * time.Millisecond, Steps: 2, Paused: true, Positions: []mgl64.Vec3{{0.99, -0.1, 0}, {1.9, -0.3, 0.5}}},
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		World:    "double_pendulum",
		Engine:   "planar",
		StepTime: 0.005,
		SimTime:  0.01,
		Steps:    2,
		Bodies:   []string{"double_pendulum::upper", "double_pendulum::lower"},
		Metrics:  map[string]float64{"real_time_factor": 0.9},
	}
	id, err := store.Save(meta, testSamples())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.ID != id {
		t.Errorf("expected id %s, got %s", id, loaded.ID)
	}
	if loaded.World != "double_pendulum" || loaded.Engine != "planar" {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if loaded.Metrics["real_time_factor"] != 0.9 {
		t.Errorf("expected metric 0.9, got %f", loaded.Metrics["real_time_factor"])
	}
	if loaded.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}

	bodies, samples, err := store.LoadSamples(id)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(bodies) != 2 || bodies[1] != "double_pendulum::lower" {
		t.Errorf("unexpected bodies %v", bodies)
	}
	want := testSamples()
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		got := samples[i]
		if got.Sim != want[i].Sim || got.Real != want[i].Real || got.Pause != want[i].Pause {
			t.Errorf("sample %d: expected times %v/%v/%v, got %v/%v/%v", i,
				want[i].Sim, want[i].Real, want[i].Pause, got.Sim, got.Real, got.Pause)
		}
		if got.Steps != want[i].Steps || got.Paused != want[i].Paused {
			t.Errorf("sample %d: expected steps %d paused %v, got %d %v", i,
				want[i].Steps, want[i].Paused, got.Steps, got.Paused)
		}
		for b := range want[i].Positions {
			if !got.Positions[b].ApproxEqualThreshold(want[i].Positions[b], 1e-6) {
				t.Errorf("sample %d body %d: expected %v, got %v", i, b, want[i].Positions[b], got.Positions[b])
			}
		}
	}
}

func TestListRuns(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, world := range []string{"b", "a", "c"} {
		_, err := store.Save(RunMetadata{World: world, Timestamp: base.Add(time.Duration(i) * time.Minute)}, nil)
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "not_a_run"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, world := range []string{"b", "a", "c"} {
		if runs[i].World != world {
			t.Errorf("expected run %d to be %s, got %s", i, world, runs[i].World)
		}
	}
}

func TestListMissingDir(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := store.List()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadSamplesMalformed(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	runDir := filepath.Join(dir, "bad")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"short header", "sim,real\n"},
		{"partial body", "sim,real,pause,steps,paused,rtf,arm.x,arm.y\n"},
		{"bad number", "sim,real,pause,steps,paused,rtf\nabc,0,0,0,false,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(filepath.Join(runDir, samplesFile), []byte(tt.csv), 0644); err != nil {
				t.Fatal(err)
			}
			if _, _, err := store.LoadSamples("bad"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

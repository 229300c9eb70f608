package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/xid"

	"github.com/san-kum/robosim/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var fixedColumns = []string{"sim", "real", "pause", "steps", "paused", "rtf"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	World     string             `json:"world"`
	Engine    string             `json:"engine"`
	ServerID  string             `json:"server_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	StepTime  float64            `json:"step_time"`
	SimTime   float64            `json:"sim_time"`
	RealTime  float64            `json:"real_time"`
	PauseTime float64            `json:"pause_time"`
	Steps     uint64             `json:"steps"`
	Bodies    []string           `json:"bodies"`
	Metrics   map[string]float64 `json:"metrics"`
}

func runID(world string) string {
	return fmt.Sprintf("%s_%s", world, xid.New().String())
}

// Save writes a run as metadata.json and samples.csv in a new directory and
// returns its ID. An empty meta.ID is filled in.
func (s *Store) Save(meta RunMetadata, samples []metrics.Sample) (string, error) {
	if meta.ID == "" {
		meta.ID = runID(meta.World)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	header := append([]string(nil), fixedColumns...)
	for _, b := range meta.Bodies {
		header = append(header, b+".x", b+".y", b+".z")
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, sm := range samples {
		row := []string{
			formatSeconds(sm.Sim),
			formatSeconds(sm.Real),
			formatSeconds(sm.Pause),
			strconv.FormatUint(sm.Steps, 10),
			strconv.FormatBool(sm.Paused),
			strconv.FormatFloat(sm.RTF, 'f', 6, 64),
		}
		for i := range meta.Bodies {
			var p mgl64.Vec3
			if i < len(sm.Positions) {
				p = sm.Positions[i]
			}
			for _, v := range p {
				row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return meta.ID, w.Error()
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}

func parseSeconds(s string) (time.Duration, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(v * float64(time.Second)).Round(time.Microsecond), nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads a run's samples.csv back, returning the body names in
// column order.
func (s *Store) LoadSamples(runID string) ([]string, []metrics.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("storage: %s: empty samples file", runID)
	}

	header := records[0]
	if len(header) < len(fixedColumns) || (len(header)-len(fixedColumns))%3 != 0 {
		return nil, nil, fmt.Errorf("storage: %s: malformed header", runID)
	}
	var bodies []string
	for i := len(fixedColumns); i < len(header); i += 3 {
		bodies = append(bodies, header[i][:len(header[i])-len(".x")])
	}

	samples := make([]metrics.Sample, 0, len(records)-1)
	for n, record := range records[1:] {
		sm, err := parseSample(record, len(bodies))
		if err != nil {
			return nil, nil, fmt.Errorf("storage: %s: row %d: %w", runID, n+1, err)
		}
		samples = append(samples, sm)
	}
	return bodies, samples, nil
}

func parseSample(record []string, bodies int) (metrics.Sample, error) {
	var sm metrics.Sample
	var err error
	if sm.Sim, err = parseSeconds(record[0]); err != nil {
		return sm, err
	}
	if sm.Real, err = parseSeconds(record[1]); err != nil {
		return sm, err
	}
	if sm.Pause, err = parseSeconds(record[2]); err != nil {
		return sm, err
	}
	if sm.Steps, err = strconv.ParseUint(record[3], 10, 64); err != nil {
		return sm, err
	}
	if sm.Paused, err = strconv.ParseBool(record[4]); err != nil {
		return sm, err
	}
	if sm.RTF, err = strconv.ParseFloat(record[5], 64); err != nil {
		return sm, err
	}

	sm.Positions = make([]mgl64.Vec3, bodies)
	for i := range sm.Positions {
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(record[len(fixedColumns)+3*i+j], 64)
			if err != nil {
				return sm, err
			}
			sm.Positions[i][j] = v
		}
	}
	return sm, nil
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/wavesim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	statesFile   = "eigenstates.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Points      int                `json:"points"`
	Dx          float64            `json:"dx"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	Stride      int                `json:"stride"`
	V0          float64            `json:"v0"`
	Start       float64            `json:"barrier_start"`
	End         float64            `json:"barrier_end"`
	E           float64            `json:"e"`
	Xc          float64            `json:"xc"`
	Sigma       float64            `json:"sigma"`
	DensityMode string             `json:"density_mode"`
	Frames      int                `json:"frames"`
	Energies    []float64          `json:"energies,omitempty"`
	Unstable    bool               `json:"unstable"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Run is everything written to a run directory. Frames and States may be nil.
type Run struct {
	Meta   RunMetadata
	Grid   *dynamo.Grid
	Frames *dynamo.Frames
	States []dynamo.Eigenstate
}

// Save writes metadata.json, frames.csv and, when states are present,
// eigenstates.csv into a new run directory and returns its id.
func (s *Store) Save(run *Run) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	name := run.Meta.Name
	if name == "" {
		name = "run"
	}

	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.Unix())
	for i := 1; ; i++ {
		err := os.Mkdir(s.Dir(runID), 0755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
		runID = fmt.Sprintf("%s_%d_%d", name, now.Unix(), i)
	}
	runDir := s.Dir(runID)

	meta := run.Meta
	meta.ID = runID
	meta.Timestamp = now
	if run.Frames != nil {
		meta.Frames = run.Frames.Filled()
	}
	if len(run.States) > 0 {
		meta.Energies = make([]float64, len(run.States))
		for i, st := range run.States {
			meta.Energies[i] = st.Energy
		}
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if run.Frames != nil {
		n := run.Frames.Filled()
		header := make([]string, n)
		cols := make([][]float64, n)
		for k := 0; k < n; k++ {
			header[k] = "step_" + strconv.Itoa(run.Frames.Steps[k])
			cols[k] = run.Frames.Row(k)
		}
		if err := writeColumns(filepath.Join(runDir, framesFile), run.Grid.X, header, cols); err != nil {
			return "", err
		}
	}

	if len(run.States) > 0 {
		header := make([]string, len(run.States))
		cols := make([][]float64, len(run.States))
		for k, st := range run.States {
			header[k] = "state_" + strconv.Itoa(k+1)
			cols[k] = st.Psi
		}
		if err := writeColumns(filepath.Join(runDir, statesFile), run.Grid.X, header, cols); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns all readable runs, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames reads the sampled frames of a run along with its grid.
func (s *Store) LoadFrames(runID string) (*dynamo.Grid, *dynamo.Frames, error) {
	x, header, cols, err := readColumns(filepath.Join(s.Dir(runID), framesFile))
	if err != nil {
		return nil, nil, err
	}

	frames := dynamo.NewFrames(len(cols), len(x))
	for k, col := range cols {
		copy(frames.Row(k), col)
		step, err := strconv.Atoi(strings.TrimPrefix(header[k], "step_"))
		if err != nil {
			return nil, nil, fmt.Errorf("run %s: bad frame column %q", runID, header[k])
		}
		frames.Steps[k] = step
	}
	return gridFrom(x), frames, nil
}

// LoadStates reads the eigenstates of a run. Energies come from the metadata.
func (s *Store) LoadStates(runID string) (*dynamo.Grid, []dynamo.Eigenstate, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	x, _, cols, err := readColumns(filepath.Join(s.Dir(runID), statesFile))
	if err != nil {
		return nil, nil, err
	}
	if len(cols) != len(meta.Energies) {
		return nil, nil, fmt.Errorf("%w: run %s has %d states but %d energies", dynamo.ErrDimensionMismatch, runID, len(cols), len(meta.Energies))
	}

	states := make([]dynamo.Eigenstate, len(cols))
	for k, col := range cols {
		states[k] = dynamo.Eigenstate{Energy: meta.Energies[k], Psi: col}
	}
	return gridFrom(x), states, nil
}

func gridFrom(x []float64) *dynamo.Grid {
	g := &dynamo.Grid{X: x}
	if len(x) > 1 {
		g.Dx = x[1] - x[0]
	}
	return g
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeColumns writes one row per grid point: x followed by each column.
func writeColumns(path string, x []float64, header []string, cols [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"x"}, header...)); err != nil {
		return err
	}

	record := make([]string, len(cols)+1)
	for j := range x {
		record[0] = strconv.FormatFloat(x[j], 'g', -1, 64)
		for k, col := range cols {
			record[k+1] = strconv.FormatFloat(col[j], 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func readColumns(path string) (x []float64, header []string, cols [][]float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil, fmt.Errorf("%s: missing header", path)
	}

	header = records[0][1:]
	rows := records[1:]
	x = make([]float64, len(rows))
	cols = make([][]float64, len(header))
	for k := range cols {
		cols[k] = make([]float64, len(rows))
	}

	for j, record := range rows {
		if x[j], err = strconv.ParseFloat(record[0], 64); err != nil {
			return nil, nil, nil, fmt.Errorf("%s line %d: %w", path, j+2, err)
		}
		for k := range header {
			if cols[k][j], err = strconv.ParseFloat(record[k+1], 64); err != nil {
				return nil, nil, nil, fmt.Errorf("%s line %d: %w", path, j+2, err)
			}
		}
	}
	return x, header, cols, nil
}

package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Meta   RunMetadata   `json:"meta"`
	X      []float64     `json:"x"`
	Steps  []int         `json:"steps"`
	Frames [][]float64   `json:"frames"`
	States []ExportState `json:"states,omitempty"`
}

type ExportState struct {
	Energy float64   `json:"energy"`
	Psi    []float64 `json:"psi"`
}

func newExportData(run *Run) ExportData {
	data := ExportData{Meta: run.Meta}
	if run.Grid != nil {
		data.X = run.Grid.X
	}
	if run.Frames != nil {
		n := run.Frames.Filled()
		data.Steps = run.Frames.Steps[:n]
		data.Frames = make([][]float64, n)
		for k := range data.Frames {
			data.Frames[k] = run.Frames.Row(k)
		}
	}
	for _, st := range run.States {
		data.States = append(data.States, ExportState{Energy: st.Energy, Psi: st.Psi})
	}
	return data
}

// WriteJSON encodes a run as indented JSON.
func WriteJSON(w io.Writer, run *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newExportData(run))
}

func ExportJSON(path string, run *Run) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, run)
}

func ExportJSONStdout(run *Run) error {
	return WriteJSON(os.Stdout, run)
}

// LoadRun reassembles a saved run for export.
func (s *Store) LoadRun(runID string) (*Run, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	grid, frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, err
	}
	run := &Run{Meta: *meta, Grid: grid, Frames: frames}
	if len(meta.Energies) > 0 {
		if _, run.States, err = s.LoadStates(runID); err != nil {
			return nil, err
		}
	}
	return run, nil
}

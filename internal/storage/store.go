// Package storage persists run metadata, per-step diagnostics and the final
// particle snapshot under a data directory, one subdirectory per run.
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

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/config"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/solver"
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

type RunMetadata struct {
	ID            string    `json:"id"`
	Sample        string    `json:"sample"`
	Timestamp     time.Time `json:"timestamp"`
	Particles     int       `json:"particles"`
	Steps         int       `json:"steps"`
	EndTime       float64   `json:"end_time"`
	Planar        bool      `json:"planar"`
	EnergyDrift   float64   `json:"energy_drift"`
	StallEvents   int       `json:"stall_events"`
	ShockFraction float64   `json:"final_shock_fraction"`
}

// Save writes one run directory: metadata.json, diagnostics.csv and
// particles.csv. It returns the generated run ID.
func Save[T core.Float](s *Store, cfg *config.Config, result *solver.Result[T]) (string, error) {
	runID := fmt.Sprintf("%s_%d", cfg.Sample, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Sample:    cfg.Sample,
		Timestamp: time.Now(),
		Particles: len(result.Particles),
		Steps:     result.Steps,
		EndTime:   cfg.Time.End,
		Planar:    cfg.Planar.Enabled,

		EnergyDrift: result.EnergyDrift,
	}
	for _, rec := range result.Records {
		if rec.Dt.Stalled {
			meta.StallEvents++
		}
	}
	if n := len(result.Records); n > 0 {
		meta.ShockFraction = result.Records[n-1].ShockFraction
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeDiagnostics(filepath.Join(runDir, "diagnostics.csv"), result); err != nil {
		return "", err
	}
	if err := writeParticles(filepath.Join(runDir, "particles.csv"), result); err != nil {
		return "", err
	}
	return runID, nil
}

// LoadDiagnostics reads a stored diagnostics.csv back as column map keyed by
// header name, for the plot command.
func (s *Store) LoadDiagnostics(runID string) (map[string][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "diagnostics.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("storage: empty diagnostics for run %s", runID)
	}

	header := rows[0]
	cols := make(map[string][]float64, len(header))
	for _, row := range rows[1:] {
		for i, cell := range row {
			if i >= len(header) {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, err
			}
			cols[header[i]] = append(cols[header[i]], v)
		}
	}
	return cols, nil
}

// List returns all stored run IDs, newest last.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, e.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
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

func writeDiagnostics[T core.Float](path string, result *solver.Result[T]) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"step", "time", "dt", "dt_raw", "dt_sound", "dt_force", "dt_energy",
		"energy", "shock_fraction",
	}); err != nil {
		return err
	}
	for _, rec := range result.Records {
		row := []string{
			strconv.Itoa(rec.Step),
			formatF(rec.Time),
			formatF(rec.Dt.Dt),
			formatF(rec.Dt.RawDt),
			formatF(rec.Dt.DtSound),
			formatF(rec.Dt.DtForce),
			formatF(rec.Dt.DtEnergy),
			formatF(rec.Energy),
			strconv.FormatFloat(rec.ShockFraction, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func writeParticles[T core.Float](path string, result *solver.Result[T]) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"id", "x", "y", "z", "vx", "vy", "vz",
		"mass", "dens", "pres", "ene", "sml", "shock_mode", "wall",
	}); err != nil {
		return err
	}
	for i := range result.Particles {
		p := &result.Particles[i]
		row := []string{
			strconv.Itoa(p.ID),
			formatF(p.Pos[0]), formatF(p.Pos[1]), formatF(p.Pos[2]),
			formatF(p.Vel[0]), formatF(p.Vel[1]), formatF(p.Vel[2]),
			formatF(p.Mass), formatF(p.Dens), formatF(p.Pres),
			formatF(p.Ene), formatF(p.Sml),
			strconv.Itoa(int(p.ShockMode)),
			strconv.FormatBool(p.Wall),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatF[T core.Float](v T) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 64)
}

package operations

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"

	apperrors "filmstats/internal/errors"
	"filmstats/internal/exporter"
)

// RunManifest records one pipeline run: which steps ran and what they wrote
type RunManifest struct {
	RunID      string          `json:"run_id"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Duration   string          `json:"duration"`
	Steps      []StepExecution `json:"steps"`
	Outputs    []OutputFile    `json:"outputs"`
	Error      string          `json:"error,omitempty"`
}

// StepExecution tracks the execution of a single step
type StepExecution struct {
	StepID   string                 `json:"step_id"`
	StepName string                 `json:"step_name"`
	Status   string                 `json:"status"`
	Duration string                 `json:"duration,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// OutputFile describes a file written during the run
type OutputFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Rows      *int      `json:"rows,omitempty"`
	Checksum  string    `json:"blake2b_256"`
	CreatedBy string    `json:"created_by"`
	ModTime   time.Time `json:"modified"`
}

// NewRunManifest builds the manifest for a finished run. Steps appear in
// execution order.
func NewRunManifest(state *OperationState, steps []Step) *RunManifest {
	snapshot := state.Clone()

	m := &RunManifest{
		RunID:      snapshot.ID,
		Status:     string(snapshot.Status),
		StartedAt:  snapshot.StartTime,
		FinishedAt: snapshot.EndTime,
		Duration:   snapshot.Duration().Round(time.Millisecond).String(),
		Steps:      make([]StepExecution, 0, len(steps)),
		Outputs:    []OutputFile{},
	}
	if snapshot.Error != nil {
		m.Error = snapshot.Error.Error()
	}

	for _, step := range steps {
		st := snapshot.Steps[step.ID()]
		if st == nil {
			continue
		}
		exec := StepExecution{
			StepID:   st.ID,
			StepName: st.Name,
			Status:   string(st.Status),
			Message:  st.Message,
		}
		if st.StartTime != nil {
			exec.Duration = st.Duration().Round(time.Millisecond).String()
		}
		if st.Error != nil {
			exec.Error = st.Error.Error()
		}
		if len(st.Metadata) > 0 {
			exec.Metadata = st.Metadata
		}
		m.Steps = append(m.Steps, exec)
	}
	return m
}

// AddOutputs describes each produced file with its size and checksum.
// Files that disappeared since they were written are skipped.
func (m *RunManifest) AddOutputs(produced []ProducedFile) error {
	for _, p := range produced {
		info, err := os.Stat(p.Path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return apperrors.NewStorageError("failed to stat output", err).WithContext("path", p.Path)
		}
		sum, err := FileChecksum(p.Path)
		if err != nil {
			return err
		}
		out := OutputFile{
			Name:      filepath.Base(p.Path),
			Path:      p.Path,
			Size:      info.Size(),
			Checksum:  sum,
			CreatedBy: p.StepID,
			ModTime:   info.ModTime().UTC(),
		}
		if p.Rows >= 0 {
			rows := p.Rows
			out.Rows = &rows
		}
		m.Outputs = append(m.Outputs, out)
	}
	sort.SliceStable(m.Outputs, func(i, j int) bool { return m.Outputs[i].Path < m.Outputs[j].Path })
	return nil
}

// FileChecksum returns the hex BLAKE2b-256 digest of a file
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperrors.NewStorageError("failed to open output", err).WithContext("path", path)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", apperrors.NewStorageError("failed to hash output", err).WithContext("path", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SaveToFile writes the manifest as indented JSON
func (m *RunManifest) SaveToFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return exporter.WriteFile(path, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	})
}

// LoadManifestFromFile reads a manifest written by SaveToFile
func LoadManifestFromFile(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewMissingFileError("run manifest", path)
		}
		return nil, apperrors.NewStorageError("failed to read manifest file", err)
	}

	var manifest RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, apperrors.NewParsingError("failed to unmarshal manifest", err).WithContext("path", path)
	}
	return &manifest, nil
}

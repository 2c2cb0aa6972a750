package results

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultResultsFile is where scenario runs are appended when no path is given.
const DefaultResultsFile = "sim_results.jsonl"

// SchemaVersion indicates the compatibility version of the meta+sim/scenarios envelope.
// Readers skip lines carrying another version.
const SchemaVersion = 1

// MaxLineBytes caps a single JSONL line; people/transtree payloads can be large.
const MaxLineBytes = 256 * 1024 * 1024

// Meta identifies one stored run or scenario set.
type Meta struct {
	SchemaVersion int    `json:"schema_version"`
	RunID         string `json:"run_id,omitempty"`
	RunTag        string `json:"run_tag,omitempty"`
	Label         string `json:"label,omitempty"`
	Scenario      string `json:"scenario,omitempty"`
	Seed          int64  `json:"seed,omitempty"`
	TimestampUTC  string `json:"timestamp_utc,omitempty"`
}

// Envelope is one line of the results file. Exactly one of Sim or Scenarios is set.
type Envelope struct {
	Meta      *Meta      `json:"meta"`
	Sim       *Sim       `json:"sim,omitempty"`
	Scenarios *Scenarios `json:"scenarios,omitempty"`
}

// NewEnvelope wraps a sim with freshly stamped meta.
func NewEnvelope(sim *Sim, runID, scenario string, seed int64) *Envelope {
	return &Envelope{
		Meta: &Meta{
			SchemaVersion: SchemaVersion,
			RunID:         runID,
			RunTag:        RunTag(time.Now()),
			Label:         sim.Label,
			Scenario:      scenario,
			Seed:          seed,
			TimestampUTC:  time.Now().UTC().Format(time.RFC3339Nano),
		},
		Sim: sim,
	}
}

// NewScenariosEnvelope wraps an aggregated scenario set.
func NewScenariosEnvelope(sc *Scenarios, runID string) *Envelope {
	return &Envelope{
		Meta: &Meta{
			SchemaVersion: SchemaVersion,
			RunID:         runID,
			RunTag:        RunTag(time.Now()),
			Label:         sc.Label,
			TimestampUTC:  time.Now().UTC().Format(time.RFC3339Nano),
		},
		Scenarios: sc,
	}
}

// RunTag formats a batch tag like 20250818_132613.
func RunTag(t time.Time) string { return t.UTC().Format("20060102_150405") }

// ReadEnvelopes parses a JSONL results file and returns up to max of the most recent
// envelopes with the requested schema version (max <= 0 returns all). Malformed lines,
// lines without meta and lines without a payload are skipped.
func ReadEnvelopes(path string, schemaVersion, max int) ([]*Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	Debugf("[results] reading %s (schema_version=%d, max=%d)", path, schemaVersion, max)
	reader := bufio.NewReader(f)
	var out []*Envelope
	skipped := 0
readLoop:
	for {
		// one logical line may span several internal buffers
		var line []byte
		for {
			part, rerr := reader.ReadBytes('\n')
			if len(part) > 0 {
				if len(line)+len(part) > MaxLineBytes {
					return nil, fmt.Errorf("line too large: %d bytes exceeds limit %d in %s", len(line)+len(part), MaxLineBytes, path)
				}
				line = append(line, part...)
			}
			if rerr == nil {
				break
			}
			if errors.Is(rerr, io.EOF) {
				if len(line) == 0 {
					break readLoop
				}
				break
			}
			if errors.Is(rerr, bufio.ErrBufferFull) {
				continue
			}
			Warnf("[results] read warning: %v (file=%s)", rerr, path)
			if len(line) == 0 {
				break readLoop
			}
			break
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil || env.Meta == nil || (env.Sim == nil && env.Scenarios == nil) {
			skipped++
			continue
		}
		if env.Meta.SchemaVersion != schemaVersion {
			skipped++
			continue
		}
		out = append(out, &env)
	}
	if skipped > 0 {
		Debugf("[results] skipped %d lines in %s", skipped, path)
	}
	if max > 0 && len(out) > max {
		out = out[len(out)-max:]
	}
	return out, nil
}

// LoadSim reads a sim from a .json document (either a bare sim or an envelope) or,
// for JSONL files, the last envelope carrying a sim whose label matches (empty matches any).
func LoadSim(path, label string) (*Sim, error) {
	if isJSONDoc(path) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var env Envelope
		if err := json.Unmarshal(b, &env); err == nil && env.Sim != nil {
			return env.Sim, nil
		}
		var sim Sim
		if err := json.Unmarshal(b, &sim); err != nil {
			return nil, fmt.Errorf("decode sim %s: %w", path, err)
		}
		return &sim, nil
	}
	envs, err := ReadEnvelopes(path, SchemaVersion, 0)
	if err != nil {
		return nil, err
	}
	for i := len(envs) - 1; i >= 0; i-- {
		e := envs[i]
		if e.Sim == nil {
			continue
		}
		if label == "" || strings.EqualFold(e.Sim.Label, label) || strings.EqualFold(e.Meta.Label, label) {
			return e.Sim, nil
		}
	}
	return nil, fmt.Errorf("no sim with label %q in %s", label, path)
}

// LoadSims returns every sim envelope in a JSONL file (or the single sim of a .json file).
func LoadSims(path string) ([]*Sim, error) {
	if isJSONDoc(path) {
		s, err := LoadSim(path, "")
		if err != nil {
			return nil, err
		}
		return []*Sim{s}, nil
	}
	envs, err := ReadEnvelopes(path, SchemaVersion, 0)
	if err != nil {
		return nil, err
	}
	var out []*Sim
	for _, e := range envs {
		if e.Sim != nil {
			out = append(out, e.Sim)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sims in %s", path)
	}
	return out, nil
}

// LoadScenarios reads a scenario set from a .json document or the last JSONL envelope
// carrying one.
func LoadScenarios(path string) (*Scenarios, error) {
	if isJSONDoc(path) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var env Envelope
		if err := json.Unmarshal(b, &env); err == nil && env.Scenarios != nil {
			return env.Scenarios, nil
		}
		var sc Scenarios
		if err := json.Unmarshal(b, &sc); err != nil {
			return nil, fmt.Errorf("decode scenarios %s: %w", path, err)
		}
		return &sc, nil
	}
	envs, err := ReadEnvelopes(path, SchemaVersion, 0)
	if err != nil {
		return nil, err
	}
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Scenarios != nil {
			return envs[i].Scenarios, nil
		}
	}
	return nil, fmt.Errorf("no scenarios in %s", path)
}

func isJSONDoc(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

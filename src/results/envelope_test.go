package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"
)

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.jsonl")
	var b []byte
	for _, l := range lines {
		b = append(b, l...)
		b = append(b, '\n')
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func simLine(t *testing.T, label string, schema int) string {
	t.Helper()
	env := NewEnvelope(&Sim{Label: label, NDays: 2, Results: map[string]*Result{"new_infections": {Values: Floats{1, 2, 3}}}}, "id-"+label, "", 0)
	env.Meta.SchemaVersion = schema
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestReadEnvelopesSkipsBadLines(t *testing.T) {
	path := writeLines(t,
		simLine(t, "a", SchemaVersion),
		"not json",
		`{"meta":{"schema_version":1}}`,
		simLine(t, "old", SchemaVersion+7),
		"",
		simLine(t, "b", SchemaVersion),
	)
	envs, err := ReadEnvelopes(path, SchemaVersion, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(envs) != 2 || envs[0].Sim.Label != "a" || envs[1].Sim.Label != "b" {
		t.Fatalf("unexpected envelopes: %+v", envs)
	}
	recent, err := ReadEnvelopes(path, SchemaVersion, 1)
	if err != nil {
		t.Fatalf("read max: %v", err)
	}
	if len(recent) != 1 || recent[0].Sim.Label != "b" {
		t.Fatalf("max should keep the most recent envelope: %+v", recent)
	}
}

func TestLoadSimByLabel(t *testing.T) {
	path := writeLines(t, simLine(t, "baseline", SchemaVersion), simLine(t, "waning", SchemaVersion))
	sim, err := LoadSim(path, "baseline")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sim.Label != "baseline" {
		t.Fatalf("label=%q", sim.Label)
	}
	last, err := LoadSim(path, "")
	if err != nil || last.Label != "waning" {
		t.Fatalf("expected last sim, got %v %v", last, err)
	}
	if _, err := LoadSim(path, "missing"); err == nil {
		t.Fatalf("expected error for missing label")
	}
}

func TestLoadSimBareJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.json")
	if err := os.WriteFile(path, []byte(`{"label":"bare","start_day":"2020-03-01","n_days":1,"results":{"cum_deaths":{"values":[0,null]}}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sim, err := LoadSim(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sim.Label != "bare" || len(sim.Results["cum_deaths"].Values) != 2 {
		t.Fatalf("unexpected sim: %+v", sim)
	}
}

func TestResultWriterAppendsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)
	path := filepath.Join(t.TempDir(), "nested", "out.jsonl")
	w, err := NewResultWriter(path)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	for _, l := range []string{"x", "y", "z"} {
		w.Write(NewEnvelope(&Sim{Label: l, Results: map[string]*Result{}}, l, "", 0))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	envs, err := ReadEnvelopes(path, SchemaVersion, 0)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(envs) != 3 || envs[2].Sim.Label != "z" {
		t.Fatalf("unexpected envelopes: %d", len(envs))
	}
}

type failingCloser struct {
	bytes.Buffer
	err error
}

func (f *failingCloser) Close() error { return f.err }

func TestResultWriterReportsCloseError(t *testing.T) {
	defer goleak.VerifyNone(t)
	errDisk := errors.New("disk full")
	dst := &failingCloser{err: errDisk}
	w := startWriter("mem.jsonl", dst)
	w.Write(NewEnvelope(&Sim{Label: "x", Results: map[string]*Result{}}, "x", "", 0))
	if err := w.Close(); !errors.Is(err, errDisk) {
		t.Fatalf("expected close error, got %v", err)
	}
	if dst.Len() == 0 {
		t.Fatalf("envelope should be encoded before close")
	}
}

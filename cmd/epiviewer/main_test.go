package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iafilius/EpiViewer/src/plotting"
	"github.com/iafilius/EpiViewer/src/results"
	"github.com/iafilius/EpiViewer/src/scenario"
)

var simKeys = []string{
	"cum_infections", "n_infectious", "cum_diagnoses", "new_infections",
	"new_diagnoses", "cum_severe", "cum_critical", "cum_deaths",
}

func fakeSim(label string, seed int64) *results.Sim {
	const n = 15
	sim := &results.Sim{
		Label:    label,
		StartDay: results.NewDate(2021, time.January, 1),
		NDays:    n - 1,
		PopSize:  1000,
		Seed:     seed,
		Results:  map[string]*results.Result{},
	}
	for j, k := range simKeys {
		vals := make(results.Floats, n)
		for i := range vals {
			vals[i] = float64(i*(j+1)) + float64(seed)
		}
		sim.Results[k] = &results.Result{Name: k, Color: "#e45226", Values: vals}
	}
	return sim
}

// TestHelperEngine is the simulator run by the exec engine in these tests.
func TestHelperEngine(t *testing.T) {
	if os.Getenv("EPIVIEWER_TEST_ENGINE") != "1" {
		return
	}
	var pars scenario.SimPars
	if err := json.NewDecoder(os.Stdin).Decode(&pars); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	_ = json.NewEncoder(os.Stdout).Encode(fakeSim(pars.Label, pars.Seed))
	os.Exit(0)
}

type env struct {
	dir     string
	cfg     string
	results string
	out     string
}

// setup writes a small-chart config into a temp folder.
func setup(t *testing.T) env {
	t.Helper()
	for _, k := range []string{"EPIVIEWER_LOG_LEVEL", "EPIVIEWER_OUT_DIR", "EPIVIEWER_STORE", "EPIVIEWER_ENGINE_CMD", "EPIVIEWER_MAX_PARALLEL"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	e := env{
		dir:     dir,
		cfg:     filepath.Join(dir, "epiviewer.yaml"),
		results: filepath.Join(dir, "sim_results.jsonl"),
		out:     filepath.Join(dir, "out"),
	}
	yml := fmt.Sprintf(`log_level: warn
out_dir: %s
results_file: %s
store_path: %s
engine:
  max_parallel: 2
plot:
  dpi: 30
  font_size: 8
  n_cols: 2
`, e.out, e.results, filepath.Join(dir, "runs.db"))
	if err := os.WriteFile(e.cfg, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	return e
}

func writeSims(t *testing.T, path string, sims ...*results.Sim) {
	t.Helper()
	w, err := results.NewResultWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range sims {
		w.Write(results.NewEnvelope(s, "run", "", s.Seed))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

// resetFlags puts every flag back to its default between runs of the shared root.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, e env, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--config", e.cfg}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected %s: %v", path, err)
	}
	if st.Size() == 0 {
		t.Fatalf("%s is empty", path)
	}
}

func TestPlotSim(t *testing.T) {
	e := setup(t)
	writeSims(t, e.results, fakeSim("Baseline", 0), fakeSim("Other", 1))

	out, err := run(t, e, "plot", "sim", "--label", "baseline", "--out", "base.png")
	if err != nil {
		t.Fatalf("plot sim: %v", err)
	}
	want := filepath.Join(e.out, "base.png")
	mustExist(t, want)
	if !strings.Contains(out, want) {
		t.Fatalf("output should name %s: %q", want, out)
	}
}

func TestPlotSimSeparateFigures(t *testing.T) {
	e := setup(t)
	writeSims(t, e.results, fakeSim("Baseline", 0))
	panels := filepath.Join(e.dir, "panels.yaml")
	if err := os.WriteFile(panels, []byte("- title: Infections\n  keys: [cum_infections]\n- title: Deaths\n  keys: [cum_deaths]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, e, "plot", "sim", "--to-plot", panels, "--sep-figs")
	if err != nil {
		t.Fatalf("plot sim: %v", err)
	}
	for i := 1; i <= 2; i++ {
		mustExist(t, plotting.NumberedPath(filepath.Join(e.out, plotting.DefaultSimFigName), i))
	}
	if !strings.Contains(out, "Wrote 2 figures") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPlotResultNeedsKey(t *testing.T) {
	e := setup(t)
	writeSims(t, e.results, fakeSim("Baseline", 0))
	if _, err := run(t, e, "plot", "result"); err == nil || !strings.Contains(err.Error(), "--key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	if _, err := run(t, e, "plot", "result", "--key", "r_eff"); !errors.Is(err, results.ErrUnknownResult) {
		t.Fatalf("expected ErrUnknownResult, got %v", err)
	}
	if _, err := run(t, e, "plot", "result", "--key", "new_infections"); err != nil {
		t.Fatalf("plot result: %v", err)
	}
	mustExist(t, filepath.Join(e.out, "new_infections.png"))
}

func TestPlotCompare(t *testing.T) {
	e := setup(t)
	writeSims(t, e.results, fakeSim("A", 0), fakeSim("B", 3))
	if _, err := run(t, e, "plot", "compare", "--log-scale"); err != nil {
		t.Fatalf("plot compare: %v", err)
	}
	mustExist(t, filepath.Join(e.out, "compare.png"))
}

func TestPlotTransTreeWithoutTree(t *testing.T) {
	e := setup(t)
	writeSims(t, e.results, fakeSim("Baseline", 0))
	_, err := run(t, e, "plot", "transtree")
	if !errors.Is(err, plotting.ErrNoDetailedTransTree) {
		t.Fatalf("expected ErrNoDetailedTransTree, got %v", err)
	}
	if _, err := run(t, e, "animate"); !errors.Is(err, plotting.ErrNoDetailedTransTree) {
		t.Fatalf("animate: expected ErrNoDetailedTransTree, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.out, plotting.DefaultAnimationFile)); !os.IsNotExist(err) {
		t.Fatalf("no animation should be written: %v", err)
	}
}

func TestDashboardFile(t *testing.T) {
	e := setup(t)
	writeSims(t, e.results, fakeSim("Baseline", 0))
	out, err := run(t, e, "dashboard", "--plotly-js", "plotly.min.js")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	path := filepath.Join(e.out, "dashboard.html")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	if !strings.Contains(string(b), "plotly.min.js") || !strings.Contains(string(b), "Baseline") {
		t.Fatalf("dashboard misses script or title")
	}
	if !strings.Contains(out, "panels") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := run(t, e, "dashboard", "--serve", "--png", "x.png"); err == nil {
		t.Fatalf("--serve with --png should fail")
	}
}

func TestScenariosList(t *testing.T) {
	e := setup(t)
	out, err := run(t, e, "scenarios", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, c := range scenario.Battery() {
		if !strings.Contains(out, c.Name) {
			t.Fatalf("list misses %s:\n%s", c.Name, out)
		}
	}
	md, err := run(t, e, "scenarios", "list", "--markdown")
	if err != nil {
		t.Fatalf("list markdown: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(md), "|") {
		t.Fatalf("expected markdown table, got %q", md)
	}
}

func TestScenariosRunNeedsCases(t *testing.T) {
	e := setup(t)
	if _, err := run(t, e, "scenarios", "run"); err == nil {
		t.Fatalf("expected error without cases")
	}
	if _, err := run(t, e, "scenarios", "run", "--all", "simple"); err == nil {
		t.Fatalf("expected error for --all with names")
	}
	t.Setenv("EPIVIEWER_ENGINE_CMD", "true")
	if _, err := run(t, e, "scenarios", "run", "nope"); err == nil || !strings.Contains(err.Error(), `unknown case "nope"`) {
		t.Fatalf("expected unknown case, got %v", err)
	}
}

func TestScenariosRunNeedsEngineCommand(t *testing.T) {
	e := setup(t)
	_, err := run(t, e, "scenarios", "run", "simple")
	if err == nil || !strings.Contains(err.Error(), "engine.command") {
		t.Fatalf("expected missing engine command, got %v", err)
	}
}

func TestScenariosRunStoresAndReplays(t *testing.T) {
	e := setup(t)
	t.Setenv("EPIVIEWER_TEST_ENGINE", "1")
	t.Setenv("EPIVIEWER_ENGINE_CMD", os.Args[0]+" -test.run=^TestHelperEngine$")

	out, err := run(t, e, "scenarios", "run", "simple", "--save", "--out-dir", e.out)
	if err != nil {
		t.Fatalf("run simple: %v", err)
	}
	if !strings.Contains(out, "simple") {
		t.Fatalf("summary misses case:\n%s", out)
	}
	mustExist(t, filepath.Join(e.out, "simple_1.png"))
	mustExist(t, filepath.Join(e.out, "simple_2.png"))

	sims, err := results.LoadSims(e.results)
	if err != nil {
		t.Fatalf("load results: %v", err)
	}
	if len(sims) != 2 {
		t.Fatalf("expected 2 sims in results file, got %d", len(sims))
	}

	listed, err := run(t, e, "store", "list", "--kind", "sim")
	if err != nil {
		t.Fatalf("store list: %v", err)
	}
	for _, label := range []string{"simple_1", "simple_2"} {
		if !strings.Contains(listed, label) {
			t.Fatalf("store list misses %q:\n%s", label, listed)
		}
	}

	// replaying from the store needs no simulator
	t.Setenv("EPIVIEWER_ENGINE_CMD", "")
	replayCfg, err := os.ReadFile(e.cfg)
	if err != nil {
		t.Fatal(err)
	}
	replayCfg = bytes.Replace(replayCfg, []byte("engine:\n"), []byte("engine:\n  kind: replay\n"), 1)
	if err := os.WriteFile(e.cfg, replayCfg, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, e, "scenarios", "run", "simple", "--no-write"); err != nil {
		t.Fatalf("replay simple: %v", err)
	}
	again, err := run(t, e, "store", "list", "--kind", "sim", "--limit", "0")
	if err != nil {
		t.Fatalf("store list: %v", err)
	}
	if strings.Count(again, "simple_") != strings.Count(listed, "simple_") {
		t.Fatalf("replayed runs should not be stored again:\n%s", again)
	}
}

func TestStoreImportAndShow(t *testing.T) {
	e := setup(t)
	writeSims(t, e.results, fakeSim("Imported", 4))
	out, err := run(t, e, "store", "import")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 1 runs") {
		t.Fatalf("unexpected output %q", out)
	}
	listed, err := run(t, e, "store", "list", "--markdown")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var id string
	for _, line := range strings.Split(listed, "\n") {
		if strings.Contains(line, "Imported") {
			id = strings.TrimSpace(strings.Split(strings.Trim(line, "| "), "|")[0])
		}
	}
	if id == "" {
		t.Fatalf("no stored row in:\n%s", listed)
	}
	dest := filepath.Join(e.dir, "one.json")
	if _, err := run(t, e, "store", "show", id, "--out", dest); err != nil {
		t.Fatalf("show: %v", err)
	}
	sim, err := results.LoadSim(dest, "")
	if err != nil {
		t.Fatalf("load shown run: %v", err)
	}
	if sim.Label != "Imported" || sim.Seed != 4 {
		t.Fatalf("unexpected sim %q seed %d", sim.Label, sim.Seed)
	}
	if _, err := run(t, e, "store", "show", "missing"); err == nil {
		t.Fatalf("expected not found")
	}
}

func TestScreenshots(t *testing.T) {
	e := setup(t)
	writeSims(t, e.results, fakeSim("Baseline", 0))
	out, err := run(t, e, "screenshots")
	if err != nil {
		t.Fatalf("screenshots: %v", err)
	}
	dir := filepath.Join(e.out, "screenshots")
	for _, name := range []string{"sim.png", "cum_infections.png", "new_infections.png", "cum_deaths.png"} {
		mustExist(t, filepath.Join(dir, name))
	}
	for _, name := range []string{"r_eff.png", "compare.png", "scenarios.png", "transtree.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("%s should be skipped", name)
		}
	}
	if !strings.Contains(out, "Wrote 4 screenshots") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	e := setup(t)
	if _, err := run(t, e, "--log-level", "loud", "scenarios", "list"); err == nil {
		t.Fatalf("expected invalid log level")
	}
}

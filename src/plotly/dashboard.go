package plotly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/iafilius/EpiViewer/src/results"
)

// DefaultPlotlyJS is where the dashboard loads plotly.js from unless overridden.
const DefaultPlotlyJS = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// Panel is one figure on the dashboard.
type Panel struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Figure *Figure `json:"figure"`
}

// Page is a rendered dashboard.
type Page struct {
	Title     string    `json:"title"`
	PlotlyJS  string    `json:"-"`
	Generated time.Time `json:"generated"`
	Panels    []Panel   `json:"panels"`
}

// BuildPage assembles the sim panels, plus the people views when the sim has people.
func BuildPage(sim *results.Sim, plotlyJS string) (Page, error) {
	if plotlyJS == "" {
		plotlyJS = DefaultPlotlyJS
	}
	label := sim.Label
	if label == "" {
		label = "Simulation"
	}
	p := Page{Title: label, PlotlyJS: plotlyJS, Generated: time.Now().UTC()}
	figs, err := PlotlySim(sim)
	if err != nil {
		return p, err
	}
	for i, f := range figs {
		p.Panels = append(p.Panels, Panel{ID: fmt.Sprintf("sim-%d", i+1), Title: f.Layout.Title.Text, Figure: f})
	}
	if sim.People == nil {
		return p, nil
	}
	people, err := PlotlyPeople(sim)
	if err != nil {
		return p, err
	}
	anim, err := PlotlyAnimate(sim)
	if err != nil {
		return p, err
	}
	p.Panels = append(p.Panels,
		Panel{ID: "people", Title: people.Layout.Title.Text, Figure: people},
		Panel{ID: "animation", Title: anim.Layout.Title.Text, Figure: anim},
	)
	return p, nil
}

var pageTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.PlotlyJS}}"></script>
<style>
body { font-family: sans-serif; margin: 1.5em; }
.plot { width: 100%; height: 520px; margin-bottom: 2em; }
footer { color: #777; font-size: 0.8em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Panels}}<h2>{{.Title}}</h2>
<div id="{{.ID}}" class="plot"></div>
<script>Plotly.newPlot({{.ID}}, {{.Figure}});</script>
{{end}}<footer>Generated {{.Generated.Format "2006-01-02 15:04:05 MST"}}</footer>
</body>
</html>
`))

// WriteDashboard renders p as a standalone HTML page.
func WriteDashboard(w io.Writer, p Page) error {
	if p.PlotlyJS == "" {
		p.PlotlyJS = DefaultPlotlyJS
	}
	return pageTmpl.Execute(w, p)
}

// WriteDashboardFile writes the page to path, creating missing folders.
func WriteDashboardFile(path string, p Page) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dashboard dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	if err := WriteDashboard(f, p); err != nil {
		f.Close()
		return fmt.Errorf("render dashboard: %w", err)
	}
	return f.Close()
}

// Handler serves the dashboard, rebuilding the page on every request so the latest
// results are shown. /figures.json returns the same panels as JSON.
func Handler(build func() (Page, error)) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		p, err := build()
		if err != nil {
			results.Errorf("[dashboard] build: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := WriteDashboard(w, p); err != nil {
			results.Errorf("[dashboard] render: %v", err)
		}
	})
	mux.HandleFunc("GET /figures.json", func(w http.ResponseWriter, r *http.Request) {
		p, err := build()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(p); err != nil {
			results.Errorf("[dashboard] encode: %v", err)
		}
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok\n")
	})
	return mux
}

// Serve runs the dashboard on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, build func() (Page, error)) error {
	srv := &http.Server{Addr: addr, Handler: Handler(build), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		results.Infof("[dashboard] serving on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown dashboard: %w", err)
		}
		<-errCh
		return nil
	}
}

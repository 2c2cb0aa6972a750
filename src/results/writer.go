package results

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ResultWriter appends envelopes to a JSONL file from a single goroutine fed by a
// buffered channel, so concurrent runs never interleave lines.
type ResultWriter struct {
	path string
	ch   chan *Envelope
	wg   sync.WaitGroup
	once sync.Once

	mu  sync.Mutex
	err error
}

// NewResultWriter opens path for appending (creating parent folders) and starts the writer.
func NewResultWriter(path string) (*ResultWriter, error) {
	if path == "" {
		path = DefaultResultsFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create results dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results file: %w", err)
	}
	Infof("[writer] results file (append): %s", path)
	return startWriter(path, f), nil
}

func startWriter(path string, dst io.WriteCloser) *ResultWriter {
	w := &ResultWriter{path: path, ch: make(chan *Envelope, 128)}
	w.wg.Add(1)
	go w.drain(dst)
	return w
}

// drain encodes queued envelopes until the channel closes, then closes dst.
func (w *ResultWriter) drain(dst io.WriteCloser) {
	defer w.wg.Done()
	enc := json.NewEncoder(dst)
	for env := range w.ch {
		if env == nil {
			continue
		}
		if err := enc.Encode(env); err != nil {
			Errorf("[writer] encode result: %v", err)
			w.setErr(err)
		}
	}
	if err := dst.Close(); err != nil {
		Errorf("[writer] close %s: %v", w.path, err)
		w.setErr(fmt.Errorf("close results file: %w", err))
	}
}

// Path returns the file being appended to.
func (w *ResultWriter) Path() string { return w.path }

// Write queues an envelope. It must not be called after Close.
func (w *ResultWriter) Write(env *Envelope) { w.ch <- env }

// Close flushes pending envelopes and returns the first encode or close error, if any.
func (w *ResultWriter) Close() error {
	w.once.Do(func() {
		close(w.ch)
		w.wg.Wait()
	})
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *ResultWriter) setErr(err error) {
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

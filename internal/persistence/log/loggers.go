package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"gridarena.ai/internal/sim/world"
	"gridarena.ai/internal/sim/world/kernel/model"
)

// JSONLZstdWriter appends one JSON document per line to a zstd stream.
// The file is created on the first write.
type JSONLZstdWriter struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewJSONLZstdWriter(path string) *JSONLZstdWriter {
	return &JSONLZstdWriter{path: path}
}

func (w *JSONLZstdWriter) Path() string { return w.path }

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush pushes buffered lines into the compressor and the compressor's
// current block to disk.
func (w *JSONLZstdWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *JSONLZstdWriter) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

// Record is one line of a run log. Exactly one field is set.
type Record struct {
	Header *world.RunHeader    `json:"header,omitempty"`
	Tick   *world.TickLogEntry `json:"tick,omitempty"`
	Result *world.Summary      `json:"result,omitempty"`
}

// TickLogger writes a run header, one entry per tick and the final result
// to <dir>/<runID>.jsonl.zst.
type TickLogger struct{ w *JSONLZstdWriter }

func RunLogPath(dir, runID string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.jsonl.zst", runID))
}

func NewTickLogger(dir string, h world.RunHeader) (*TickLogger, error) {
	l := &TickLogger{w: NewJSONLZstdWriter(RunLogPath(dir, h.RunID))}
	if err := l.w.Write(Record{Header: &h}); err != nil {
		_ = l.w.Close()
		return nil, err
	}
	return l, nil
}

func (l *TickLogger) Path() string { return l.w.Path() }

func (l *TickLogger) WriteTick(e world.TickLogEntry) error {
	return l.w.Write(Record{Tick: &e})
}

func (l *TickLogger) RecordResult(s world.Summary) error {
	if err := l.w.Write(Record{Result: &s}); err != nil {
		return err
	}
	return l.w.Flush()
}

func (l *TickLogger) Close() error { return l.w.Close() }

// EventLogger writes each tick's drained events as one line.
type EventLogger struct{ w *JSONLZstdWriter }

type EventBatch struct {
	Tick   uint64        `json:"tick"`
	Events []model.Event `json:"events"`
}

func EventLogPath(dir, runID string) string {
	return filepath.Join(dir, runID+".events.jsonl.zst")
}

func NewEventLogger(dir, runID string) *EventLogger {
	return &EventLogger{w: NewJSONLZstdWriter(EventLogPath(dir, runID))}
}

func (l *EventLogger) WriteEvents(tick uint64, evs []model.Event) error {
	return l.w.Write(EventBatch{Tick: tick, Events: evs})
}

func (l *EventLogger) Close() error { return l.w.Close() }

// ReadRun streams the records of a run log in order. A truncated final
// frame, as left by a crash, ends the stream without error.
func ReadRun(path string, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	return nil
}

// ReadTicks returns the run header and calls fn for every tick entry.
func ReadTicks(path string, fn func(world.TickLogEntry) error) (world.RunHeader, error) {
	var h world.RunHeader
	seen := false
	err := ReadRun(path, func(r Record) error {
		switch {
		case r.Header != nil:
			h, seen = *r.Header, true
		case r.Tick != nil:
			if !seen {
				return fmt.Errorf("tick %d before run header", r.Tick.Tick)
			}
			return fn(*r.Tick)
		}
		return nil
	})
	if err == nil && !seen {
		err = fmt.Errorf("%s: no run header", filepath.Base(path))
	}
	return h, err
}

// ReadEvents streams the batches of an event log.
func ReadEvents(path string, fn func(EventBatch) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var b EventBatch
		if err := json.Unmarshal(sc.Bytes(), &b); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if err := fn(b); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	return nil
}

package logging

import (
	"context"
	"log/slog"
	"sync"
)

// Record is one captured log record
type Record struct {
	Level   slog.Level
	Event   string
	Message string
	Attrs   map[string]any
}

// Recorder is a slog handler that keeps every record in memory. Tests use it
// to assert on scaffolding events.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	attrs   []slog.Attr
}

// NewRecorder returns Events backed by a fresh Recorder
func NewRecorder() (*Events, *Recorder) {
	r := &Recorder{}
	return NewEvents(slog.New(r)), r
}

func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	out := Record{Level: rec.Level, Message: rec.Message, Attrs: map[string]any{}}
	for _, a := range r.attrs {
		out.Attrs[a.Key] = a.Value.Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == "event" {
			out.Event = a.Value.String()
		} else {
			out.Attrs[a.Key] = a.Value.Any()
		}
		return true
	})
	r.mu.Lock()
	r.records = append(r.records, out)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attrs = append(r.attrs, attrs...)
	return r
}

func (r *Recorder) WithGroup(string) slog.Handler { return r }

// Records returns a copy of everything captured so far
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Events returns the captured records with the given event name
func (r *Recorder) Events(name string) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if rec.Event == name {
			out = append(out, rec)
		}
	}
	return out
}

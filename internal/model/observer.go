package model

import (
	"fmt"
	"io"
	"sync"
)

// Observer receives progress lines from the pipeline stages. It
// replaces ad-hoc log callbacks: every component takes an Observer by
// injection and never writes to a global.
type Observer interface {
	Progress(stage string, format string, args ...any)
}

type nopObserver struct{}

func (nopObserver) Progress(string, string, ...any) {}

// NopObserver discards all progress output
func NopObserver() Observer { return nopObserver{} }

type writerObserver struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterObserver writes one "[stage] message" line per event.
// Safe for concurrent use.
func NewWriterObserver(w io.Writer) Observer {
	return &writerObserver{w: w}
}

func (o *writerObserver) Progress(stage string, format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.w, "[%s] %s\n", stage, fmt.Sprintf(format, args...))
}

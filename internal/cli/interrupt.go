package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a run on SIGINT/SIGTERM and tells the user that
// the summary will cover only the pledges processed so far.
type InterruptHandler struct {
	writer      io.Writer
	cancel      context.CancelFunc
	signals     chan os.Signal
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a handler writing its notice to w.
func NewInterruptHandler(w io.Writer) *InterruptHandler {
	if w == nil {
		w = os.Stderr
	}
	return &InterruptHandler{writer: w}
}

// Watch returns a context canceled on the first interrupt signal. Call Stop
// when the run is over.
func (h *InterruptHandler) Watch(ctx context.Context) context.Context {
	ctx, h.cancel = context.WithCancel(ctx)
	h.signals = make(chan os.Signal, 1)
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-h.signals:
			h.interrupt()
		case <-ctx.Done():
		}
	}()

	return ctx
}

func (h *InterruptHandler) interrupt() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.interrupted {
		return
	}
	h.interrupted = true

	if _, err := fmt.Fprintln(h.writer, "\n"+FormatWarning("Interrupted, stopping after the current pledge")); err != nil {
		slog.Warn("Failed to write interrupt notice", "error", err)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Stop releases the signal subscription.
func (h *InterruptHandler) Stop() {
	if h.signals != nil {
		signal.Stop(h.signals)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// WasInterrupted reports whether a signal was received.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

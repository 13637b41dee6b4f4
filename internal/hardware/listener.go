package hardware

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"memoria/internal/logging"
)

// Listener reads protocol lines from the serial link and delivers decoded
// events to a channel. Malformed lines are logged and skipped; the stream
// only ends when the link closes or the context is cancelled.
type Listener struct {
	logger *slog.Logger
	events chan Event

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewListener constructs a listener delivering events with a small buffer so
// the serial read loop never blocks on a slow consumer burst.
func NewListener(logger *slog.Logger) *Listener {
	return &Listener{
		logger: logging.NewComponentLogger(logger, "hardware"),
		events: make(chan Event, 16),
	}
}

// Events returns the decoded event stream.
func (l *Listener) Events() <-chan Event {
	return l.events
}

// Start consumes the link until it closes or ctx is cancelled. It returns
// immediately; readers drain Events. Start is valid once per link; a second
// call while running is a no-op.
func (l *Listener) Start(ctx context.Context, link io.ReadCloser) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.running = true
	l.cancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() {
			l.mu.Lock()
			l.running = false
			l.mu.Unlock()
		}()
		l.readLoop(runCtx, link)
	}()

	// Close the link when the context ends so the blocking read returns.
	go func() {
		<-runCtx.Done()
		_ = link.Close()
	}()
}

// Stop terminates the read loop and waits for it to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
}

// Running reports whether the read loop is active.
func (l *Listener) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Listener) readLoop(ctx context.Context, link io.Reader) {
	scanner := bufio.NewScanner(link)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		event, err := ParseLine(line)
		if err != nil {
			if errors.Is(err, ErrUnrecognized) {
				continue
			}
			l.logger.Warn("discarding malformed line", logging.Error(err))
			continue
		}
		l.logger.Debug("hardware event",
			logging.String("kind", event.Kind.String()),
			logging.Int("count", event.Count),
		)
		select {
		case l.events <- event:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		l.logger.Warn("serial link read ended", logging.Error(err))
	}
}

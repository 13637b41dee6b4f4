package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"memoria/internal/hardware"
	"memoria/internal/logging"
	"memoria/internal/player"
	"memoria/internal/selection"
)

// Recorder is the capture side of the session: Begin on dial activation,
// End on deactivation.
type Recorder interface {
	Begin(ctx context.Context) error
	End() (string, error)
}

// Player is the playback side of the session.
type Player interface {
	Play(ctx context.Context, n int64, mode player.Mode) error
	StopNow()
}

// Orchestrator routes dial events into recording and playback actions. The
// event line reacts to the microphone switch and rotation counts; a separate
// playback line drains the selection queue so a long playlist never stalls
// event handling.
type Orchestrator struct {
	events   <-chan hardware.Event
	queue    *selection.Queue
	recorder Recorder
	player   Player
	logger   *slog.Logger
}

func New(events <-chan hardware.Event, queue *selection.Queue, recorder Recorder, playback Player, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		events:   events,
		queue:    queue,
		recorder: recorder,
		player:   playback,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Run processes events until the context is cancelled. Individual action
// failures are logged and absorbed; the appliance keeps listening.
func (o *Orchestrator) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.eventLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		o.playbackLoop(ctx)
	}()
	wg.Wait()
	return ctx.Err()
}

func (o *Orchestrator) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-o.events:
			if !ok {
				o.logger.Info("event stream closed")
				return
			}
			o.handleEvent(ctx, event)
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, event hardware.Event) {
	switch event.Kind {
	case hardware.EventMicActivated:
		o.player.StopNow()
		if err := o.recorder.Begin(ctx); err != nil {
			o.logger.Error("capture start failed", logging.Error(err))
		}
	case hardware.EventMicDeactivated:
		path, err := o.recorder.End()
		if err != nil {
			o.logger.Error("capture end failed", logging.Error(err))
			return
		}
		if path != "" {
			o.logger.Info("take staged", logging.String("path", path))
		}
	case hardware.EventRotation:
		o.logger.Debug("selection dialed", logging.Int("count", event.Count))
		o.queue.Enqueue(event.Count)
	}
}

func (o *Orchestrator) playbackLoop(ctx context.Context) {
	debouncer := selection.NewDebouncer(o.queue)
	for {
		count, err := debouncer.Next(ctx)
		if err != nil {
			return
		}
		o.player.StopNow()
		if err := o.player.Play(ctx, int64(count), player.ModeByTopic); err != nil {
			o.logger.Error("playback failed",
				logging.Int("selection", count),
				logging.Error(err))
		}
	}
}

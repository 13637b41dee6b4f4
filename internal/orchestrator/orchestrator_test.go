package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"memoria/internal/hardware"
	"memoria/internal/logging"
	"memoria/internal/player"
	"memoria/internal/selection"
)

type scriptedRecorder struct {
	mu     sync.Mutex
	begins int
	ends   int
	path   string
}

func (r *scriptedRecorder) Begin(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begins++
	return nil
}

func (r *scriptedRecorder) End() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends++
	return r.path, nil
}

func (r *scriptedRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.begins, r.ends
}

type scriptedPlayer struct {
	mu     sync.Mutex
	plays  []int64
	modes  []player.Mode
	stops  int
	played chan struct{}
}

func (p *scriptedPlayer) Play(ctx context.Context, n int64, mode player.Mode) error {
	p.mu.Lock()
	p.plays = append(p.plays, n)
	p.modes = append(p.modes, mode)
	p.mu.Unlock()
	if p.played != nil {
		p.played <- struct{}{}
	}
	return nil
}

func (p *scriptedPlayer) StopNow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *scriptedPlayer) snapshot() ([]int64, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.plays...), p.stops
}

func startOrchestrator(t *testing.T, events chan hardware.Event, queue *selection.Queue, rec Recorder, play Player) (context.CancelFunc, chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	orch := New(events, queue, rec, play, logging.NewNop())
	go func() {
		defer close(done)
		orch.Run(ctx)
	}()
	return cancel, done
}

func waitFor(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestMicEventsDriveTheRecorder(t *testing.T) {
	events := make(chan hardware.Event, 4)
	queue := selection.NewQueue()
	rec := &scriptedRecorder{path: "/tmp/take.wav"}
	play := &scriptedPlayer{}
	cancel, done := startOrchestrator(t, events, queue, rec, play)
	defer func() { cancel(); <-done }()

	events <- hardware.Event{Kind: hardware.EventMicActivated}
	waitFor(t, "capture to begin", func() bool {
		begins, _ := rec.counts()
		return begins == 1
	})
	_, stops := play.snapshot()
	if stops == 0 {
		t.Fatal("activation should stop playback before capturing")
	}

	events <- hardware.Event{Kind: hardware.EventMicDeactivated}
	waitFor(t, "capture to end", func() bool {
		_, ends := rec.counts()
		return ends == 1
	})
}

func TestRotationEventsPlayTheDialedCategory(t *testing.T) {
	events := make(chan hardware.Event, 4)
	queue := selection.NewQueue()
	rec := &scriptedRecorder{}
	play := &scriptedPlayer{played: make(chan struct{}, 4)}
	cancel, done := startOrchestrator(t, events, queue, rec, play)
	defer func() { cancel(); <-done }()

	events <- hardware.Event{Kind: hardware.EventRotation, Count: 3}
	select {
	case <-play.played:
	case <-time.After(2 * time.Second):
		t.Fatal("rotation never reached the player")
	}

	plays, stops := play.snapshot()
	if len(plays) != 1 || plays[0] != 3 {
		t.Fatalf("played %v, want [3]", plays)
	}
	if play.modes[0] != player.ModeByTopic {
		t.Fatalf("dial playback mode = %v, want topic", play.modes[0])
	}
	if stops == 0 {
		t.Fatal("a new selection should stop any current playback first")
	}
}

func TestConsecutiveDuplicateRotationsPlayOnce(t *testing.T) {
	events := make(chan hardware.Event, 8)
	queue := selection.NewQueue()
	rec := &scriptedRecorder{}
	play := &scriptedPlayer{played: make(chan struct{}, 8)}
	cancel, done := startOrchestrator(t, events, queue, rec, play)
	defer func() { cancel(); <-done }()

	for _, count := range []int{5, 5, 5} {
		events <- hardware.Event{Kind: hardware.EventRotation, Count: count}
	}
	select {
	case <-play.played:
	case <-time.After(2 * time.Second):
		t.Fatal("rotation never reached the player")
	}
	// Allow any (incorrect) second playback a moment to surface.
	time.Sleep(50 * time.Millisecond)

	plays, _ := play.snapshot()
	if len(plays) != 1 || plays[0] != 5 {
		t.Fatalf("played %v, want a single debounced [5]", plays)
	}
}

func TestClosedEventStreamStopsTheEventLine(t *testing.T) {
	events := make(chan hardware.Event)
	queue := selection.NewQueue()
	cancel, done := startOrchestrator(t, events, queue, &scriptedRecorder{}, &scriptedPlayer{})

	close(events)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not shut down")
	}
}

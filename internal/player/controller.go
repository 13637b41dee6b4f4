package player

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"memoria/internal/audio"
	"memoria/internal/catalog"
	"memoria/internal/config"
	"memoria/internal/logging"
)

// Mode selects how Play turns a dial count into a track list.
type Mode int

const (
	// ModeByTopic plays the recordings filed under a category id.
	ModeByTopic Mode = iota
	// ModeByYear plays the recordings created in a calendar year.
	ModeByYear
)

func (m Mode) String() string {
	switch m {
	case ModeByTopic:
		return "topic"
	case ModeByYear:
		return "year"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Catalog is the slice of the store the playback controller reads from.
type Catalog interface {
	GetCategory(ctx context.Context, id int64) (*catalog.Category, error)
	RecordingsByCategory(ctx context.Context, categoryID int64) ([]catalog.Recording, error)
	RecordingsByYear(ctx context.Context, year int) ([]catalog.Recording, error)
}

// Interrupter exposes a channel that is closed while a new selection is
// waiting. An in-flight playlist yields to it immediately.
type Interrupter interface {
	Ready() <-chan struct{}
}

// Controller plays a category's recordings back to back, announcing the
// category name first when an announcement clip exists. StopNow halts the
// current track synchronously and may be called from any goroutine.
type Controller struct {
	cfg       *config.Config
	store     Catalog
	player    audio.Player
	prober    audio.DurationProber
	interrupt Interrupter
	logger    *slog.Logger

	mu      sync.Mutex
	handle  audio.PlaybackHandle
	cancel  context.CancelFunc
	playing bool
}

func NewController(cfg *config.Config, store Catalog, player audio.Player, prober audio.DurationProber, interrupt Interrupter, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		cfg:       cfg,
		store:     store,
		player:    player,
		prober:    prober,
		interrupt: interrupt,
		logger:    logging.NewComponentLogger(logger, "player"),
	}
}

// Play resolves n into a track list according to mode and plays every track
// in catalog order. It returns once the list finishes, the context is
// cancelled, StopNow is called, or a new selection interrupts it.
func (c *Controller) Play(ctx context.Context, n int64, mode Mode) error {
	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.cancel = cancel
	c.playing = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.playing = false
		c.mu.Unlock()
	}()

	var announcement string
	var tracks []catalog.Recording
	switch mode {
	case ModeByTopic:
		category, err := c.store.GetCategory(playCtx, n)
		if err != nil {
			return fmt.Errorf("load category %d: %w", n, err)
		}
		if category == nil {
			c.logger.Info("no category for selection", logging.Int64("category_id", n))
			return nil
		}
		announcement = category.NameAudioPath
		tracks, err = c.store.RecordingsByCategory(playCtx, n)
		if err != nil {
			return fmt.Errorf("load recordings for category %d: %w", n, err)
		}
	case ModeByYear:
		var err error
		tracks, err = c.store.RecordingsByYear(playCtx, int(n))
		if err != nil {
			return fmt.Errorf("load recordings for year %d: %w", n, err)
		}
	default:
		return fmt.Errorf("unknown playback mode %d", int(mode))
	}

	if len(tracks) == 0 {
		c.logger.Info("nothing to play",
			logging.String("mode", mode.String()),
			logging.Int64("selection", n))
		return nil
	}

	c.logger.Info("playlist started",
		logging.String("mode", mode.String()),
		logging.Int64("selection", n),
		logging.Int("tracks", len(tracks)))

	if announcement != "" {
		if done, err := c.playTrack(playCtx, announcement); err != nil || done {
			return err
		}
		if done, err := c.gap(playCtx); err != nil || done {
			return err
		}
	}

	for i, track := range tracks {
		if done, err := c.playTrack(playCtx, track.FilePath); err != nil || done {
			return err
		}
		if i < len(tracks)-1 {
			if done, err := c.gap(playCtx); err != nil || done {
				return err
			}
		}
	}
	c.logger.Info("playlist finished", logging.Int("tracks", len(tracks)))
	return nil
}

// StopNow halts the current track and unwinds the play loop. It blocks until
// the playback process has exited and is safe to call when nothing is
// playing.
func (c *Controller) StopNow() {
	c.mu.Lock()
	cancel := c.cancel
	handle := c.handle
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if handle != nil {
		if err := handle.Stop(); err != nil {
			c.logger.Warn("playback stop failed", logging.Error(err))
		}
	}
}

// Playing reports whether a playlist is in flight.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// playTrack plays a single file to completion. The bool result is true when
// the playlist should stop early. Missing or unreadable tracks are skipped.
func (c *Controller) playTrack(ctx context.Context, path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		c.logger.Warn("track file unavailable, skipping", logging.String("path", path))
		return false, nil
	}
	duration, err := c.prober.Duration(ctx, path)
	if err != nil {
		c.logger.Warn("track probe failed, skipping",
			logging.String("path", path),
			logging.Error(err))
		return false, nil
	}

	// Start and handle registration share one critical section with StopNow:
	// a stop either sees the registered handle or cancels before the process
	// exists, so no track can keep sounding after StopNow returns.
	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return true, nil
	}
	handle, err := c.player.Start(ctx, path)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("track start failed, skipping",
			logging.String("path", path),
			logging.Error(err))
		return false, nil
	}
	c.handle = handle
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.handle = nil
		c.mu.Unlock()
	}()

	c.logger.Debug("track playing",
		logging.String("path", path),
		logging.Duration("duration", duration))

	// The timer bounds the wait should the player neither exit nor report.
	timer := time.NewTimer(duration + time.Second)
	defer timer.Stop()

	var interruptCh <-chan struct{}
	if c.interrupt != nil {
		interruptCh = c.interrupt.Ready()
	}

	select {
	case <-handle.Done():
		return false, nil
	case <-timer.C:
		c.stopHandle(handle)
		return false, nil
	case <-interruptCh:
		c.logger.Info("playback interrupted by new selection")
		c.stopHandle(handle)
		return true, nil
	case <-ctx.Done():
		c.stopHandle(handle)
		return true, nil
	}
}

// gap waits the configured silence between tracks. The bool result is true
// when the playlist should stop early.
func (c *Controller) gap(ctx context.Context) (bool, error) {
	gap := time.Duration(c.cfg.Audio.TrackGapMillis) * time.Millisecond
	if gap <= 0 {
		return false, nil
	}
	timer := time.NewTimer(gap)
	defer timer.Stop()

	var interruptCh <-chan struct{}
	if c.interrupt != nil {
		interruptCh = c.interrupt.Ready()
	}

	select {
	case <-timer.C:
		return false, nil
	case <-interruptCh:
		c.logger.Info("playback interrupted by new selection")
		return true, nil
	case <-ctx.Done():
		return true, nil
	}
}

func (c *Controller) stopHandle(handle audio.PlaybackHandle) {
	if err := handle.Stop(); err != nil {
		c.logger.Warn("playback stop failed", logging.Error(err))
	}
}

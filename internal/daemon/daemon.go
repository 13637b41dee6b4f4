package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"memoria/internal/audio"
	"memoria/internal/catalog"
	"memoria/internal/classify"
	"memoria/internal/config"
	"memoria/internal/deps"
	"memoria/internal/hardware"
	"memoria/internal/ingest"
	"memoria/internal/logging"
	"memoria/internal/orchestrator"
	"memoria/internal/player"
	"memoria/internal/recorder"
	"memoria/internal/selection"
	"memoria/internal/services/elevenlabs"
	"memoria/internal/services/openai"
)

// Daemon wires the appliance together: the serial listener feeding the
// orchestrator, the ingest sweep, and the shared catalog. It enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	listener *hardware.Listener
	queue    *selection.Queue
	orch     *orchestrator.Orchestrator
	pipeline *ingest.Pipeline
	serial   *serialMonitor
	playback *player.Controller

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	SerialLinkUp  bool
	Playing       bool
	PendingDials  int
	CatalogDBPath string
	LockFilePath  string
	Categories    int
	Recordings    int
	StatusError   string
}

// New constructs a daemon with its full subsystem graph.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	openaiClient := openai.NewClient(openai.Config{
		APIKey:          cfg.OpenAI.APIKey,
		BaseURL:         cfg.OpenAI.BaseURL,
		TranscribeModel: cfg.OpenAI.TranscribeModel,
		EmbeddingModel:  cfg.OpenAI.EmbeddingModel,
		NamingModel:     cfg.OpenAI.NamingModel,
		TimeoutSeconds:  cfg.OpenAI.TimeoutSeconds,
	})
	elevenClient := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:         cfg.ElevenLabs.APIKey,
		BaseURL:        cfg.ElevenLabs.BaseURL,
		VoiceID:        cfg.ElevenLabs.VoiceID,
		ModelID:        cfg.ElevenLabs.ModelID,
		TimeoutSeconds: cfg.ElevenLabs.TimeoutSeconds,
	})

	engine := classify.NewEngine(cfg, store, openaiClient, elevenClient, logger)
	converter := audio.NewFFmpegConverter(cfg.FFmpegBinary())
	pipeline := ingest.NewPipeline(cfg, store, converter, openaiClient, engine, logger)

	queue := selection.NewQueue()
	prober := audio.NewFFprobeProber(cfg.FFprobeBinary(), time.Duration(cfg.Audio.ProbeTimeout)*time.Second)
	playback := player.NewController(cfg, store,
		audio.NewFFplayPlayer(cfg.FFplayBinary()), prober, queue, logger)
	capture := recorder.NewController(cfg,
		audio.NewFFmpegCapture(cfg.FFmpegBinary(), cfg.Audio.CaptureDevice), playback, logger)

	listener := hardware.NewListener(logger)
	orch := orchestrator.New(listener.Events(), queue, capture, playback, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "memoriad.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		listener: listener,
		queue:    queue,
		orch:     orch,
		pipeline: pipeline,
		playback: playback,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.serial = newSerialMonitor(cfg, listener, logger)
	return d, nil
}

// Start acquires the instance lock and launches the orchestrator, the serial
// monitor, and the ingest sweep. It returns once everything is running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another memoria daemon instance is already running")
	}

	for _, missing := range deps.Missing(deps.CheckBinaries(deps.Requirements(d.cfg))) {
		d.logger.Warn("external tool unavailable",
			logging.String("name", missing.Name),
			logging.String("detail", missing.Detail))
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.orch.Run(runCtx)
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.pipeline.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("ingest sweep exited", logging.Error(err))
		}
	}()

	d.serial.Start(runCtx)

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("serial_device", d.cfg.Hardware.SerialDevice))
	return nil
}

// Stop halts playback, the serial link, and the background loops, then
// releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.playback.StopNow()
	d.serial.Stop()
	d.listener.Stop()
	d.wg.Wait()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases the catalog.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon loops are active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status returns a snapshot of the daemon and its catalog.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		SerialLinkUp:  d.listener.Running(),
		Playing:       d.playback.Playing(),
		PendingDials:  d.queue.PendingCount(),
		CatalogDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
	}
	categories, err := d.store.ListCategories(ctx)
	if err != nil {
		status.StatusError = err.Error()
		return status
	}
	status.Categories = len(categories)
	recordings, err := d.store.ListRecordings(ctx)
	if err != nil {
		status.StatusError = err.Error()
		return status
	}
	status.Recordings = len(recordings)
	return status
}

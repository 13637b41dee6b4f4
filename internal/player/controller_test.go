package player

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"memoria/internal/audio"
	"memoria/internal/catalog"
	"memoria/internal/config"
	"memoria/internal/logging"
	"memoria/internal/selection"
	"memoria/internal/testsupport"
)

type fakeHandle struct {
	done    chan struct{}
	once    sync.Once
	stopped bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{done: make(chan struct{})}
}

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) Stop() error {
	h.once.Do(func() {
		h.stopped = true
		close(h.done)
	})
	return nil
}

func (h *fakeHandle) finish() {
	h.once.Do(func() { close(h.done) })
}

type fakePlayer struct {
	mu      sync.Mutex
	started []string
	handles []*fakeHandle
	// autoFinish closes each handle immediately so playlists run through.
	autoFinish bool
	// startHook runs inside Start, before the handle is returned.
	startHook func()
}

func (p *fakePlayer) Start(ctx context.Context, path string) (audio.PlaybackHandle, error) {
	if p.startHook != nil {
		p.startHook()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	handle := newFakeHandle()
	p.started = append(p.started, path)
	p.handles = append(p.handles, handle)
	if p.autoFinish {
		handle.finish()
	}
	return handle, nil
}

func (p *fakePlayer) startedPaths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.started...)
}

func (p *fakePlayer) startedHandles() []*fakeHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*fakeHandle(nil), p.handles...)
}

type fakeProber struct{}

func (fakeProber) Duration(ctx context.Context, path string) (time.Duration, error) {
	return 10 * time.Millisecond, nil
}

func touchFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func seedCategory(t *testing.T, store *catalog.Store, cfg *config.Config, name string, tracks int) (*catalog.Category, []string) {
	t.Helper()
	cat, err := store.CreateCategory(context.Background(), name, []float32{1, 0})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	paths := make([]string, 0, tracks)
	for i := 0; i < tracks; i++ {
		path := touchFile(t, cfg.Paths.RecordingsDir, name+"_"+time.Now().Format("150405")+"_"+string(rune('a'+i))+".m4a")
		_, err := store.InsertRecording(context.Background(), &catalog.Recording{
			Transcription: "take",
			Embedding:     []float32{1, 0},
			CategoryID:    cat.ID,
			FilePath:      path,
		})
		if err != nil {
			t.Fatalf("insert recording: %v", err)
		}
		paths = append(paths, path)
	}
	return cat, paths
}

func TestPlayByTopicPlaysTracksInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Audio.TrackGapMillis = 1
	store := testsupport.MustOpenStore(t, cfg)
	cat, paths := seedCategory(t, store, cfg, "garden", 3)

	player := &fakePlayer{autoFinish: true}
	ctrl := NewController(cfg, store, player, fakeProber{}, nil, logging.NewNop())

	if err := ctrl.Play(context.Background(), cat.ID, ModeByTopic); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	started := player.startedPaths()
	if len(started) != len(paths) {
		t.Fatalf("started %d tracks, want %d", len(started), len(paths))
	}
	for i, path := range paths {
		if started[i] != path {
			t.Fatalf("track %d = %s, want %s", i, started[i], path)
		}
	}
}

func TestPlayAnnouncesCategoryNameFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Audio.TrackGapMillis = 1
	store := testsupport.MustOpenStore(t, cfg)
	cat, paths := seedCategory(t, store, cfg, "travel", 1)
	announce := touchFile(t, cfg.Paths.CategoryAudioDir, "travel.mp3")
	if err := store.SetCategoryAudioPath(context.Background(), cat.ID, announce); err != nil {
		t.Fatalf("set category audio path: %v", err)
	}

	player := &fakePlayer{autoFinish: true}
	ctrl := NewController(cfg, store, player, fakeProber{}, nil, logging.NewNop())

	if err := ctrl.Play(context.Background(), cat.ID, ModeByTopic); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	started := player.startedPaths()
	if len(started) != 2 {
		t.Fatalf("started %d tracks, want announcement plus recording", len(started))
	}
	if started[0] != announce {
		t.Fatalf("first track = %s, want announcement %s", started[0], announce)
	}
	if started[1] != paths[0] {
		t.Fatalf("second track = %s, want %s", started[1], paths[0])
	}
}

func TestPlaySkipsMissingTrackFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Audio.TrackGapMillis = 1
	store := testsupport.MustOpenStore(t, cfg)
	cat, paths := seedCategory(t, store, cfg, "kitchen", 2)
	if err := os.Remove(paths[0]); err != nil {
		t.Fatalf("remove track: %v", err)
	}

	player := &fakePlayer{autoFinish: true}
	ctrl := NewController(cfg, store, player, fakeProber{}, nil, logging.NewNop())

	if err := ctrl.Play(context.Background(), cat.ID, ModeByTopic); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	started := player.startedPaths()
	if len(started) != 1 || started[0] != paths[1] {
		t.Fatalf("started %v, want only %s", started, paths[1])
	}
}

func TestPlayEmptyCategoryIsQuiet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cat, err := store.CreateCategory(context.Background(), "empty", []float32{0, 1})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	player := &fakePlayer{autoFinish: true}
	ctrl := NewController(cfg, store, player, fakeProber{}, nil, logging.NewNop())

	if err := ctrl.Play(context.Background(), cat.ID, ModeByTopic); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if len(player.startedPaths()) != 0 {
		t.Fatal("empty category should start no tracks")
	}
}

func TestPlayUnknownCategoryIsQuiet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	player := &fakePlayer{autoFinish: true}
	ctrl := NewController(cfg, store, player, fakeProber{}, nil, logging.NewNop())

	if err := ctrl.Play(context.Background(), 42, ModeByTopic); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if len(player.startedPaths()) != 0 {
		t.Fatal("unknown category should start no tracks")
	}
}

func TestNewSelectionInterruptsPlayback(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Audio.TrackGapMillis = 1
	store := testsupport.MustOpenStore(t, cfg)
	cat, _ := seedCategory(t, store, cfg, "longform", 3)

	queue := selection.NewQueue()
	player := &fakePlayer{}
	ctrl := NewController(cfg, store, player, fakeProber{}, queue, logging.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Play(context.Background(), cat.ID, ModeByTopic)
	}()

	// Wait for the first track to start, then dial a new selection.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(player.startedPaths()) > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if len(player.startedPaths()) == 0 {
		t.Fatal("first track never started")
	}
	queue.Enqueue(7)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Play returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("playlist did not yield to the new selection")
	}
	if got := len(player.startedPaths()); got != 1 {
		t.Fatalf("started %d tracks, want the playlist to stop after the first", got)
	}
	player.mu.Lock()
	stopped := player.handles[0].stopped
	player.mu.Unlock()
	if !stopped {
		t.Fatal("interrupted track should have been stopped")
	}
}

func TestStopNowHaltsPlayback(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Audio.TrackGapMillis = 1
	store := testsupport.MustOpenStore(t, cfg)
	cat, _ := seedCategory(t, store, cfg, "evening", 2)

	player := &fakePlayer{}
	ctrl := NewController(cfg, store, player, fakeProber{}, nil, logging.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Play(context.Background(), cat.ID, ModeByTopic)
	}()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if ctrl.Playing() && len(player.startedPaths()) > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	ctrl.StopNow()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Play returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("StopNow did not unwind the playlist")
	}
	if ctrl.Playing() {
		t.Fatal("controller should be idle after StopNow")
	}
	// A second StopNow with nothing playing must be harmless.
	ctrl.StopNow()
}

func TestStopNowWaitsForTrackStartedConcurrently(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Audio.TrackGapMillis = 1
	store := testsupport.MustOpenStore(t, cfg)
	cat, _ := seedCategory(t, store, cfg, "night", 2)

	player := &fakePlayer{}
	ctrl := NewController(cfg, store, player, fakeProber{}, nil, logging.NewNop())

	// StopNow fires while Start is still in flight; it must wait for the
	// handle and stop it before returning.
	stopReturned := make(chan struct{})
	var stopOnce sync.Once
	player.startHook = func() {
		stopOnce.Do(func() {
			go func() {
				ctrl.StopNow()
				close(stopReturned)
			}()
			time.Sleep(20 * time.Millisecond)
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Play(context.Background(), cat.ID, ModeByTopic)
	}()

	select {
	case <-stopReturned:
	case <-time.After(2 * time.Second):
		t.Fatal("StopNow did not return")
	}
	handles := player.startedHandles()
	if len(handles) == 0 {
		t.Fatal("the first track should have started")
	}
	if !handles[0].stopped {
		t.Fatal("StopNow returned before the in-flight track was stopped")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Play returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not unwind after StopNow")
	}
}

func TestPlayByYearSelectsMatchingRecordings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Audio.TrackGapMillis = 1
	store := testsupport.MustOpenStore(t, cfg)
	cat, err := store.CreateCategory(context.Background(), "archive", []float32{1, 1})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	oldPath := touchFile(t, cfg.Paths.RecordingsDir, "old.m4a")
	newPath := touchFile(t, cfg.Paths.RecordingsDir, "new.m4a")
	if _, err := store.InsertRecording(context.Background(), &catalog.Recording{
		Transcription: "old take",
		Embedding:     []float32{1, 1},
		CreationDate:  time.Date(2023, 6, 1, 12, 0, 0, 0, time.Local),
		CategoryID:    cat.ID,
		FilePath:      oldPath,
	}); err != nil {
		t.Fatalf("insert recording: %v", err)
	}
	if _, err := store.InsertRecording(context.Background(), &catalog.Recording{
		Transcription: "new take",
		Embedding:     []float32{1, 1},
		CreationDate:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local),
		CategoryID:    cat.ID,
		FilePath:      newPath,
	}); err != nil {
		t.Fatalf("insert recording: %v", err)
	}

	player := &fakePlayer{autoFinish: true}
	ctrl := NewController(cfg, store, player, fakeProber{}, nil, logging.NewNop())

	if err := ctrl.Play(context.Background(), 2023, ModeByYear); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	started := player.startedPaths()
	if len(started) != 1 || started[0] != oldPath {
		t.Fatalf("started %v, want only %s", started, oldPath)
	}
}

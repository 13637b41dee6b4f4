package catalog

import "time"

// Category is a semantic grouping of recordings. The embedding is the centroid
// used for matching: the embedding of the transcription that created the
// category, not a running average. Categories are immutable after creation
// apart from the spoken-name audio path, which is filled in once synthesis
// succeeds.
type Category struct {
	ID   int64
	Name string
	// Embedding is the fixed-length centroid vector.
	Embedding []float32
	// NameAudioPath points at the synthesized spoken rendering of Name.
	// Empty means the announcement is skipped during playback.
	NameAudioPath string
}

// Recording is one archived voice note.
type Recording struct {
	ID            int64
	Transcription string
	Embedding     []float32
	CreationDate  time.Time
	CategoryID    int64
	FilePath      string
}

// Year returns the four-digit creation year used by time-mode playback.
func (r Recording) Year() int {
	return r.CreationDate.Year()
}

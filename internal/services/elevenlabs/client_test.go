package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSynthesizePostsToVoiceEndpoint(t *testing.T) {
	var gotPath, gotKey, gotAccept string
	var gotBody struct {
		Text    string `json:"text"`
		ModelID string `json:"model_id"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		gotAccept = r.Header.Get("Accept")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		VoiceID: "voice-1",
		ModelID: "eleven_monolingual_v1",
	})

	audio, err := client.Synthesize(context.Background(), "Morning Walks")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Fatalf("Synthesize() audio = %q, want %q", audio, "mp3-bytes")
	}
	if gotPath != "/text-to-speech/voice-1" {
		t.Errorf("request path = %q, want /text-to-speech/voice-1", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("xi-api-key header = %q, want test-key", gotKey)
	}
	if gotAccept != "audio/mpeg" {
		t.Errorf("Accept header = %q, want audio/mpeg", gotAccept)
	}
	if gotBody.Text != "Morning Walks" {
		t.Errorf("body text = %q, want Morning Walks", gotBody.Text)
	}
	if gotBody.ModelID != "eleven_monolingual_v1" {
		t.Errorf("body model_id = %q, want eleven_monolingual_v1", gotBody.ModelID)
	}
}

func TestSynthesizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, VoiceID: "missing"})
	if _, err := client.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("Synthesize() error = nil, want http failure")
	} else if !strings.Contains(err.Error(), "404") {
		t.Fatalf("Synthesize() error = %v, want status code in message", err)
	}
}

func TestSynthesizeRequiresText(t *testing.T) {
	client := NewClient(Config{APIKey: "test-key", VoiceID: "voice-1"})
	if _, err := client.Synthesize(context.Background(), "   "); err == nil {
		t.Fatal("Synthesize() error = nil, want text required error")
	}
}

func TestSynthesizeRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{VoiceID: "voice-1"})
	if _, err := client.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("Synthesize() error = nil, want api key error")
	}
}

func TestEnabled(t *testing.T) {
	if NewClient(Config{}).Enabled() {
		t.Error("Enabled() = true without api key")
	}
	if !NewClient(Config{APIKey: "k"}).Enabled() {
		t.Error("Enabled() = false with api key")
	}
	if NewClient(Config{APIKey: "   "}).Enabled() {
		t.Error("Enabled() = true with blank api key")
	}
}

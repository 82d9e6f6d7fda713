package record

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// HTTPTranscriber posts the captured audio to a speech-to-text endpoint as
// multipart form data and expects a JSON body with a "text" field.
type HTTPTranscriber struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audioRef string) (string, error) {
	f, err := os.Open(audioRef)
	if err != nil {
		return "", fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", filepath.Base(audioRef))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.Endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if t.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}

	client := t.Client
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription API error (status %d): %s", resp.StatusCode, raw)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Text == "" {
		return "", fmt.Errorf("transcription API returned no text")
	}
	return out.Text, nil
}

// StaticTranscriber returns a canned transcript after a short delay. Used
// when no speech-to-text endpoint is configured, so the recording pipeline
// stays exercisable end to end.
type StaticTranscriber struct {
	Text  string
	Delay time.Duration
}

const defaultStubTranscript = "This is a voice message transcription. Configure a speech-to-text endpoint to get real transcripts."

func (t *StaticTranscriber) Transcribe(ctx context.Context, audioRef string) (string, error) {
	delay := t.Delay
	if delay == 0 {
		delay = 1500 * time.Millisecond
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if t.Text == "" {
		return defaultStubTranscript, nil
	}
	return t.Text, nil
}

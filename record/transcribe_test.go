package record

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCapture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cap.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFfake"), 0o644))
	return path
}

func TestHTTPTranscriber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("audio"); err != nil {
			http.Error(w, "missing audio part", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"text":"transcribed words"}`))
	}))
	defer server.Close()

	tr := &HTTPTranscriber{Endpoint: server.URL}
	text, err := tr.Transcribe(context.Background(), writeCapture(t))
	require.NoError(t, err)
	assert.Equal(t, "transcribed words", text)
}

func TestHTTPTranscriberServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tr := &HTTPTranscriber{Endpoint: server.URL}
	_, err := tr.Transcribe(context.Background(), writeCapture(t))
	assert.Error(t, err)
}

func TestHTTPTranscriberEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":""}`))
	}))
	defer server.Close()

	tr := &HTTPTranscriber{Endpoint: server.URL}
	_, err := tr.Transcribe(context.Background(), writeCapture(t))
	assert.Error(t, err)
}

func TestHTTPTranscriberMissingCapture(t *testing.T) {
	tr := &HTTPTranscriber{Endpoint: "http://localhost:0"}
	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "gone.wav"))
	assert.Error(t, err)
}

func TestStaticTranscriber(t *testing.T) {
	tr := &StaticTranscriber{Delay: time.Millisecond}
	text, err := tr.Transcribe(context.Background(), "whatever")
	require.NoError(t, err)
	assert.Equal(t, defaultStubTranscript, text)

	tr = &StaticTranscriber{Text: "custom", Delay: time.Millisecond}
	text, err = tr.Transcribe(context.Background(), "whatever")
	require.NoError(t, err)
	assert.Equal(t, "custom", text)
}

func TestStaticTranscriberContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := &StaticTranscriber{Delay: time.Minute}
	_, err := tr.Transcribe(ctx, "whatever")
	assert.Error(t, err)
}

package record

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle position of one recording session.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
	StateTranscribing
	StateReady
	StateSent
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateTranscribing:
		return "transcribing"
	case StateReady:
		return "ready"
	case StateSent:
		return "sent"
	case StateDiscarded:
		return "discarded"
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSent || s == StateDiscarded
}

var (
	// ErrDeviceUnavailable means the capture device could not be acquired.
	// Surfaced once, never retried automatically.
	ErrDeviceUnavailable = errors.New("record: capture device unavailable")
	// ErrTranscriptionFailed means the transcription attempt failed; the
	// session stays re-tryable without re-recording.
	ErrTranscriptionFailed = errors.New("record: transcription failed")
	// ErrInvalidTransition is returned by operations invoked from a state
	// that does not permit them.
	ErrInvalidTransition = errors.New("record: invalid state transition")
)

// Recorder is the audio-capture capability. Implementations own the device
// for the duration of a capture and must release it on Stop and Release.
type Recorder interface {
	Start(ctx context.Context) error
	Pause() error
	Resume() error
	// Stop finalizes the capture into an addressable resource and releases
	// the device.
	Stop(ctx context.Context) (audioRef string, err error)
	// Release abandons the capture, releasing the device and deleting any
	// partial resource.
	Release()
}

// Transcriber turns a finished capture into text. Fallible; swapping the
// implementation never touches the session state machine.
type Transcriber interface {
	Transcribe(ctx context.Context, audioRef string) (string, error)
}

// Voice is the finished payload a session hands over on Send.
type Voice struct {
	Transcript      string
	AudioRef        string
	DurationSeconds int
}

// Session drives one audio capture → transcript → send cycle:
//
//	Idle → Recording ⇄ Paused → Stopped → Transcribing → Ready → Sent
//
// Discard is valid from any non-terminal state. Sent and Discarded are
// terminal; a fresh Session starts over at Idle. At most one session is
// expected to be active at a time, the surrounding UI enforces that.
type Session struct {
	mu  sync.Mutex
	rec Recorder
	tr  Transcriber

	state      State
	elapsed    int
	audioRef   string
	transcript string
}

func NewSession(rec Recorder, tr Transcriber) *Session {
	return &Session{rec: rec, tr: tr, state: StateIdle}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed is the captured duration in whole seconds.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Start acquires the capture device and enters Recording. On failure the
// session stays Idle and the error wraps ErrDeviceUnavailable.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.state)
	}
	if err := s.rec.Start(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	s.state = StateRecording
	return nil
}

// Pause freezes the capture and the elapsed counter. No-op outside Recording.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return
	}
	if err := s.rec.Pause(); err != nil {
		return
	}
	s.state = StatePaused
}

// Resume continues a paused capture. No-op outside Paused.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return
	}
	if err := s.rec.Resume(); err != nil {
		return
	}
	s.state = StateRecording
}

// Tick advances the elapsed counter by one second. Driven by the UI clock
// once per second; counts only while Recording.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRecording {
		s.elapsed++
	}
}

// Stop finalizes the capture into an addressable resource, releases the
// device and enters Stopped. The caller is expected to follow up with
// Transcribe immediately.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording && s.state != StatePaused {
		return fmt.Errorf("%w: stop from %s", ErrInvalidTransition, s.state)
	}

	ref, err := s.rec.Stop(ctx)
	if err != nil {
		s.rec.Release()
		s.state = StateDiscarded
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	s.audioRef = ref
	s.state = StateStopped
	return nil
}

// Transcribe runs the transcription capability over the finished capture:
// Stopped → Transcribing → Ready. On failure the session returns to Stopped
// with ErrTranscriptionFailed, permitting a retry without re-recording.
func (s *Session) Transcribe(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return fmt.Errorf("%w: transcribe from %s", ErrInvalidTransition, s.state)
	}
	s.state = StateTranscribing
	ref := s.audioRef
	s.mu.Unlock()

	text, err := s.tr.Transcribe(ctx, ref)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateTranscribing {
		// Discarded while the call was in flight; keep the terminal state.
		return nil
	}
	if err != nil {
		s.state = StateStopped
		return fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	s.transcript = text
	s.state = StateReady
	return nil
}

// Discard cancels the session from any non-terminal state, releasing the
// device and clearing captured data.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return
	}
	s.rec.Release()
	s.state = StateDiscarded
	s.audioRef = ""
	s.transcript = ""
	s.elapsed = 0
}

// Send hands the finished voice payload to the caller and enters Sent.
// Valid only from Ready.
func (s *Session) Send() (Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return Voice{}, fmt.Errorf("%w: send from %s", ErrInvalidTransition, s.state)
	}
	s.state = StateSent
	return Voice{
		Transcript:      s.transcript,
		AudioRef:        s.audioRef,
		DurationSeconds: s.elapsed,
	}, nil
}

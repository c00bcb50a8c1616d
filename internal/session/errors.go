package session

import "errors"

// Failure sentinels surfaced by the controller. Callers branch on
// these with errors.Is to pick the user-facing message.
var (
	ErrGuardrailSkip        = errors.New("capture below minimum utterance; discarded")
	ErrPermissionDenied     = errors.New("recording permission denied")
	ErrDeviceError          = errors.New("audio device error")
	ErrEngineUnavailable    = errors.New("transcription engine unavailable")
	ErrTranscriptionTimeout = errors.New("transcription timed out")
	ErrTranscriptionFailure = errors.New("transcription failed")
	ErrEmptyTranscript      = errors.New("no speech detected")
	ErrInsertionFailure     = errors.New("insertion failed; transcript left on clipboard")
)

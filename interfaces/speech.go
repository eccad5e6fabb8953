package interfaces

import "context"

// Transcriber converts spoken audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, sampleRate int) (string, error)
}

// Synthesizer converts text into audio. A (nil, nil) return means synthesis
// is unavailable, which is a valid non-error outcome.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Package stt transcribes candidate audio with Google Cloud Speech.
// Authentication relies on Application Default Credentials.
package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/intervue/interview-service/errs"
)

// Client is the speech-to-text adapter.
type Client struct {
	speechClient *speech.Client
}

// New creates a Google Cloud Speech client.
func New(ctx context.Context) (*Client, error) {
	speechClient, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &Client{speechClient: speechClient}, nil
}

// Close cleans up the speech client connection.
func (c *Client) Close() {
	if c.speechClient != nil {
		c.speechClient.Close()
	}
}

// Transcribe converts a 16-bit PCM payload (raw or WAV-wrapped) into text.
// Failures surface as transcription errors; there is no fallback.
func (c *Client) Transcribe(ctx context.Context, audio []byte, sampleRate int) (string, error) {
	resp, err := c.speechClient.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(sampleRate),
			LanguageCode:    "en-US",
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", errs.Transcription(err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

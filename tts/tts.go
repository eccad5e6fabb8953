// Package tts synthesizes question audio with the OpenAI speech endpoint.
// Synthesis is best-effort: when the engine is unconfigured or the call
// fails, it returns (nil, nil) and the turn proceeds without audio.
package tts

import (
	"context"
	"io"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"

	"github.com/intervue/interview-service/config"
)

// Engine is the text-to-speech adapter.
type Engine struct {
	client  openai.Client
	model   string
	voice   string
	enabled bool
	log     *logrus.Entry
}

// New constructs the engine. Without an API key the engine stays disabled,
// which is not an error: voice output is optional.
func New(cfg *config.Config) *Engine {
	e := &Engine{
		model: cfg.OpenAI.TTSModel,
		voice: cfg.OpenAI.Voice,
		log:   logrus.WithField("component", "tts"),
	}
	if cfg.OpenAI.APIKey == "" {
		e.log.Warn("no API key configured, speech synthesis disabled")
		return e
	}
	e.client = openai.NewClient(option.WithAPIKey(cfg.OpenAI.APIKey))
	e.enabled = true
	return e
}

// Synthesize renders text as WAV bytes, or (nil, nil) when unavailable.
func (e *Engine) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !e.enabled || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	resp, err := e.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          e.model,
		Voice:          openai.AudioSpeechNewParamsVoice(e.voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	})
	if err != nil {
		e.log.WithError(err).Warn("speech synthesis failed, continuing without audio")
		return nil, nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.log.WithError(err).Warn("reading synthesized audio failed, continuing without audio")
		return nil, nil
	}
	return data, nil
}

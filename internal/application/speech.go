package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Recorder captures one utterance. An empty string means no speech was
// captured; it is not an error.
type Recorder interface {
	Record(ctx context.Context) string
}

// NoopSTT is used when no transcription backend is configured.
// It returns an error if called with actual audio data.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set openai.api_key to enable audio transcription")
}

// VoiceRecorder pulls the next clip from an audio source and transcribes it.
type VoiceRecorder struct {
	audio  AudioSource
	stt    SpeechToText
	logger *slog.Logger
}

func NewVoiceRecorder(audio AudioSource, stt SpeechToText, logger *slog.Logger) *VoiceRecorder {
	return &VoiceRecorder{
		audio:  audio,
		stt:    stt,
		logger: logger,
	}
}

func (r *VoiceRecorder) Record(ctx context.Context) string {
	clip, err := r.audio.NextClip(ctx)
	if err != nil {
		r.logger.Warn("capturing audio", "source", r.audio.Name(), "error", err)
		return ""
	}
	if len(clip) == 0 {
		return ""
	}

	r.logger.Info("received audio", "source", r.audio.Name(), "bytes", len(clip))

	text, err := r.stt.Transcribe(ctx, clip)
	if err != nil {
		r.logger.Warn("transcribing audio", "error", err)
		return ""
	}

	text = strings.TrimSpace(text)
	r.logger.Info("transcribed", "text", text)
	return text
}

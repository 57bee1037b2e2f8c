//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// MicrophoneSource records one phrase per NextClip from the default input
// device. It waits up to ListenTimeout seconds for speech to start and stops
// after one second of trailing silence or PhraseLimit seconds.
type MicrophoneSource struct {
	sampleRate    int
	listenTimeout int
	phraseLimit   int
	threshold     int16
	logger        *slog.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []int16
}

func NewMicrophoneSource(cfg MicrophoneConfig, logger *slog.Logger) *MicrophoneSource {
	cfg = cfg.withDefaults()
	return &MicrophoneSource{
		sampleRate:    cfg.SampleRate,
		listenTimeout: cfg.ListenTimeout,
		phraseLimit:   cfg.PhraseLimit,
		threshold:     cfg.SilenceThreshold,
		logger:        logger,
		buffer:        make([]int16, framesPerBuffer),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(m.buffer), m.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone started", "sample_rate", m.sampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
	}
	return portaudio.Terminate()
}

func (m *MicrophoneSource) NextClip(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil, fmt.Errorf("microphone not started")
	}

	m.logger.Info("listening", "timeout_seconds", m.listenTimeout)

	maxSamples := m.sampleRate * m.phraseLimit
	samples := make([]int16, 0, maxSamples)
	silence := 0
	heard := false

	for len(samples) < maxSamples {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		if isSilent(m.buffer, m.threshold) {
			silence += len(m.buffer)
			if !heard {
				if silence > m.sampleRate*m.listenTimeout {
					return nil, nil
				}
				continue
			}
		} else {
			heard = true
			silence = 0
		}

		samples = append(samples, m.buffer...)

		if heard && silence > m.sampleRate {
			break
		}
	}

	return EncodeWAV(samples, m.sampleRate), nil
}

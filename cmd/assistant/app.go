package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/api/option"

	"voice-email/config"
	"voice-email/internal/application"
	"voice-email/internal/infra/anthropic"
	"voice-email/internal/infra/audio"
	"voice-email/internal/infra/gemini"
	"voice-email/internal/infra/gmail"
	"voice-email/internal/infra/memory"
	"voice-email/internal/infra/metrics"
	"voice-email/internal/infra/openai"
	"voice-email/internal/infra/pushover"
	"voice-email/internal/infra/sheets"
	"voice-email/internal/infra/sqlite"
	"voice-email/internal/infra/telemetry"
)

// app is the wired object graph shared by both sub-commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	stt       application.SpeechToText
	metrics   *metrics.Collector
	sessions  *application.Sessions
	shutdowns []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewCollector(),
	}

	if cfg.Telemetry.Tracing {
		shutdown, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, os.Stderr, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing tracing: %w", err)
		}
		a.shutdowns = append(a.shutdowns, shutdown)
	}

	if cfg.OpenAI.APIKey != "" {
		a.stt = openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Language)
	} else {
		logger.Warn("openai.api_key not set, audio transcription disabled")
		a.stt = &application.NoopSTT{}
	}

	drafter, err := newDrafter(cfg)
	if err != nil {
		return nil, err
	}

	directory, err := newDirectory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mailer, err := newMailer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	} else {
		notifier = &application.NoopNotifier{}
	}

	store, err := a.newStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	assistant := application.NewAssistant(
		drafter,
		directory,
		mailer,
		notifier,
		application.Sender{Name: cfg.Sender.Name, Placeholder: cfg.Sender.Placeholder},
		a.metrics,
		logger,
	)
	a.sessions = application.NewSessions(assistant, store, logger)

	logger.Info("voice email assistant configured",
		"drafting", cfg.Drafting.Provider,
		"contacts", cfg.Contacts.Source,
		"mail", cfg.Mail.Provider,
		"store", cfg.Store.Type,
	)
	return a, nil
}

func newDrafter(cfg *config.Config) (application.Drafter, error) {
	switch cfg.Drafting.Provider {
	case "anthropic":
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Sender.Name), nil
	case "gemini":
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Sender.Name), nil
	default:
		return nil, fmt.Errorf("unknown drafting provider %q", cfg.Drafting.Provider)
	}
}

func newDirectory(ctx context.Context, cfg *config.Config) (application.Directory, error) {
	if cfg.Contacts.Source != "sheets" {
		return application.NewStaticDirectory(cfg.Contacts.Entries), nil
	}

	sc := cfg.Contacts.Sheets
	var dirOpts []option.ClientOption
	if sc.CredentialsFile != "" {
		dirOpts = sheets.ServiceAccountOptions(sc.CredentialsFile)
	}
	dir, err := sheets.NewDirectory(ctx, sc.SpreadsheetID, sc.Range, dirOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets directory: %w", err)
	}
	return dir, nil
}

func newMailer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (application.Mailer, error) {
	if cfg.Mail.Provider != "gmail" {
		return &application.LogMailer{Logger: logger}, nil
	}

	gc := cfg.Mail.Gmail
	auth, err := gmail.UserTokenOption(ctx, gc.CredentialsFile, gc.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("loading gmail credentials: %w", err)
	}
	mailer, err := gmail.NewMailer(ctx, gc.User, cfg.Mail.From, auth)
	if err != nil {
		return nil, fmt.Errorf("creating gmail mailer: %w", err)
	}
	return mailer, nil
}

func (a *app) newStore(cfg config.StoreConfig) (application.DraftStore, error) {
	if cfg.Type != "sqlite" {
		return memory.NewDraftStore(), nil
	}

	store, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening draft store: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func(context.Context) error { return store.Close() })
	return store, nil
}

func (a *app) newAudioSource() application.AudioSource {
	switch a.cfg.Audio.Source {
	case "microphone":
		return audio.NewMicrophoneSource(audio.MicrophoneConfig{
			SampleRate:       a.cfg.Audio.SampleRate,
			ListenTimeout:    a.cfg.Audio.ListenTimeout,
			PhraseLimit:      a.cfg.Audio.PhraseLimit,
			SilenceThreshold: int16(a.cfg.Audio.SilenceThreshold),
		}, a.logger)
	default:
		return audio.NewFileSource(a.cfg.Audio.FileDir)
	}
}

func (a *app) close(ctx context.Context) {
	var errs []error
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		errs = append(errs, a.shutdowns[i](ctx))
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutting down", "error", err)
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"voice-email/internal/application"
	"voice-email/internal/domain"
	"voice-email/internal/infra/httpapi"
)

type ServeCmd struct {
	Addr string `long:"addr" description:"listen address, overrides server.addr"`
}

func (c *ServeCmd) Execute(_ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	server := httpapi.NewServer(httpapi.Config{
		Addr:         cfg.Server.Addr,
		AuthToken:    cfg.Server.AuthToken,
		RatePerMin:   cfg.Server.RatePerMin,
		TrustProxy:   cfg.Server.TrustProxy,
		MetricsRoute: a.metrics.Handler(),
	}, a.sessions, a.stt, logger)

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}

type RunCmd struct {
	Text    string `short:"t" long:"text" description:"instruction text; records from the audio source when empty"`
	Name    string `short:"n" long:"name" description:"recipient name to use when the drafted one is not in the directory"`
	Session string `long:"session" default:"cli" description:"session id for the pending draft"`
	Yes     bool   `short:"y" long:"yes" description:"send without asking for confirmation"`
}

func (c *RunCmd) Execute(_ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	in := bufio.NewReader(os.Stdin)
	out := os.Stdout

	utterance := c.Text
	if utterance == "" {
		utterance, err = a.record(ctx, out)
		if err != nil {
			return err
		}
	}

	draft, err := a.sessions.Draft(ctx, c.Session, application.DraftRequest{
		Utterance:    utterance,
		OverrideName: c.Name,
	})
	if err != nil {
		return err
	}

	// The operator may name the recipient when the directory has no match;
	// the drafted subject and body are kept.
	if draft.ErrorKind == domain.KindRecipientNotFound && c.Name == "" && !c.Yes {
		fmt.Fprintf(out, "%s\nRecipient name (empty to stop): ", draft.ErrorMessage)
		name := readLine(in)
		if name != "" {
			draft, err = a.sessions.RetryLookup(ctx, c.Session, draft, name)
			if err != nil {
				return err
			}
		}
	}

	if draft.Failed() {
		return fmt.Errorf("draft failed: %s", draft.ErrorMessage)
	}

	printPreview(out, draft.Preview)

	confirmed := c.Yes
	if !confirmed {
		fmt.Fprint(out, "Send this email? [y/N]: ")
		answer := strings.ToLower(readLine(in))
		confirmed = answer == "y" || answer == "yes"
	}

	final, err := a.sessions.Confirm(ctx, c.Session, domain.Confirmation{
		DraftID:   draft.DraftID,
		Confirmed: confirmed,
	})
	if err != nil {
		return err
	}

	switch {
	case final.Failed():
		return fmt.Errorf("send failed: %s", final.ErrorMessage)
	case final.Action == domain.ActionSend:
		fmt.Fprintf(out, "Email sent to %s\n", final.RecipientEmail)
	default:
		fmt.Fprintln(out, "Email cancelled")
	}
	return nil
}

// record captures one utterance from the configured audio source.
func (a *app) record(ctx context.Context, out io.Writer) (string, error) {
	source := a.newAudioSource()
	if err := source.Start(ctx); err != nil {
		return "", fmt.Errorf("starting audio source: %w", err)
	}
	defer source.Stop()

	listenCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	fmt.Fprintf(out, "Listening on %s...\n", source.Name())
	recorder := application.NewVoiceRecorder(source, a.stt, a.logger)
	return recorder.Record(listenCtx), nil
}

func printPreview(w io.Writer, p *domain.Preview) {
	if p == nil {
		return
	}
	fmt.Fprintf(w, "\nTo: %s\nSubject: %s\n\n%s\n\n", p.To, p.Subject, p.Body)
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

// Package sheets relays quiz summaries to a Google Apps Script web app (or
// any HTTP endpoint accepting a JSON POST).
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mayhomes/quiz/internal/domain"
)

// PlaceholderURL marks an unconfigured endpoint; submission is skipped
// rather than attempted against it.
const PlaceholderURL = "YOUR_SCRIPT_URL_HERE"

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
	defaultTimeout    = 10 * time.Second
)

// Config is the submission surface: endpoint, enabled flag, and retry policy.
type Config struct {
	URL        string
	Enabled    bool
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	// VerifyResponse requires a 2xx status to count as success. Off by
	// default: the original transport could not observe the response, so a
	// dispatched request is optimistically treated as delivered.
	VerifyResponse bool
}

// Submitter implements app.ResultSubmitter with bounded retries, linear
// backoff, and a per-attempt timeout. Delivery failure is never fatal.
type Submitter struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewSubmitter(cfg Config, log zerolog.Logger) *Submitter {
	return NewSubmitterWithClient(cfg, &http.Client{}, log)
}

// NewSubmitterWithClient allows injecting the HTTP client in tests.
func NewSubmitterWithClient(cfg Config, client *http.Client, log zerolog.Logger) *Submitter {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Submitter{
		cfg:    cfg,
		client: client,
		log:    log.With().Str("component", "sheets").Logger(),
		sleep:  sleepContext,
	}
}

// Submit posts the summary. Returns immediately with Skipped when submission
// is disabled or the endpoint is unconfigured — no network I/O happens. The
// first successful attempt short-circuits; when every attempt fails the last
// error is surfaced.
func (s *Submitter) Submit(ctx context.Context, summary domain.Summary) domain.SubmissionResult {
	if !s.cfg.Enabled {
		return domain.SubmissionResult{Skipped: true, Message: "submission disabled"}
	}
	if s.cfg.URL == "" || s.cfg.URL == PlaceholderURL {
		return domain.SubmissionResult{Skipped: true, Message: "endpoint not configured"}
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return domain.SubmissionResult{Message: fmt.Sprintf("marshal summary: %v", err)}
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		s.log.Debug().Int("attempt", attempt).Int("max", s.cfg.MaxRetries).Msg("submitting results")
		if err := s.attempt(ctx, payload); err == nil {
			s.log.Info().Int("attempt", attempt).Msg("results submitted")
			return domain.SubmissionResult{Success: true, Message: "data submitted", Attempts: attempt}
		} else {
			lastErr = err
			s.log.Warn().Err(err).Int("attempt", attempt).Msg("submission attempt failed")
		}

		if attempt < s.cfg.MaxRetries {
			// Linear backoff: delay, 2x delay, 3x delay, ...
			if err := s.sleep(ctx, s.cfg.RetryDelay*time.Duration(attempt)); err != nil {
				return domain.SubmissionResult{Message: "submission canceled", Attempts: attempt}
			}
		}
	}
	return domain.SubmissionResult{Message: lastErr.Error(), Attempts: s.cfg.MaxRetries}
}

func (s *Submitter) attempt(ctx context.Context, payload []byte) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, s.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return errors.New("request timeout")
		}
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if s.cfg.VerifyResponse && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	// Dispatched without transport error counts as delivered; the remote
	// response is not authoritative in the default (optimistic) mode.
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mayhomes/quiz/internal/domain"
)

// SessionConfig carries the per-session quiz parameters.
type SessionConfig struct {
	QuestionCount int
	Duration      time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.QuestionCount <= 0 {
		c.QuestionCount = 20
	}
	if c.Duration <= 0 {
		c.Duration = 20 * time.Minute
	}
	return c
}

// Session is the quiz state machine for one device: identity gate, question
// provisioning, answer ledger, countdown timer, idempotent finalization, and
// result submission. All persisted records live under the session's key
// namespace and are purged as a group on retake.
type Session struct {
	id          string
	cfg         SessionConfig
	store       Store
	bank        BankLoader
	submitter   ResultSubmitter
	provisioner *Provisioner
	ledger      *Ledger
	timer       *Timer
	clock       func() time.Time
	interval    time.Duration
	log         zerolog.Logger
	rootLog     zerolog.Logger

	mu        sync.Mutex
	finalized bool
}

func NewSession(id string, store Store, bank BankLoader, submitter ResultSubmitter, cfg SessionConfig, log zerolog.Logger) *Session {
	return NewSessionWithClock(id, store, bank, submitter, cfg, log, time.Now, time.Second)
}

// NewSessionWithClock allows deterministic clocks and fast tick intervals in tests.
func NewSessionWithClock(id string, store Store, bank BankLoader, submitter ResultSubmitter, cfg SessionConfig, log zerolog.Logger, clock func() time.Time, interval time.Duration) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		id:        id,
		cfg:       cfg,
		store:     store,
		bank:      bank,
		submitter: submitter,
		clock:     clock,
		interval:  interval,
		log:       log.With().Str("component", "session").Str("session_id", id).Logger(),
		rootLog:   log,
	}
	s.provisioner = NewProvisioner(store, bank, cfg.QuestionCount, s.key(RecordQuestions))
	s.ledger = NewLedger(store, s.key(RecordAnswers))
	s.timer = NewTimerWithClock(store, s.key(RecordTimer), log, clock, interval)
	return s
}

func (s *Session) ID() string { return s.id }

// Timer exposes the countdown for tick subscribers (WebSocket push).
func (s *Session) Timer() *Timer { return s.timer }

func (s *Session) key(record string) string {
	return "quiz:" + s.id + ":" + record
}

// Register persists the identity record once at session start. The
// registration timestamp and start time are stamped here.
func (s *Session) Register(ctx context.Context, info domain.UserInfo) (domain.UserInfo, error) {
	now := s.clock()
	info.Timestamp = now.UTC().Format(time.RFC3339)
	info.StartTime = now.UnixMilli()
	raw, err := json.Marshal(info)
	if err != nil {
		return domain.UserInfo{}, fmt.Errorf("marshal user info: %w", err)
	}
	if err := s.store.Set(ctx, s.key(RecordUser), raw); err != nil {
		return domain.UserInfo{}, fmt.Errorf("persist user info: %w", err)
	}
	return info, nil
}

// Identity loads the registered user. A missing or unparsable record is
// fatal to quiz access.
func (s *Session) Identity(ctx context.Context) (domain.UserInfo, error) {
	raw, err := s.store.Get(ctx, s.key(RecordUser))
	if err != nil {
		return domain.UserInfo{}, domain.ErrIdentityMissing
	}
	var info domain.UserInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return domain.UserInfo{}, domain.ErrIdentityMissing
	}
	return info, nil
}

// Begin gates on identity, provisions (or reloads) the question set,
// restores saved answers, and starts or resumes the countdown. Safe to call
// again after a reload: the persisted set and timer state are reused.
func (s *Session) Begin(ctx context.Context) (domain.QuestionSet, TickEvent, error) {
	if _, err := s.Identity(ctx); err != nil {
		return nil, TickEvent{}, err
	}
	set, err := s.provisioner.Provision(ctx)
	if err != nil {
		return nil, TickEvent{}, err
	}
	s.ledger.Load(ctx)
	s.timer.StartOrRestore(ctx, s.cfg.Duration, s.autoExpire)
	return set, s.timer.Snapshot(), nil
}

// autoExpire runs the same finalization path as manual submission.
func (s *Session) autoExpire() {
	s.log.Info().Msg("countdown expired, auto-submitting")
	if _, _, err := s.Complete(context.Background()); err != nil {
		s.log.Error().Err(err).Msg("auto-submit failed")
	}
}

// SetAnswer records an answer for the given question index. Rejected once
// the session is finalized.
func (s *Session) SetAnswer(ctx context.Context, index int, value string) error {
	s.mu.Lock()
	finalized := s.finalized
	s.mu.Unlock()
	if finalized {
		return domain.ErrAlreadySubmitted
	}
	if index < 0 || index >= s.cfg.QuestionCount {
		return fmt.Errorf("%w: %d", domain.ErrIndexOutOfRange, index)
	}
	return s.ledger.SetAnswer(ctx, index, value)
}

// Progress reports answer statistics for the session's question set.
func (s *Session) Progress(ctx context.Context) (domain.AnswerStats, error) {
	set, err := s.questions(ctx)
	if err != nil {
		return domain.AnswerStats{}, err
	}
	return Statistics(set, s.ledger.All()), nil
}

// Finalize runs the ordered completion sequence: stop timer, compute score,
// persist results. Idempotent: when a persisted ScoreResult already exists
// it is returned unchanged and fresh is false — a duplicate submit never
// recomputes or overwrites.
func (s *Session) Finalize(ctx context.Context) (domain.ScoreResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.results(ctx); err == nil {
		s.finalized = true
		return existing, false, nil
	}

	s.timer.Stop()

	set, err := s.questions(ctx)
	if err != nil {
		return domain.ScoreResult{}, false, err
	}
	result := ScoreQuiz(set, s.ledger.All(), s.clock())

	raw, err := json.Marshal(result)
	if err != nil {
		return domain.ScoreResult{}, false, fmt.Errorf("marshal results: %w", err)
	}
	if err := s.store.Set(ctx, s.key(RecordResults), raw); err != nil {
		return domain.ScoreResult{}, false, fmt.Errorf("persist results: %w", err)
	}
	s.finalized = true
	s.log.Info().
		Int("mcq_score", result.MCQScore).
		Int("mcq_total", result.MCQTotal).
		Str("percentage", result.Percentage).
		Msg("quiz finalized")
	return result, true, nil
}

// Complete finalizes the session and, on first finalization only, relays the
// summary to the remote endpoint. Submission failure is non-fatal: the
// persisted results remain authoritative.
func (s *Session) Complete(ctx context.Context) (domain.ScoreResult, domain.SubmissionResult, error) {
	result, fresh, err := s.Finalize(ctx)
	if err != nil {
		return domain.ScoreResult{}, domain.SubmissionResult{}, err
	}
	if !fresh {
		return result, domain.SubmissionResult{Skipped: true, Message: "already submitted"}, nil
	}

	summary, err := s.Summary(ctx)
	if err != nil {
		return result, domain.SubmissionResult{Message: err.Error()}, nil
	}
	sub := s.submitter.Submit(ctx, summary)
	if !sub.Success && !sub.Skipped {
		s.log.Warn().Str("message", sub.Message).Msg("result submission failed")
	}
	return result, sub, nil
}

// Results returns the persisted score, or ErrResultsMissing before finalization.
func (s *Session) Results(ctx context.Context) (domain.ScoreResult, error) {
	return s.results(ctx)
}

// Summary builds the denormalized payload. Identity, question set, and
// results are all mandatory.
func (s *Session) Summary(ctx context.Context) (domain.Summary, error) {
	user, err := s.Identity(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: user info", domain.ErrSummaryIncomplete)
	}
	set, err := s.questions(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: question set", domain.ErrSummaryIncomplete)
	}
	results, err := s.results(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: results", domain.ErrSummaryIncomplete)
	}
	return BuildSummary(user, set, s.ledger.All(), results), nil
}

// Retake purges the quiz-scoped records as a group (questions, answers,
// timer, results) and resets the in-memory state for a fresh attempt. The
// identity record survives.
func (s *Session) Retake(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer.Stop()
	err := s.store.Delete(ctx,
		s.key(RecordQuestions),
		s.key(RecordAnswers),
		s.key(RecordTimer),
		s.key(RecordResults),
	)
	if err != nil {
		return fmt.Errorf("clear quiz records: %w", err)
	}
	s.ledger.Reset()
	s.timer = NewTimerWithClock(s.store, s.key(RecordTimer), s.rootLog, s.clock, s.interval)
	s.finalized = false
	s.log.Info().Msg("quiz data cleared for retake")
	return nil
}

func (s *Session) questions(ctx context.Context) (domain.QuestionSet, error) {
	raw, err := s.store.Get(ctx, s.key(RecordQuestions))
	if err != nil {
		return nil, domain.ErrQuestionsMissing
	}
	var set domain.QuestionSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, domain.ErrQuestionsMissing
	}
	return set, nil
}

func (s *Session) results(ctx context.Context) (domain.ScoreResult, error) {
	raw, err := s.store.Get(ctx, s.key(RecordResults))
	if err != nil {
		return domain.ScoreResult{}, domain.ErrResultsMissing
	}
	var result domain.ScoreResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.ScoreResult{}, domain.ErrResultsMissing
	}
	return result, nil
}

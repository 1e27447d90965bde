package app

import (
	"context"

	"github.com/Mayhomes/quiz/internal/domain"
)

// Store is the key-value persistence port (in-memory, Redis, etc). Values
// are JSON blobs; every write is a full-record overwrite, last-write-wins.
// Get returns domain.ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// BankLoader fetches the full question bank from a backing source
// (JSON document, Postgres, etc).
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.Question, error)
}

// ResultSubmitter relays a result summary to a remote endpoint.
// Implementations must be non-fatal: delivery failure never invalidates
// locally persisted results.
type ResultSubmitter interface {
	Submit(ctx context.Context, summary domain.Summary) domain.SubmissionResult
}

// SessionRegistry tracks live sessions and their running timers.
type SessionRegistry interface {
	GetOrCreate(id string) *Session
	Get(id string) (*Session, bool)
	Delete(id string)
}

// Record names for the per-session persisted blobs, cleared as a group on retake.
const (
	RecordUser      = "user"
	RecordQuestions = "questions"
	RecordAnswers   = "answers"
	RecordTimer     = "timer"
	RecordResults   = "results"
)

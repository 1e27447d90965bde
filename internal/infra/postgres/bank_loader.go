package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Mayhomes/quiz/internal/domain"
)

// BankLoader loads a question bank JSONB document from Postgres.
type BankLoader struct {
	pool   *pgxpool.Pool
	bankID string
}

func NewBankLoader(pool *pgxpool.Pool, bankID string) *BankLoader {
	return &BankLoader{pool: pool, bankID: bankID}
}

func (l *BankLoader) LoadBank(ctx context.Context) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE id=$1`, l.bankID).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	var doc struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal question bank: %w", err)
	}
	return doc.Questions, nil
}

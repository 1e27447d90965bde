package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Mayhomes/quiz/internal/app"
	"github.com/Mayhomes/quiz/internal/domain"
)

const bankKey = "quiz:bank"

// BankRepository caches the question bank JSON in Redis and falls back to a
// loader on cache miss. Provisioning consumes the whole bank at once, so the
// cache is a single blob rather than per-question entries.
type BankRepository struct {
	client *redis.Client
	loader app.BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader app.BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) LoadBank(ctx context.Context) ([]domain.Question, error) {
	if bank, ok := r.fromCache(ctx); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.fromCache(ctx); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(bank); err == nil {
			_ = r.client.Set(ctx, bankKey, raw, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *BankRepository) fromCache(ctx context.Context) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, bankKey).Bytes()
	if err != nil {
		return nil, false
	}
	var bank []domain.Question
	if json.Unmarshal(raw, &bank) != nil || len(bank) == 0 {
		return nil, false
	}
	return bank, true
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

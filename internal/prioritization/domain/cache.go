package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheMiss is returned by a RankingCache that holds no entry for a key.
var ErrCacheMiss = errors.New("ranking not cached")

// RankingCache memoizes computed rankings. Implementations must treat stored
// slices as immutable.
type RankingCache interface {
	Get(ctx context.Context, key string) ([]ScoredTask, error)
	Set(ctx context.Context, key string, ranked []ScoredTask) error
}

// RankingKey fingerprints a ranking request. Two requests share a key only if
// they carry the same tasks in the same order, resolve to the same strategy
// and are evaluated on the same calendar date.
func RankingKey(strategy Strategy, today time.Time, tasks []Task) string {
	h := sha256.New()
	h.Write([]byte(strategy.Resolve()))
	h.Write([]byte{0})
	h.Write([]byte(today.Format(DateLayout)))
	h.Write([]byte{0})
	// Task only holds strings, numbers and string slices, so encoding cannot fail.
	_ = json.NewEncoder(h).Encode(tasks)
	return hex.EncodeToString(h.Sum(nil))
}

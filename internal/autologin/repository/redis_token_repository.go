package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/allisson/autologin/internal/autologin/domain"
	apperrors "github.com/allisson/autologin/internal/errors"
)

// takeTokenLua reads and deletes a record in one server-side step.
// KEYS[1] = record key
// Returns the record, or nil when the key does not exist.
var takeTokenLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return false
end
redis.call('DEL', KEYS[1])
return data
`)

// deleteIfUnchangedLua deletes a record only if it still holds the value the
// caller inspected.
// KEYS[1] = record key
// ARGV[1] = expected record
var deleteIfUnchangedLua = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

const scanBatchSize = 500

var errUndecodableRecord = errors.New("undecodable login token record")

// redisTokenRecord is the JSON value stored per token key.
type redisTokenRecord struct {
	ID          uuid.UUID         `json:"id"`
	PrincipalID int64             `json:"principal_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	IssuedAt    time.Time         `json:"issued_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// RedisTokenRepository stores login tokens in Redis as JSON values keyed by
// prefix plus token hash. Keys carry a native TTL of the token lifetime plus a
// retention window, so a recently expired token is still reported as expired
// instead of unknown. Records in the older "<principal_id>|<expires_unix>"
// layout are still readable.
type RedisTokenRepository struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisTokenRepository creates a new Redis token repository.
func NewRedisTokenRepository(
	client redis.UniversalClient,
	prefix string,
	retention time.Duration,
) *RedisTokenRepository {
	if prefix == "" {
		prefix = "autologin:token:"
	}
	return &RedisTokenRepository{
		client:    client,
		prefix:    prefix,
		retention: retention,
	}
}

func (r *RedisTokenRepository) key(tokenHash string) string {
	return r.prefix + tokenHash
}

// Put writes the record with a TTL covering its lifetime plus the retention
// window, replacing any previous value.
func (r *RedisTokenRepository) Put(ctx context.Context, token *domain.Token) error {
	data, err := json.Marshal(&redisTokenRecord{
		ID:          token.ID,
		PrincipalID: token.PrincipalID,
		Metadata:    token.Metadata,
		IssuedAt:    token.IssuedAt,
		ExpiresAt:   token.ExpiresAt,
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal login token")
	}

	ttl := token.ExpiresAt.Sub(token.IssuedAt) + r.retention
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := r.client.Set(ctx, r.key(token.TokenHash), data, ttl).Err(); err != nil {
		return apperrors.Wrap(err, "failed to put login token")
	}
	return nil
}

func (r *RedisTokenRepository) Get(ctx context.Context, tokenHash string) (*domain.Token, error) {
	data, err := r.client.Get(ctx, r.key(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get login token")
	}

	token, err := decodeRedisRecord(tokenHash, data)
	if err != nil {
		return nil, apperrors.Wrap(domain.ErrTokenNotFound, "undecodable record")
	}
	return token, nil
}

// TakeOnce atomically reads and deletes the record. An undecodable record is
// still removed and reported as not found.
func (r *RedisTokenRepository) TakeOnce(ctx context.Context, tokenHash string) (*domain.Token, error) {
	data, err := takeTokenLua.Run(ctx, r.client, []string{r.key(tokenHash)}).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to take login token")
	}

	token, err := decodeRedisRecord(tokenHash, data)
	if err != nil {
		return nil, apperrors.Wrap(domain.ErrTokenNotFound, "discarded undecodable record")
	}
	return token, nil
}

// DeleteExpired scans the key space and removes records whose expiry is before
// the given time. A record is only deleted if it did not change since it was
// read. Undecodable records are removed and counted as well.
func (r *RedisTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := r.scan(ctx, func(key, data string, token *domain.Token) error {
		if token != nil && !token.ExpiresAt.Before(before) {
			return nil
		}
		n, err := deleteIfUnchangedLua.Run(ctx, r.client, []string{key}, data).Int64()
		if err != nil {
			return apperrors.Wrap(err, "failed to delete expired login token")
		}
		deleted += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *RedisTokenRepository) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	var count int64
	err := r.scan(ctx, func(_, _ string, token *domain.Token) error {
		if token == nil || token.ExpiresAt.Before(before) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RedisTokenRepository) Stats(ctx context.Context, now time.Time) (*domain.TokenStats, error) {
	var stats domain.TokenStats
	err := r.scan(ctx, func(_, _ string, token *domain.Token) error {
		if token == nil {
			return nil
		}
		stats.Total++
		if token.ExpiresAt.Before(now) {
			stats.Expired++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats.Active = stats.Total - stats.Expired
	return &stats, nil
}

// scan visits every record under the prefix. fn receives a nil token for
// records that cannot be decoded. Keys that vanish between SCAN and GET are
// skipped.
func (r *RedisTokenRepository) scan(
	ctx context.Context,
	fn func(key, data string, token *domain.Token) error,
) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", scanBatchSize).Result()
		if err != nil {
			return apperrors.Wrap(err, "failed to scan login tokens")
		}

		for _, key := range keys {
			data, err := r.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return apperrors.Wrap(err, "failed to get login token")
			}

			token, decodeErr := decodeRedisRecord(strings.TrimPrefix(key, r.prefix), data)
			if decodeErr != nil {
				token = nil
			}
			if err := fn(key, data, token); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// decodeRedisRecord accepts JSON records and the legacy pipe layout.
func decodeRedisRecord(tokenHash, data string) (*domain.Token, error) {
	if strings.HasPrefix(data, "{") {
		var record redisTokenRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, errUndecodableRecord
		}
		if record.PrincipalID == 0 || record.ExpiresAt.IsZero() {
			return nil, errUndecodableRecord
		}
		return &domain.Token{
			ID:          record.ID,
			TokenHash:   tokenHash,
			PrincipalID: record.PrincipalID,
			Metadata:    record.Metadata,
			IssuedAt:    record.IssuedAt,
			ExpiresAt:   record.ExpiresAt,
		}, nil
	}

	principalPart, expiresPart, ok := strings.Cut(data, "|")
	if !ok {
		return nil, errUndecodableRecord
	}
	principalID, err := strconv.ParseInt(principalPart, 10, 64)
	if err != nil || principalID == 0 {
		return nil, errUndecodableRecord
	}
	expiresUnix, err := strconv.ParseInt(expiresPart, 10, 64)
	if err != nil {
		return nil, errUndecodableRecord
	}

	return &domain.Token{
		TokenHash:   tokenHash,
		PrincipalID: principalID,
		ExpiresAt:   time.Unix(expiresUnix, 0).UTC(),
	}, nil
}

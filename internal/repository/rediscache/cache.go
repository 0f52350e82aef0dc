package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReportCache - read-through кеш агрегированных отчетов.
// Ключи имеют вид report:{org}:{kind}:{hash фильтров}; запись на PCF
// или платеж инвалидирует все отчеты организации.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New создает кеш отчетов
func New(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Key строит ключ кеша по организации, типу отчета и фильтрам
func Key(orgID, kind string, filters interface{}) string {
	raw, _ := json.Marshal(filters)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("report:%s:%s:%s", orgID, kind, hex.EncodeToString(sum[:8]))
}

// Get читает закешированный отчет в dest. Возвращает false при промахе.
// Ошибки Redis считаются промахом: отчет просто пересчитается.
func (c *ReportCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("report cache read failed")
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("report cache entry corrupted")
		return false
	}

	return true
}

// Set сохраняет отчет с TTL
func (c *ReportCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("report cache marshal failed")
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
}

// InvalidateOrg сбрасывает все закешированные отчеты организации
func (c *ReportCache) InvalidateOrg(ctx context.Context, orgID string) {
	if c == nil || c.client == nil {
		return
	}

	pattern := fmt.Sprintf("report:%s:*", orgID)

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Warn().Err(err).Str("org_id", orgID).Msg("report cache scan failed")
			return
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				log.Warn().Err(err).Str("org_id", orgID).Msg("report cache invalidation failed")
				return
			}
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}

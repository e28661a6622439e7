package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"drawerledger/internal/ledger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const summaryTTL = 5 * time.Minute

// SummaryCache keeps daily financial summaries in Redis so reporting
// consumers do not re-aggregate the ledger on every poll. It is strictly a
// cache: every append invalidates it, and a miss falls back to replaying
// the ledger.
type SummaryCache struct {
	rdb *redis.Client
}

func NewSummaryCache(rdb *redis.Client) *SummaryCache {
	return &SummaryCache{rdb: rdb}
}

func summaryKey(sessionID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("summary:daily:%s:%s", sessionID, day.Format("2006-01-02"))
}

func (c *SummaryCache) Get(ctx context.Context, sessionID uuid.UUID, day time.Time) (*ledger.Summary, bool) {
	raw, err := c.rdb.Get(ctx, summaryKey(sessionID, day)).Bytes()
	if err != nil {
		return nil, false
	}
	var s ledger.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("discarding corrupt cached summary")
		return nil, false
	}
	return &s, true
}

func (c *SummaryCache) Set(ctx context.Context, sessionID uuid.UUID, day time.Time, s ledger.Summary) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, summaryKey(sessionID, day), raw, summaryTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to cache summary")
	}
}

// Invalidate drops every cached summary for the session. Called on each
// ledger append so stale aggregates are never served.
func (c *SummaryCache) Invalidate(ctx context.Context, sessionID uuid.UUID) {
	pattern := fmt.Sprintf("summary:daily:%s:*", sessionID)
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Warn().Err(err).Str("key", iter.Val()).Msg("failed to invalidate cached summary")
		}
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("summary cache invalidation scan failed")
	}
}

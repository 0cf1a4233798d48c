// Package cache mirrors session event streams into Redis so external
// consumers can replay them without holding a live subscription. All
// writes are best-effort; the orchestrator runs fine without Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/game"
)

// streamTTL keeps finished session streams around long enough for
// post-game inspection before Redis reclaims them.
const streamTTL = 24 * time.Hour

// Recorder appends session events to a per-session Redis list.
type Recorder struct {
	rdb *redis.Client
}

// Connect parses the Redis URL and verifies the connection. An empty URL
// returns (nil, nil): a nil *Recorder is a valid, disabled recorder.
func Connect(ctx context.Context, url string) (*Recorder, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("connected to redis")
	return &Recorder{rdb: rdb}, nil
}

func eventsKey(sessionID uuid.UUID) string {
	return "session:events:" + sessionID.String()
}

// RecordEvent appends one event to the session's stream and refreshes
// its TTL. Implements game.EventRecorder.
func (r *Recorder) RecordEvent(ctx context.Context, sessionID uuid.UUID, ev game.GameEvent) error {
	if r == nil || r.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	key := eventsKey(sessionID)
	pipe := r.rdb.Pipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, streamTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append session event: %w", err)
	}
	return nil
}

// Events reads back a session's recorded stream in order.
func (r *Recorder) Events(ctx context.Context, sessionID uuid.UUID) ([]game.GameEvent, error) {
	if r == nil || r.rdb == nil {
		return nil, nil
	}
	raw, err := r.rdb.LRange(ctx, eventsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read session events: %w", err)
	}
	events := make([]game.GameEvent, 0, len(raw))
	for _, item := range raw {
		var ev game.GameEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("decode session event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Close releases the Redis connection. Safe on a nil recorder.
func (r *Recorder) Close() {
	if r != nil && r.rdb != nil {
		_ = r.rdb.Close()
	}
}

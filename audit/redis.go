package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/outcome"
)

func NewRdsClient(dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, err
	}
	rds := redis.NewClient(opt)
	if err := rds.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return rds, nil
}

// Redis appends the per-session trail to a list so the anti-cheat
// consumer can replay it in order. Keys expire once the retention
// window passes; the database recorder is the durable copy.
type Redis struct {
	rds       *redis.Client
	retention time.Duration
}

func NewRedis(rds *redis.Client, retention time.Duration) *Redis {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Redis{rds: rds, retention: retention}
}

func trailKey(sessionID string) string {
	return "audit:trail:" + sessionID
}

type trailEntry struct {
	Kind          string          `json:"kind"` // "draw" or "outcome"
	ParticipantID string          `json:"participant_id,omitempty"`
	Cards         []card.Card     `json:"cards,omitempty"`
	Outcome       json.RawMessage `json:"outcome,omitempty"`
	At            int64           `json:"at"`
}

func (r *Redis) push(ctx context.Context, sessionID string, e trailEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := trailKey(sessionID)
	if err := r.rds.RPush(ctx, key, raw).Err(); err != nil {
		return err
	}
	return r.rds.Expire(ctx, key, r.retention).Err()
}

func (r *Redis) RecordDraw(ctx context.Context, sessionID, participantID string, cards []card.Card) error {
	return r.push(ctx, sessionID, trailEntry{
		Kind:          "draw",
		ParticipantID: participantID,
		Cards:         cards,
		At:            time.Now().Unix(),
	})
}

func (r *Redis) RecordOutcome(ctx context.Context, out *outcome.Outcome) error {
	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return r.push(ctx, out.SessionID, trailEntry{
		Kind:    "outcome",
		Outcome: raw,
		At:      time.Now().Unix(),
	})
}

// Tee fans every record out to several recorders, so a session can be
// mirrored to Redis for live review and MySQL for durability.
type Tee []Recorder

func (t Tee) RecordDraw(ctx context.Context, sessionID, participantID string, cards []card.Card) error {
	for _, r := range t {
		if err := r.RecordDraw(ctx, sessionID, participantID, cards); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) RecordOutcome(ctx context.Context, out *outcome.Outcome) error {
	for _, r := range t {
		if err := r.RecordOutcome(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

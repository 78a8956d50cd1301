package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Dedup event processing: dedup:{service}:{event_id}
	keyDedup = "dedup:%s:%s"

	ttlDedup = 48 * time.Hour
)

// Deduper tracks event IDs the consumer already applied. Seen only checks;
// the caller records the ID with Mark once the update is applied, so a
// redelivered message that failed mid-flight is retried.
type Deduper struct {
	rdb     *redis.Client
	service string
}

func NewDeduper(rdb *redis.Client, service string) *Deduper {
	return &Deduper{rdb: rdb, service: service}
}

func (d *Deduper) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, d.key(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *Deduper) Mark(ctx context.Context, eventID string) error {
	return d.rdb.Set(ctx, d.key(eventID), "1", ttlDedup).Err()
}

func (d *Deduper) key(eventID string) string {
	return fmt.Sprintf(keyDedup, d.service, eventID)
}

package delivery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Guard holds the Redis claims that stop a lead from being double-texted:
// a per-lead cooldown and a per-draft dedup key. Both rely on SET NX EX so
// concurrent workers race on a single atomic operation.
type Guard struct {
	rdb      *redis.Client
	cooldown time.Duration
	tracer   trace.Tracer
}

// NewGuard builds a Guard. cooldown is the minimum spacing between automated
// replies to the same lead.
func NewGuard(rdb *redis.Client, cooldown time.Duration) *Guard {
	if rdb == nil {
		panic("delivery: redis client is required")
	}
	if cooldown <= 0 {
		cooldown = 90 * time.Second
	}
	return &Guard{
		rdb:      rdb,
		cooldown: cooldown,
		tracer:   otel.Tracer("coverline.internal.delivery.guard"),
	}
}

// AcquireCooldown claims the lead's reply slot. It returns false when a
// reply went out within the cooldown window. The claim is made before the
// send, so a crash between claim and send costs one skipped reply at worst.
func (g *Guard) AcquireCooldown(ctx context.Context, leadID string) (bool, error) {
	ctx, span := g.tracer.Start(ctx, "delivery.cooldown_claim")
	defer span.End()

	key := fmt.Sprintf("reply:cooldown:%s", leadID)
	ok, err := g.rdb.SetNX(ctx, key, "1", g.cooldown).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("delivery: cooldown claim: %w", err)
	}
	return ok, nil
}

// ReleaseCooldown drops the claim so a failed send does not block the next
// attempt for the full window.
func (g *Guard) ReleaseCooldown(ctx context.Context, leadID string) error {
	key := fmt.Sprintf("reply:cooldown:%s", leadID)
	if err := g.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delivery: cooldown release: %w", err)
	}
	return nil
}

// ClaimDraft claims the exact draft text for a lead. Duplicate dispatch jobs
// carrying the same draft (webhook retries, queue redelivery) lose the claim
// and must drop the send.
func (g *Guard) ClaimDraft(ctx context.Context, leadID, draft string) (bool, error) {
	ctx, span := g.tracer.Start(ctx, "delivery.draft_claim")
	defer span.End()

	key := fmt.Sprintf("reply:draft:%s:%s", leadID, DraftHash(draft))
	ok, err := g.rdb.SetNX(ctx, key, "1", 24*time.Hour).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("delivery: draft claim: %w", err)
	}
	return ok, nil
}

// ReleaseDraft drops a draft claim after a failed send so queue redelivery
// can retry it.
func (g *Guard) ReleaseDraft(ctx context.Context, leadID, draft string) error {
	key := fmt.Sprintf("reply:draft:%s:%s", leadID, DraftHash(draft))
	if err := g.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delivery: draft release: %w", err)
	}
	return nil
}

// DraftHash is the stable fingerprint used to key a draft in both the queue
// payload and the Redis dedup claim.
func DraftHash(draft string) string {
	sum := sha256.Sum256([]byte(draft))
	return hex.EncodeToString(sum[:8])
}

package security

import (
	"context"
	"fmt"
	"time"

	"github.com/researcherhojin/emelmujiro/internal/cache"
	"github.com/researcherhojin/emelmujiro/internal/config"
	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/pkg/logger"
)

const (
	tempBlockKeyPrefix = "block:temp:"
	strikeKeyPrefix    = "block:strikes:"
	permBlockKeyPrefix = "block:perm:"
)

// BlockController owns the IP block state: temporary blocks issued on
// malicious requests, the strike counter behind the permanent-block review
// signal, and permanent blocks (static config plus runtime additions).
//
// Permanent blocking is never automatic. Crossing the strike threshold emits
// an audit review signal; a human promotes the IP via the admin API or the
// static blocklist.
type BlockController struct {
	store  cache.Store
	cfg    *config.SecurityConfig
	audit  *logger.AuditLogger
	static map[string]struct{}
}

func NewBlockController(store cache.Store, cfg *config.SecurityConfig, audit *logger.AuditLogger) *BlockController {
	static := make(map[string]struct{}, len(cfg.PermanentBlocklist))
	for _, ip := range cfg.PermanentBlocklist {
		static[ip] = struct{}{}
	}
	return &BlockController{
		store:  store,
		cfg:    cfg,
		audit:  audit,
		static: static,
	}
}

// IsBlocked reports whether the IP is currently blocked, permanently or
// temporarily. Store failures surface as errors; the caller decides whether
// to fail open.
func (c *BlockController) IsBlocked(ctx context.Context, ip string) (bool, error) {
	if _, ok := c.static[ip]; ok {
		return true, nil
	}

	_, blocked, err := c.store.Get(ctx, permBlockKeyPrefix+ip)
	if err != nil {
		return false, fmt.Errorf("check permanent block for %s: %w", ip, err)
	}
	if blocked {
		return true, nil
	}

	_, blocked, err = c.store.Get(ctx, tempBlockKeyPrefix+ip)
	if err != nil {
		return false, fmt.Errorf("check temporary block for %s: %w", ip, err)
	}
	return blocked, nil
}

// Block places a temporary block on the IP and records a strike. Repeating
// the call while a block is live restarts the block window and still counts
// a strike. When the strike count reaches the review threshold the audit
// review signal fires.
func (c *BlockController) Block(ctx context.Context, ip, reason string) error {
	if err := c.store.Set(ctx, tempBlockKeyPrefix+ip, reason, c.cfg.TempBlockDuration); err != nil {
		return fmt.Errorf("set temporary block for %s: %w", ip, err)
	}

	strikes, err := c.store.Incr(ctx, strikeKeyPrefix+ip, c.cfg.StrikeRetention)
	if err != nil {
		return fmt.Errorf("record strike for %s: %w", ip, err)
	}

	if strikes >= int64(c.cfg.StrikeReviewThreshold) {
		c.audit.LogPermanentBlockReview(ip, int(strikes))
	}
	return nil
}

// BlockPermanently adds a runtime permanent block. Static blocklist entries
// come from configuration and do not pass through here.
func (c *BlockController) BlockPermanently(ctx context.Context, ip, reason string) error {
	if err := c.store.Set(ctx, permBlockKeyPrefix+ip, reason, 0); err != nil {
		return fmt.Errorf("set permanent block for %s: %w", ip, err)
	}
	return nil
}

// Unblock clears the temporary block, strike counter and any runtime
// permanent block for the IP. Statically configured blocks cannot be lifted
// at runtime; attempting to returns ErrForbidden.
func (c *BlockController) Unblock(ctx context.Context, ip string) error {
	if _, ok := c.static[ip]; ok {
		return fmt.Errorf("ip %s is blocked by static configuration: %w", ip, models.ErrForbidden)
	}

	keys := []string{tempBlockKeyPrefix + ip, strikeKeyPrefix + ip, permBlockKeyPrefix + ip}
	if err := c.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("unblock %s: %w", ip, err)
	}
	return nil
}

// Status reports the full block state of the IP for administrative tooling.
func (c *BlockController) Status(ctx context.Context, ip string) (*models.BlockStatus, error) {
	status := &models.BlockStatus{IP: ip}

	if _, ok := c.static[ip]; ok {
		status.PermanentlyBlocked = true
	} else {
		_, blocked, err := c.store.Get(ctx, permBlockKeyPrefix+ip)
		if err != nil {
			return nil, fmt.Errorf("block status for %s: %w", ip, err)
		}
		status.PermanentlyBlocked = blocked
	}

	ttl, blocked, err := c.store.TTL(ctx, tempBlockKeyPrefix+ip)
	if err != nil {
		return nil, fmt.Errorf("block status for %s: %w", ip, err)
	}
	if blocked {
		status.TemporarilyBlocked = true
		until := time.Now().Add(ttl)
		status.BlockedUntil = &until
	}

	strikes, err := c.store.GetCount(ctx, strikeKeyPrefix+ip)
	if err != nil {
		return nil, fmt.Errorf("block status for %s: %w", ip, err)
	}
	status.StrikeCount = int(strikes)

	return status, nil
}

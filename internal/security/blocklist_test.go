package security

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researcherhojin/emelmujiro/internal/cache"
	"github.com/researcherhojin/emelmujiro/internal/config"
	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/pkg/logger"
)

func newTestController(t *testing.T, staticBlocklist ...string) (*BlockController, *cache.MemoryStore) {
	t.Helper()
	store := cache.NewMemoryStore()
	cfg := &config.SecurityConfig{
		TempBlockDuration:     1 * time.Hour,
		StrikeRetention:       24 * time.Hour,
		StrikeReviewThreshold: 3,
		PermanentBlocklist:    staticBlocklist,
	}
	audit := logger.NewAuditLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return NewBlockController(store, cfg, audit), store
}

func TestBlockController_BlockThenIsBlocked(t *testing.T) {
	controller, _ := newTestController(t)
	ctx := context.Background()

	blocked, err := controller.IsBlocked(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, controller.Block(ctx, "203.0.113.1", "xss_script_tag"))

	blocked, err = controller.IsBlocked(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, blocked)

	// Other IPs are unaffected
	blocked, err = controller.IsBlocked(ctx, "203.0.113.2")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlockController_TemporaryBlockExpires(t *testing.T) {
	controller, store := newTestController(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, controller.Block(ctx, "203.0.113.1", "sqli_union_select"))

	now = now.Add(time.Hour + time.Minute)

	blocked, err := controller.IsBlocked(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, blocked, "temporary block should lapse after its duration")

	// Strikes outlive the block itself
	status, err := controller.Status(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.Equal(t, 1, status.StrikeCount)
}

func TestBlockController_StaticBlocklist(t *testing.T) {
	controller, _ := newTestController(t, "198.51.100.50")
	ctx := context.Background()

	blocked, err := controller.IsBlocked(ctx, "198.51.100.50")
	require.NoError(t, err)
	assert.True(t, blocked)

	// Static entries cannot be lifted at runtime
	err = controller.Unblock(ctx, "198.51.100.50")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestBlockController_BlockPermanently(t *testing.T) {
	controller, store := newTestController(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, controller.BlockPermanently(ctx, "203.0.113.9", "manual review"))

	// Permanent blocks have no TTL
	now = now.Add(30 * 24 * time.Hour)

	blocked, err := controller.IsBlocked(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, blocked)

	status, err := controller.Status(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, status.PermanentlyBlocked)
}

func TestBlockController_UnblockClearsAllState(t *testing.T) {
	controller, _ := newTestController(t)
	ctx := context.Background()

	require.NoError(t, controller.Block(ctx, "203.0.113.1", "xss_eval"))
	require.NoError(t, controller.Block(ctx, "203.0.113.1", "xss_eval"))
	require.NoError(t, controller.BlockPermanently(ctx, "203.0.113.1", "manual"))

	require.NoError(t, controller.Unblock(ctx, "203.0.113.1"))

	blocked, err := controller.IsBlocked(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, blocked)

	status, err := controller.Status(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, status.PermanentlyBlocked)
	assert.False(t, status.TemporarilyBlocked)
	assert.Equal(t, 0, status.StrikeCount)
}

func TestBlockController_StrikesAccumulate(t *testing.T) {
	controller, _ := newTestController(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, controller.Block(ctx, "203.0.113.1", "traversal_dotdot"))
	}

	status, err := controller.Status(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.Equal(t, 4, status.StrikeCount)
	assert.True(t, status.TemporarilyBlocked)
	require.NotNil(t, status.BlockedUntil)
	assert.True(t, status.BlockedUntil.After(time.Now()))
}

func TestBlockController_ReviewSignalFiresAtThreshold(t *testing.T) {
	var auditOut bytes.Buffer
	store := cache.NewMemoryStore()
	cfg := &config.SecurityConfig{
		TempBlockDuration:     1 * time.Hour,
		StrikeRetention:       24 * time.Hour,
		StrikeReviewThreshold: 3,
	}
	audit := logger.NewAuditLogger(slog.New(slog.NewJSONHandler(&auditOut, nil)))
	controller := NewBlockController(store, cfg, audit)
	ctx := context.Background()

	review := func() int {
		return strings.Count(auditOut.String(), `"event_type":"permanent_block_review"`)
	}

	require.NoError(t, controller.Block(ctx, "203.0.113.1", "xss_script_tag"))
	assert.Zero(t, review(), "first strike must not trigger review")

	require.NoError(t, controller.Block(ctx, "203.0.113.1", "xss_script_tag"))
	assert.Zero(t, review(), "second strike must not trigger review")

	require.NoError(t, controller.Block(ctx, "203.0.113.1", "xss_script_tag"))
	assert.Equal(t, 1, review(), "third strike triggers the review signal")
}

func TestBlockController_StatusForCleanIP(t *testing.T) {
	controller, _ := newTestController(t)

	status, err := controller.Status(context.Background(), "203.0.113.77")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.77", status.IP)
	assert.False(t, status.PermanentlyBlocked)
	assert.False(t, status.TemporarilyBlocked)
	assert.Nil(t, status.BlockedUntil)
	assert.Equal(t, 0, status.StrikeCount)
}

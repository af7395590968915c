// Package notify keeps the per-user toast queue shown by the backoffice.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/observability"
)

// DefaultCapacity is the number of toasts kept per user.
const DefaultCapacity = 50

// Center is an in-memory notification queue. Oldest entries are dropped
// once a user's queue is full.
type Center struct {
	mu       sync.Mutex
	queues   map[string][]domain.Notification
	capacity int
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewCenter creates a notification center. metrics may be nil.
func NewCenter(capacity int, metrics *observability.Metrics, logger *zap.Logger) *Center {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Center{
		queues:   make(map[string][]domain.Notification),
		capacity: capacity,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Notify queues n for n.UserID and returns it with its ID and timestamp set.
func (c *Center) Notify(_ context.Context, n domain.Notification) domain.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Level == "" {
		n.Level = domain.LevelInfo
	}
	n.CreatedAt = c.now().UTC()

	c.mu.Lock()
	q := append(c.queues[n.UserID], n)
	if len(q) > c.capacity {
		q = q[len(q)-c.capacity:]
	}
	c.queues[n.UserID] = q
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.IncrNotification(n.Level)
	}
	c.logger.Debug("notification queued",
		zap.String("user_id", n.UserID),
		zap.String("level", n.Level),
		zap.String("message_key", n.MessageKey),
	)
	return n
}

// List returns the queued notifications for userID, newest first.
func (c *Center) List(userID string) []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := c.queues[userID]
	out := make([]domain.Notification, len(q))
	for i, n := range q {
		out[len(q)-1-i] = n
	}
	return out
}

// Clear drops every notification for userID and returns how many there were.
func (c *Center) Clear(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.queues[userID])
	delete(c.queues, userID)
	return n
}

package schema

import (
	"context"
	"sync"

	"github.com/opremico/opremico-backend/pkg/logger"
	"gorm.io/gorm"
)

// Capabilities answers whether optional parts of the persisted schema exist.
// The platform tolerates partially migrated databases: the orders.is_draft
// column and the payment_events table may be absent. Each probe runs once
// per process and the answer is cached for the process lifetime; a migration
// applied while running is picked up on restart, not before.
type Capabilities struct {
	db   *gorm.DB
	logg *logger.Logger

	draftOnce  sync.Once
	draftFlag  bool
	eventsOnce sync.Once
	eventsFlag bool
}

// New builds a lazily probing Capabilities bound to the given connection.
func New(db *gorm.DB, logg *logger.Logger) *Capabilities {
	return &Capabilities{db: db, logg: logg}
}

// NewStatic returns a Capabilities with fixed answers, bypassing probing.
// Used in tests and for the sqlite-backed suites where information_schema
// does not exist.
func NewStatic(draftFlag, paymentEvents bool) *Capabilities {
	c := &Capabilities{draftFlag: draftFlag, eventsFlag: paymentEvents}
	c.draftOnce.Do(func() {})
	c.eventsOnce.Do(func() {})
	return c
}

// SupportsDraftFlag reports whether orders.is_draft exists.
func (c *Capabilities) SupportsDraftFlag(ctx context.Context) bool {
	c.draftOnce.Do(func() {
		c.draftFlag = c.columnExists(ctx, "orders", "is_draft")
	})
	return c.draftFlag
}

// HasPaymentEvents reports whether the payment_events table exists.
func (c *Capabilities) HasPaymentEvents(ctx context.Context) bool {
	c.eventsOnce.Do(func() {
		c.eventsFlag = c.tableExists(ctx, "payment_events")
	})
	return c.eventsFlag
}

func (c *Capabilities) columnExists(ctx context.Context, table, column string) bool {
	if c.db == nil {
		return false
	}
	var count int64
	err := c.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM information_schema.columns WHERE table_name = ? AND column_name = ?`,
		table, column,
	).Scan(&count).Error
	if err != nil {
		if c.logg != nil {
			c.logg.Warn(ctx, "schema column probe failed, assuming absent")
		}
		return false
	}
	return count > 0
}

func (c *Capabilities) tableExists(ctx context.Context, table string) bool {
	if c.db == nil {
		return false
	}
	var count int64
	err := c.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`,
		table,
	).Scan(&count).Error
	if err != nil {
		if c.logg != nil {
			c.logg.Warn(ctx, "schema table probe failed, assuming absent")
		}
		return false
	}
	return count > 0
}

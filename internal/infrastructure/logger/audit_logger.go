package logger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jaevor/go-nanoid"
	"gorm.io/gorm"
)

// AuditEvent is the persisted audit trail row. Operators triage failed
// orders from these without digging through process logs.
type AuditEvent struct {
	ID         string `gorm:"primaryKey"`
	Actor      string
	Action     string
	TargetType string
	TargetID   string `gorm:"index"`
	Details    string `gorm:"type:jsonb"`
	Timestamp  time.Time
}

const systemActor = "system"

type AuditLogger interface {
	LogAssignmentCreated(ctx context.Context, orderID, offerID string, campaignIDs []string, totalClicks int) error
	LogAssignmentFailed(ctx context.Context, orderID, errorType, reason string) error
	LogOrderDeadLettered(ctx context.Context, orderID, reason string, retryCount int) error
	LogCampaignAction(ctx context.Context, campaignID, action string) error
	LogManualAction(ctx context.Context, orderID, actor, action, notes string) error
}

type PGAuditLogger struct {
	db    *gorm.DB
	newID func() string
}

func NewPGAuditLogger(db *gorm.DB) (*PGAuditLogger, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}
	db.AutoMigrate(&AuditEvent{})
	return &PGAuditLogger{db: db, newID: idGenerator}, nil
}

func (l *PGAuditLogger) log(ctx context.Context, actor, action, targetType, targetID string, details map[string]interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	event := AuditEvent{
		ID:         l.newID(),
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    string(raw),
		Timestamp:  time.Now(),
	}
	return l.db.WithContext(ctx).Create(&event).Error
}

func (l *PGAuditLogger) LogAssignmentCreated(ctx context.Context, orderID, offerID string, campaignIDs []string, totalClicks int) error {
	return l.log(ctx, systemActor, "ASSIGNMENT_CREATED", "ORDER", orderID, map[string]interface{}{
		"offer_id":     offerID,
		"campaign_ids": campaignIDs,
		"total_clicks": totalClicks,
	})
}

func (l *PGAuditLogger) LogAssignmentFailed(ctx context.Context, orderID, errorType, reason string) error {
	return l.log(ctx, systemActor, "ASSIGNMENT_FAILED", "ORDER", orderID, map[string]interface{}{
		"error_type": errorType,
		"reason":     reason,
	})
}

func (l *PGAuditLogger) LogOrderDeadLettered(ctx context.Context, orderID, reason string, retryCount int) error {
	return l.log(ctx, systemActor, "ORDER_DEAD_LETTERED", "ORDER", orderID, map[string]interface{}{
		"reason":      reason,
		"retry_count": retryCount,
	})
}

func (l *PGAuditLogger) LogCampaignAction(ctx context.Context, campaignID, action string) error {
	return l.log(ctx, systemActor, action, "CAMPAIGN", campaignID, nil)
}

func (l *PGAuditLogger) LogManualAction(ctx context.Context, orderID, actor, action, notes string) error {
	return l.log(ctx, actor, action, "ORDER", orderID, map[string]interface{}{
		"notes": notes,
	})
}

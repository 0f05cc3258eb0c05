package audit

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/hollowmoor/showdown/card"
	"github.com/hollowmoor/showdown/core/log"
	"github.com/hollowmoor/showdown/outcome"
)

func NewMysqlClient(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableNestedTransaction: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger: log.NewGormLogrus(),
	})
}

// Database writes the audit trail to MySQL.
type Database struct {
	db *gorm.DB
}

func NewDatabase(dsn string) (*Database, error) {
	db, err := NewMysqlClient(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&DrawRecords{}, &OutcomeRecords{}); err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}

func (d *Database) RecordDraw(ctx context.Context, sessionID, participantID string, cards []card.Card) error {
	raw, err := json.Marshal(cards)
	if err != nil {
		return err
	}
	rec := &DrawRecords{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Cards:         raw,
	}
	return d.db.WithContext(ctx).Create(rec).Error
}

func (d *Database) RecordOutcome(ctx context.Context, out *outcome.Outcome) error {
	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	rec := &OutcomeRecords{
		SessionID: out.SessionID,
		Variant:   out.Variant,
		Winners:   strings.Join(out.WinnerIDs, ","),
		Margin:    int32(out.Margin),
		Raw:       raw,
	}
	return d.db.WithContext(ctx).Create(rec).Error
}

// FetchOutcome loads a recorded outcome for dispute review.
func (d *Database) FetchOutcome(ctx context.Context, sessionID string) (*outcome.Outcome, error) {
	rec := &OutcomeRecords{}
	err := d.db.WithContext(ctx).
		Where(OutcomeRecordsColumns.SessionID+" = ?", sessionID).
		First(rec).Error
	if err != nil {
		return nil, err
	}
	out := &outcome.Outcome{}
	if err := json.Unmarshal(rec.Raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

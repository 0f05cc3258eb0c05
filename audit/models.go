package audit

import (
	"time"

	"gorm.io/datatypes"
)

// DrawRecords [...]
type DrawRecords struct {
	ID            int64          `gorm:"autoIncrement:true;primaryKey;column:id;type:bigint;not null" json:"id"`
	SessionID     string         `gorm:"index;column:session_id;type:varchar(64);not null" json:"session_id"`
	ParticipantID string         `gorm:"column:participant_id;type:varchar(64);not null" json:"participant_id"`
	Cards         datatypes.JSON `gorm:"column:cards;not null" json:"cards"`
	CreateAt      time.Time      `gorm:"column:create_at;type:datetime;not null;default:CURRENT_TIMESTAMP" json:"create_at"`
}

// TableName get sql table name.
func (m *DrawRecords) TableName() string {
	return "draw_records"
}

// OutcomeRecords [...]
type OutcomeRecords struct {
	ID        int64          `gorm:"autoIncrement:true;primaryKey;column:id;type:bigint;not null" json:"id"`
	SessionID string         `gorm:"unique;column:session_id;type:varchar(64);not null" json:"session_id"`
	Variant   string         `gorm:"column:variant;type:varchar(32);not null" json:"variant"`
	Winners   string         `gorm:"column:winners;type:varchar(256);not null;default:''" json:"winners"`
	Margin    int32          `gorm:"column:margin;type:int;not null;default:0" json:"margin"`
	Raw       datatypes.JSON `gorm:"column:raw;not null" json:"raw"`
	CreateAt  time.Time      `gorm:"column:create_at;type:datetime;not null;default:CURRENT_TIMESTAMP" json:"create_at"`
}

// TableName get sql table name.
func (m *OutcomeRecords) TableName() string {
	return "outcome_records"
}

// OutcomeRecordsColumns get sql column name.
var OutcomeRecordsColumns = struct {
	ID        string
	SessionID string
	Variant   string
	Winners   string
	Margin    string
	Raw       string
	CreateAt  string
}{
	ID:        "id",
	SessionID: "session_id",
	Variant:   "variant",
	Winners:   "winners",
	Margin:    "margin",
	Raw:       "raw",
	CreateAt:  "create_at",
}

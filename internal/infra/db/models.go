package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type watchEntryModel struct {
	ID                  uint   `gorm:"primaryKey"`
	UserID              uint   `gorm:"index:idx_watch_entries_user_symbol,priority:1;not null"`
	SymbolCode          string `gorm:"index:idx_watch_entries_user_symbol,priority:2;size:12;not null"`
	SymbolName          string `gorm:"size:200;not null"`
	Active              bool   `gorm:"index;not null"`
	NotificationEnabled bool   `gorm:"not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func (watchEntryModel) TableName() string { return "watch_entries" }

type conditionModel struct {
	ID           uint                `gorm:"primaryKey"`
	WatchEntryID uint                `gorm:"index;not null"`
	UserID       uint                `gorm:"index;not null"`
	SymbolCode   string              `gorm:"index;size:12;not null"`
	SymbolName   string              `gorm:"size:200;not null"`
	Type         string              `gorm:"column:condition_type;index;size:20;not null"`
	Threshold    decimal.Decimal     `gorm:"type:numeric(10,4);not null"`
	BasePrice    decimal.NullDecimal `gorm:"type:numeric(15,2)"`
	Active       bool                `gorm:"index;not null"`
	Description  string              `gorm:"size:200"`
	LastFiredAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (conditionModel) TableName() string { return "alert_conditions" }

type alertModel struct {
	ID               uint            `gorm:"primaryKey"`
	ConditionID      uint            `gorm:"index;not null"`
	WatchEntryID     uint            `gorm:"index;not null"`
	UserID           uint            `gorm:"index;not null"`
	SymbolCode       string          `gorm:"index;size:12;not null"`
	SymbolName       string          `gorm:"size:200;not null"`
	Type             string          `gorm:"column:alert_type;size:20;not null"`
	Title            string          `gorm:"size:200;not null"`
	Message          string          `gorm:"size:1000;not null"`
	TriggerPrice     decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	BasePrice        decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	ChangePercentage decimal.Decimal `gorm:"type:numeric(10,4);not null"`
	ChangeAmount     decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Priority         string          `gorm:"size:10;not null"`
	Status           string          `gorm:"column:alert_status;index;size:20;not null"`
	Read             bool            `gorm:"column:is_read;index;not null"`
	ReadAt           *time.Time
	TriggeredAt      time.Time `gorm:"index;not null"`
	CreatedAt        time.Time
}

func (alertModel) TableName() string { return "alerts" }

package models

import (
	"time"

	"gorm.io/datatypes"
)

type EventType string

const (
	EventEarned    EventType = "EARNED"
	EventSpent     EventType = "SPENT"
	EventGifted    EventType = "GIFTED"
	EventPurchased EventType = "PURCHASED"
)

// User is the directory entry an Account hangs off.
type User struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	DisplayName string  `json:"displayName"`
	SchoolID    *string `json:"schoolId" gorm:"index;size:36"`
	Sport       string  `json:"sport" gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type School struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	Name      string `json:"name"`
	HypeTotal int64  `json:"hypeTotal" gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Account struct {
	UserID            string     `json:"userId" gorm:"primaryKey;size:36"`
	FreeHype          int64      `json:"freeHype" gorm:"not null;default:0"`
	PaidHype          int64      `json:"paidHype" gorm:"not null;default:0"`
	TotalEarned       int64      `json:"totalEarned" gorm:"not null;default:0;index"`
	TotalSpent        int64      `json:"totalSpent" gorm:"not null;default:0"`
	TotalReceived     int64      `json:"totalReceived" gorm:"not null;default:0"`
	DailyStreak       int        `json:"dailyStreak" gorm:"not null;default:0"`
	MaxStreak         int        `json:"maxStreak" gorm:"not null;default:0"`
	CurrentMultiplier float64    `json:"currentMultiplier" gorm:"not null;default:1"`
	AchievementCount  int        `json:"achievementCount" gorm:"not null;default:0"`
	LastActiveAt      *time.Time `json:"lastActiveAt"`
	Version           int64      `json:"-" gorm:"not null;default:0"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Available is the spendable balance across both pools.
func (a Account) Available() int64 {
	return a.FreeHype + a.PaidHype
}

// HypeEvent is append-only; rows are never updated or deleted.
type HypeEvent struct {
	ID          uint           `json:"-" gorm:"primaryKey"`
	Ref         string         `json:"id" gorm:"uniqueIndex;size:36"`
	Type        EventType      `json:"type" gorm:"index;size:16"`
	Amount      int64          `json:"amount"`
	FromUserID  *string        `json:"fromUserId" gorm:"index;size:36"`
	ToUserID    *string        `json:"toUserId" gorm:"index;size:36"`
	Category    string         `json:"category" gorm:"index"`
	Description string         `json:"description"`
	Metadata    datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	PaymentID   *string        `json:"paymentId,omitempty" gorm:"uniqueIndex"`
	CreatedAt   time.Time      `json:"timestamp" gorm:"index"`
}

type Achievement struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"uniqueIndex:idx_achievement_user_threshold;size:36"`
	Threshold int       `json:"threshold" gorm:"uniqueIndex:idx_achievement_user_threshold"`
	Title     string    `json:"title"`
	Reward    int64     `json:"reward"`
	CreatedAt time.Time `json:"createdAt"`
}

type Notification struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    string         `json:"userId" gorm:"index;size:36"`
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Payload   datatypes.JSON `json:"payload,omitempty" gorm:"type:jsonb"`
	Read      bool           `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"createdAt" gorm:"index"`
}

type EconomySnapshot struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TotalEarned   int64     `json:"totalEarned"`
	TotalSpent    int64     `json:"totalSpent"`
	Ratio         string    `json:"ratio" gorm:"type:numeric(18,4)"`
	IsSustainable bool      `json:"isSustainable"`
	Accounts      int64     `json:"accounts"`
	AsOf          time.Time `json:"asOf" gorm:"index"`
	CreatedAt     time.Time
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &School{}, &Account{}, &HypeEvent{},
		&Achievement{}, &Notification{}, &EconomySnapshot{},
	}
}

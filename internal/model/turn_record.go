package model

import "time"

// TurnRecord is the archived form of a committed chat turn. The archive is an
// audit trail only; sessions are never rebuilt from it.
type TurnRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:64;not null;index" json:"session_id"`
	VideoID   string    `gorm:"size:32;not null;index" json:"video_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (TurnRecord) TableName() string {
	return "chat_turns"
}

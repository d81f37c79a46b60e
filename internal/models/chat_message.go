package models

import (
	"time"
)

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is one turn of a user's chat session
type ChatMessage struct {
	ID        string     `gorm:"primaryKey;type:text" json:"id"`
	UserID    string     `gorm:"type:text;not null;index" json:"user_id"`
	SessionID *string    `gorm:"index" json:"session_id,omitempty"`
	Role      string     `gorm:"not null" json:"role"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt *time.Time `gorm:"autoCreateTime:false" json:"created_at,omitempty"`

	// Associations
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TableName ensures consistent table naming
func (ChatMessage) TableName() string {
	return EntityChatMessages
}

func (m *ChatMessage) EntityName() string { return EntityChatMessages }

func (m *ChatMessage) RecordID() string { return m.ID }

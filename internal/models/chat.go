package models

import (
	"time"
)

// ChatMessageType distinguishes trader messages from system notices
type ChatMessageType string

const (
	ChatMessageText   ChatMessageType = "text"
	ChatMessageSystem ChatMessageType = "system"
)

// SystemSenderID is the sender id used for system messages
const SystemSenderID = "system"

// ChatMessage is one entry in the conversation attached to a trade post
type ChatMessage struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	TradeID      string          `gorm:"index:idx_chat_trade_seq,priority:1;size:36;not null" json:"tradeId"`
	Seq          int64           `gorm:"index:idx_chat_trade_seq,priority:2;not null" json:"seq"`
	SenderID     string          `gorm:"size:36;not null" json:"senderId"`
	SenderName   string          `gorm:"size:100;not null" json:"senderName"`
	SenderAvatar string          `gorm:"size:255" json:"senderAvatar"`
	Content      string          `gorm:"type:text;not null" json:"content"`
	Type         ChatMessageType `gorm:"size:20;not null" json:"type"`
	CreatedAt    time.Time       `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}

package models

import "time"

// MessageType mirrors the notification kinds for inbox messages.
type MessageType string

const (
	MessageLike    MessageType = "like"
	MessageComment MessageType = "comment"
	MessageGotIt   MessageType = "got_it"
	MessageFollow  MessageType = "follow"
)

// MessageTypes lists every inbox message type in display order.
var MessageTypes = []MessageType{MessageLike, MessageComment, MessageGotIt, MessageFollow}

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	for _, mt := range MessageTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// Message is an inbox entry addressed to ReceiverID.
type Message struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Type       MessageType `gorm:"type:varchar(20);not null" json:"type"`
	Content    string      `gorm:"type:text" json:"content,omitempty"`
	SenderID   uint        `gorm:"not null" json:"sender_id"`
	Sender     User        `gorm:"foreignKey:SenderID" json:"sender"`
	ReceiverID uint        `gorm:"not null;index" json:"receiver_id"`
	PostID     *uint       `gorm:"index" json:"post_id,omitempty"`
	Read       bool        `gorm:"not null;default:false" json:"read"`
	CreatedAt  time.Time   `json:"created_at"`
}

// UnreadMessageCount is the unread inbox summary.
type UnreadMessageCount struct {
	Total  int64                 `json:"total"`
	ByType map[MessageType]int64 `json:"by_type"`
}

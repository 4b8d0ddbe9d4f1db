package models

import "time"

// NotificationType is the kind of interaction a notification reports.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationGotIt   NotificationType = "got_it"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

// Deduplicated reports whether at most one notification may exist per
// (recipient, post, actor) for this type.
func (t NotificationType) Deduplicated() bool {
	return t == NotificationLike || t == NotificationGotIt
}

// Notification tells a user that someone interacted with them or their post.
// idx_notifications_once enforces Deduplicated types at the database; follow
// rows carry no post and NULLs never collide.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notifications_recipient;uniqueIndex:idx_notifications_once,where:type <> 'comment'" json:"user_id"`
	ActorID   uint             `gorm:"not null;uniqueIndex:idx_notifications_once" json:"actor_id"`
	Actor     User             `gorm:"foreignKey:ActorID" json:"actor"`
	PostID    *uint            `gorm:"index;uniqueIndex:idx_notifications_once" json:"post_id,omitempty"`
	Type      NotificationType `gorm:"type:varchar(20);not null;uniqueIndex:idx_notifications_once" json:"type"`
	Message   string           `gorm:"not null" json:"message"`
	IsRead    bool             `gorm:"not null;default:false;index:idx_notifications_recipient" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

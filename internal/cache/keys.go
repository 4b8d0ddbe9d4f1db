package cache

import (
	"fmt"
	"time"
)

const (
	PostKeyPrefix        = "post:%d"
	UnreadNotifKeyPrefix = "notifications:unread:%d"
)

const (
	PostTTL        = 10 * time.Minute
	UnreadCountTTL = 5 * time.Minute
)

// PostKey is the cache key of the anonymous view of a post.
func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// UnreadNotificationsKey is the cache key of a user's unread notification count.
func UnreadNotificationsKey(userID uint) string {
	return fmt.Sprintf(UnreadNotifKeyPrefix, userID)
}

package database

import "freebies/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Like{},
		&models.GotIt{},
		&models.Follow{},
		&models.HiddenPost{},
		&models.Comment{},
		&models.Notification{},
		&models.Message{},
	}
}

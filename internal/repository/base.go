// Package repository provides data access layer implementations for the application.
// Repositories return raw gorm errors; services translate them into domain errors.
package repository

import (
	"freebies/internal/database"

	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// paginate applies LIMIT/OFFSET, treating non-positive limit as "no limit".
func paginate(db *gorm.DB, limit, offset int) *gorm.DB {
	if offset > 0 {
		db = db.Offset(offset)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	return db
}

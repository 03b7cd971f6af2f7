package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// Migrate creates or updates the tables backing every EduTrack collection.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Semester{},
		&models.Course{},
		&models.Enrollment{},
		&models.TeachingAssignment{},
		&models.Assignment{},
		&models.Submission{},
		&models.Announcement{},
		&models.AnnouncementRead{},
		&models.Material{},
		&models.TimetableEntry{},
		&models.Grade{},
		&models.ActivityLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

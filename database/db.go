package database

import (
	"fmt"
	"log"

	"github.com/anoixa/photo-gallery/database/models"
	"gorm.io/gorm"
)

// AutoMigrateDB auto DDL
func AutoMigrateDB(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.User{},
		&models.Image{},
		&models.Tag{},
		&models.Like{},
	}

	err := db.AutoMigrate(modelsToMigrate...)
	if err != nil {
		return fmt.Errorf("failed to auto migrate database schema: %w", err)
	}
	log.Println("Database auto migration completed.")
	return nil
}

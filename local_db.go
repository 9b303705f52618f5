package main

import (
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const defaultHistoryLimit = 50

// ValidationRecord represents the schema of the validation_history table.
// It never holds key material, masked or otherwise.
type ValidationRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Provider    string    `gorm:"size:64;index" json:"provider"`
	Status      string    `gorm:"size:32;not null" json:"status"`
	Message     string    `gorm:"size:1024" json:"message"`
	StatusCode  int       `json:"status_code"`
	ModelCount  int       `json:"model_count"`
	AccountType string    `gorm:"size:16" json:"account_type"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName keeps the table name stable regardless of the struct name
func (ValidationRecord) TableName() string {
	return "validation_history"
}

// InitializeDB opens the SQLite database at path and migrates the schema
func InitializeDB(path string) *gorm.DB {
	db, err := openDB(path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return db
}

func openDB(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Migrate the schema (create the table if it doesn't exist)
	if err := db.AutoMigrate(&ValidationRecord{}); err != nil {
		return nil, err
	}
	return db, nil
}

// InsertValidation inserts a new validation record into the database
func InsertValidation(db *gorm.DB, record ValidationRecord) error {
	result := db.Create(&record)
	return result.Error
}

// GetValidationHistory returns the newest records first, optionally for one provider
func GetValidationHistory(db *gorm.DB, providerID string, limit int) ([]ValidationRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var records []ValidationRecord
	query := db.Order("created_at desc, id desc").Limit(limit)
	if providerID != "" {
		query = query.Where("provider = ?", providerID)
	}
	result := query.Find(&records)
	return records, result.Error
}

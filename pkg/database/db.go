package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"key"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table, one row per key per day
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalEvents  int    `gorm:"default:0" json:"total_events"`
	TotalDays    int    `gorm:"default:0" json:"total_days"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// DonationSetting represents the donation_settings table. A single row
// carries the current campaign configuration.
type DonationSetting struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Goal          float64   `gorm:"default:0" json:"goal"`
	MinimumAmount float64   `gorm:"default:5" json:"minimum_amount"`
	Currency      string    `gorm:"default:PLN" json:"currency"`
	Description   string    `json:"description"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Donation represents the donations table
type Donation struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// InitDB initializes the database connection and migrates the schema
func InitDB() *gorm.DB {
	var db *gorm.DB
	var err error

	dsn := os.Getenv("DATABASE_URL")
	if dsn != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		dbPath := os.Getenv("DATA_PATH")
		if dbPath == "" {
			dbPath = "wspolnota.db"
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	}

	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// Auto Migration
	db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &DonationSetting{}, &Donation{})

	return db
}

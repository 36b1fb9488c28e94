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

// APIUsage represents the api_usage table: one rollup row per key per day
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalEvents  int    `gorm:"default:0" json:"total_events"`
	TotalPeople  int    `gorm:"default:0" json:"total_people"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// SolveRecord represents the solve_records table: one summary row per
// solve run, so operators can track schedule quality over time.
type SolveRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	KeyID          uint      `gorm:"index" json:"key_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	FromDate       string    `json:"from_date"`
	ToDate         string    `json:"to_date"`
	Mode           string    `json:"mode"`
	EventCount     int       `json:"event_count"`
	PersonCount    int       `json:"person_count"`
	AssignedCount  int       `json:"assigned_count"`
	HardViolations int       `json:"hard_violations"`
	SoftScore      float64   `json:"soft_score"`
	HealthScore    float64   `json:"health_score"`
	FairnessStdev  float64   `json:"fairness_stdev"`
	SolveMS        int64     `json:"solve_ms"`
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
			dbPath = "roster_engine.db"
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	}

	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// Auto Migration
	db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &SolveRecord{})

	return db
}

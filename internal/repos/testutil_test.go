package repos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/beatforge-backend/internal/logger"
	"github.com/yungbote/beatforge-backend/internal/types"
)

// The production schema leans on postgres defaults (uuid_generate_v4, now());
// tests create a sqlite-compatible equivalent by hand. Application code always
// sets ids and timestamps explicitly, so the defaults never matter here.
var testSchema = []string{
	`CREATE TABLE "user" (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT,
		is_producer BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE beat (
		id TEXT PRIMARY KEY,
		producer_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		genre TEXT,
		mood TEXT,
		"key" TEXT,
		bpm INTEGER DEFAULT 0,
		price REAL DEFAULT 0,
		duration INTEGER DEFAULT 0,
		is_free BOOLEAN DEFAULT 0,
		is_exclusive BOOLEAN DEFAULT 0,
		is_active BOOLEAN DEFAULT 1,
		play_count INTEGER DEFAULT 0,
		like_count INTEGER DEFAULT 0,
		tags TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE user_interaction (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		beat_id TEXT NOT NULL,
		action TEXT NOT NULL,
		duration INTEGER,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE search_suggestion (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		category TEXT NOT NULL,
		popularity INTEGER DEFAULT 1,
		last_result_count INTEGER DEFAULT 0,
		last_used_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(query, category)
	)`,
	`CREATE TABLE analytics_event (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		event_type TEXT NOT NULL,
		payload TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

func seedUser(t *testing.T, db *gorm.DB, username, displayName string, producer bool) *types.User {
	t.Helper()
	user := &types.User{
		ID:          uuid.New(),
		Email:       username + "@example.com",
		Password:    "x",
		Username:    username,
		DisplayName: displayName,
		IsProducer:  producer,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedBeat(t *testing.T, db *gorm.DB, beat *types.Beat) *types.Beat {
	t.Helper()
	if beat.ID == uuid.Nil {
		beat.ID = uuid.New()
	}
	if beat.CreatedAt.IsZero() {
		beat.CreatedAt = time.Now().UTC()
	}
	beat.UpdatedAt = beat.CreatedAt
	// GORM skips zero-value fields that carry a default tag on Create and
	// backfills the DB default into the struct, so an IsActive:false fixture
	// would be stored (and reported) as active; force the intended value.
	isActive := beat.IsActive
	if err := db.Create(beat).Error; err != nil {
		t.Fatalf("seed beat: %v", err)
	}
	beat.IsActive = isActive
	if err := db.Exec(`UPDATE beat SET is_active = ? WHERE id = ?`, isActive, beat.ID).Error; err != nil {
		t.Fatalf("seed beat is_active: %v", err)
	}
	return beat
}

func seedInteraction(t *testing.T, db *gorm.DB, userID, beatID uuid.UUID, action string, at time.Time, duration *int) {
	t.Helper()
	row := &types.UserInteraction{
		ID:        uuid.New(),
		UserID:    userID,
		BeatID:    beatID,
		Action:    action,
		Duration:  duration,
		CreatedAt: at,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed interaction: %v", err)
	}
}

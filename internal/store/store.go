package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrCloneNotFound is returned when no clone row matches the query.
var ErrCloneNotFound = errors.New("voice clone not found")

// Store wraps the clone database.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// Open connects to the SQLite database at dbPath and migrates the schema.
// The schema is owned by the migration; there is no runtime branching on
// column layout.
func Open(dbPath string, logger zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(&VoiceClone{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get underlying database: %w", err)
	}
	return sqlDB.Close()
}

// Create inserts a new clone record.
func (s *Store) Create(clone *VoiceClone) error {
	if clone.Status == "" {
		clone.Status = StatusActive
	}
	if err := s.db.Create(clone).Error; err != nil {
		return fmt.Errorf("insert clone: %w", err)
	}
	s.logger.Info().Str("voice", clone.VoiceID).Str("session", clone.SessionID).Msg("Clone saved")
	return nil
}

// ByVoiceID returns the clone with the given voice ID regardless of status.
func (s *Store) ByVoiceID(voiceID string) (*VoiceClone, error) {
	var clone VoiceClone
	err := s.db.Where("voice_id = ?", voiceID).First(&clone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCloneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query clone: %w", err)
	}
	return &clone, nil
}

// ActiveByVoiceID returns the clone only if it is the active identity.
func (s *Store) ActiveByVoiceID(voiceID string) (*VoiceClone, error) {
	var clone VoiceClone
	err := s.db.Where("voice_id = ? AND status = ?", voiceID, StatusActive).First(&clone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCloneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query clone: %w", err)
	}
	return &clone, nil
}

// BySessionID returns the clone created for a session.
func (s *Store) BySessionID(sessionID string) (*VoiceClone, error) {
	var clone VoiceClone
	err := s.db.Where("session_id = ?", sessionID).Order("created_at DESC").First(&clone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCloneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query clone: %w", err)
	}
	return &clone, nil
}

// List returns all clones, newest first.
func (s *Store) List() ([]VoiceClone, error) {
	var clones []VoiceClone
	if err := s.db.Order("created_at DESC").Find(&clones).Error; err != nil {
		return nil, fmt.Errorf("list clones: %w", err)
	}
	return clones, nil
}

// UpdateActivePersonality replaces the personality prompt on the active row
// for voiceID.
func (s *Store) UpdateActivePersonality(voiceID, prompt string) error {
	result := s.db.Model(&VoiceClone{}).
		Where("voice_id = ? AND status = ?", voiceID, StatusActive).
		Update("personality_prompt", prompt)
	if result.Error != nil {
		return fmt.Errorf("update personality: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCloneNotFound
	}
	return nil
}

// Archive marks the clone as no longer the active identity.
func (s *Store) Archive(voiceID string) error {
	result := s.db.Model(&VoiceClone{}).
		Where("voice_id = ?", voiceID).
		Update("status", StatusArchived)
	if result.Error != nil {
		return fmt.Errorf("archive clone: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCloneNotFound
	}
	s.logger.Info().Str("voice", voiceID).Msg("Clone archived")
	return nil
}

// ClearAll deletes every clone record.
func (s *Store) ClearAll() (int64, error) {
	result := s.db.Where("1 = 1").Delete(&VoiceClone{})
	if result.Error != nil {
		return 0, fmt.Errorf("clear clones: %w", result.Error)
	}
	s.logger.Info().Int64("deleted", result.RowsAffected).Msg("All clones cleared")
	return result.RowsAffected, nil
}

// Package store persists voice clone records in SQLite.
package store

import "time"

// Clone statuses
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// VoiceClone is one clone identity: the vendor voice ID together with the
// personality prompt and interview transcript that drive its chat behavior.
type VoiceClone struct {
	ID                     string    `gorm:"primaryKey" json:"id"`
	SessionID              string    `gorm:"not null;index" json:"session_id"`
	UserName               string    `gorm:"not null" json:"user_name"`
	VoiceID                string    `gorm:"not null;index" json:"voice_id"`
	PersonalityPrompt      string    `json:"personality_prompt"`
	InterviewTranscription string    `json:"interview_transcription"`
	CreatedAt              time.Time `json:"created_at"`
	Status                 string    `gorm:"default:active" json:"status"`
}

// TableName overrides the GORM table name.
func (VoiceClone) TableName() string {
	return "voice_clones"
}

// IsActive reports whether the clone is the current identity.
func (c *VoiceClone) IsActive() bool {
	return c.Status == StatusActive
}

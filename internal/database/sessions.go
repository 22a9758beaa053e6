package database

import (
	"context"
	"fmt"

	"cafeassist/internal/assistant"
	"cafeassist/internal/models"

	"github.com/jinzhu/gorm"
)

// Sessions stores conversation state per session key
type Sessions struct {
	db *gorm.DB
}

// NewSessions creates a session store backed by db
func NewSessions(db *gorm.DB) *Sessions {
	return &Sessions{db: db}
}

// Load returns the stored state for key, or a fresh conversation when the
// session has never been saved.
func (s *Sessions) Load(ctx context.Context, key string) (assistant.State, error) {
	if err := ctx.Err(); err != nil {
		return assistant.State{}, err
	}

	var row models.ChatSession
	err := s.db.Where("session_key = ?", key).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return assistant.NewState(), nil
	}
	if err != nil {
		return assistant.State{}, fmt.Errorf("load session: %w", err)
	}
	return assistant.UnmarshalState(row.State)
}

// Save stores state for key, creating the session row on first use
func (s *Sessions) Save(ctx context.Context, key string, userID *uint, st assistant.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := assistant.MarshalState(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	var row models.ChatSession
	err = s.db.Where("session_key = ?", key).First(&row).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		row = models.ChatSession{SessionKey: key, UserID: userID, State: data}
		err = s.db.Create(&row).Error
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("create session: %w", err)
		}
		// Another writer created the row first; update theirs.
		row = models.ChatSession{}
		if err := s.db.Where("session_key = ?", key).First(&row).Error; err != nil {
			return fmt.Errorf("load session: %w", err)
		}
	case err != nil:
		return fmt.Errorf("load session: %w", err)
	}

	updates := map[string]interface{}{"state": models.JSONDocument(data)}
	if userID != nil {
		updates["user_id"] = *userID
	}
	if err := s.db.Model(&row).Updates(updates).Error; err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Reset discards the stored state for key
func (s *Sessions) Reset(ctx context.Context, key string) error {
	return s.Save(ctx, key, nil, assistant.NewState())
}

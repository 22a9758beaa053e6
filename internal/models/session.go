package models

import (
	"database/sql/driver"
	"errors"

	"github.com/jinzhu/gorm"
)

// JSONDocument is a raw JSON value stored in a text column
type JSONDocument []byte

// Value returns the document for storage
func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	return string(d), nil
}

// Scan reads the stored document back
func (d *JSONDocument) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*d = append(JSONDocument(nil), v...)
		return nil
	case string:
		*d = JSONDocument(v)
		return nil
	default:
		return errors.New("unsupported type for JSONDocument")
	}
}

// ChatSession holds the conversation state for one browser or socket session
type ChatSession struct {
	gorm.Model
	SessionKey string       `gorm:"size:64;unique_index;not null"`
	UserID     *uint        `gorm:"index"`
	State      JSONDocument `gorm:"type:text"`
}

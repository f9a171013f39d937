package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered student or administrator account.
// The stored password is a bcrypt hash and is never serialized back to clients.
type User struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Name      string    `json:"name" db:"name" gorm:"type:text"`
	Email     string    `json:"email" db:"email" gorm:"type:text;not null;unique"`
	Password  string    `json:"-" db:"password" gorm:"type:text;not null"`
	RollNo    *int      `json:"rollNo,omitempty" db:"roll_no" gorm:"type:integer"`
	Course    string    `json:"course" db:"course" gorm:"type:text;not null;default:'Unknown'"`
	Year      *int      `json:"year,omitempty" db:"year" gorm:"type:integer"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
	Role      string    `json:"role" db:"role" gorm:"type:text;not null;default:'user'"`
}

// UserRef is the projected shape used for contributor autocomplete and for
// populated project references.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Ref projects a full user down to its reference shape.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleClient    UserRole = "client"
	RoleProvider  UserRole = "provider"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(120)" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex" json:"email" validate:"required,email"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Role      UserRole  `gorm:"type:varchar(20);default:'client'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

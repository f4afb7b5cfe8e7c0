package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member is a person taking part in one or more groups; UserID is set when
// the e-mail belongs to a registered user.
type Member struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Email         string         `gorm:"type:varchar(255);not null;index" json:"email"`
	Role          string         `gorm:"type:varchar(100);not null" json:"role"`
	Phone         string         `gorm:"type:varchar(30)" json:"phone"`
	EntryDate     *time.Time     `json:"entry_date"`
	DepartureDate *time.Time     `json:"departure_date"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *Member) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MemberHasGroup links a member to a group; a member appears once per group.
type MemberHasGroup struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_member_group" json:"member_id"`
	Member    Member    `gorm:"foreignKey:MemberID" json:"-"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_member_group;index" json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *MemberHasGroup) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

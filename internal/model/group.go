package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Group status values
const (
	GroupStatusInProgress = "EM ANDAMENTO"
	GroupStatusFinished   = "FINALIZADO"
)

// TypeGroup kinds
const (
	TypeGroupInternal = "INTERNO"
	TypeGroupExternal = "EXTERNO"
)

// TypeGroup classifies a group (e.g. "Comissão", INTERNO)
type TypeGroup struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	TypeGroup string    `gorm:"type:varchar(20);not null" json:"type_group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *TypeGroup) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Representative is a group's external contact; UserID is set only when the
// e-mail belongs to a registered user.
type Representative struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255)" json:"name"`
	Email     string     `gorm:"type:varchar(255);not null;index" json:"email"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *Representative) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Group is the central aggregate: created by a manager, with at most one
// active representative.
type Group struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Entity            string          `gorm:"type:varchar(255);not null" json:"entity"`
	Organ             string          `gorm:"type:varchar(255)" json:"organ"`
	Council           string          `gorm:"type:varchar(255)" json:"council"`
	Acronym           string          `gorm:"type:varchar(50)" json:"acronym"`
	Team              string          `gorm:"type:varchar(255)" json:"team"`
	Unit              string          `gorm:"type:varchar(255)" json:"unit"`
	Email             string          `gorm:"type:varchar(255)" json:"email"`
	OfficeRequested   string          `gorm:"type:varchar(255)" json:"office_requested"`
	OfficeIndicated   string          `gorm:"type:varchar(255)" json:"office_indicated"`
	InternalConcierge string          `gorm:"type:varchar(255)" json:"internal_concierge"`
	Observations      string          `gorm:"type:text" json:"observations"`
	Status            string          `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatorUserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"creator_user_id"`
	Creator           User            `gorm:"foreignKey:CreatorUserID" json:"-"`
	TypeGroupID       uuid.UUID       `gorm:"type:uuid;not null" json:"type_group_id"`
	TypeGroup         TypeGroup       `gorm:"foreignKey:TypeGroupID" json:"-"`
	RepresentativeID  *uuid.UUID      `gorm:"type:uuid" json:"representative_id"`
	Representative    *Representative `gorm:"foreignKey:RepresentativeID" json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (g *Group) BeforeCreate(_ *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

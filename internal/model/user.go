package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        string `gorm:"primaryKey;size:36;not null"`
	FirstName string `gorm:"size:64;not null"`
	LastName  string `gorm:"size:64;not null"`
	Email     string `gorm:"size:128;uniqueIndex;not null"`
	// bcrypt hash, never serialized
	Password string `gorm:"size:128;not null" json:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID          string          `gorm:"primaryKey;size:36;not null"`
	Name        string          `gorm:"size:128;not null"`
	Description string          `gorm:"size:512"`
	// minor currency units
	Price decimal.Decimal `gorm:"type:decimal(14,0);not null"`
	Sizes string          `gorm:"size:64"` // comma separated, e.g. "S,M,L"

	CreatedAt time.Time
	UpdatedAt time.Time
}

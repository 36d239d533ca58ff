package entity

import "time"

// RefreshToken records one rotating token family. The counter increases on
// every rotation; a client presenting an old counter reveals a stolen token
// and the whole family is revoked.
type RefreshToken struct {
	Family string `gorm:"primarykey"`

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	Counter    uint64
	Expiration time.Time
}

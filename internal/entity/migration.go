package entity

import "time"

// Migration records every applied versioned migrator.
type Migration struct {
	Version   string `gorm:"primarykey"`
	CreatedAt time.Time
}

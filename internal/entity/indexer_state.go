package entity

import (
	"database/sql"
	"time"
)

// IndexerState tracks scanning progress of one contract. There is one row
// per watched contract address.
type IndexerState struct {
	ContractAddress  string `gorm:"primarykey"`
	LastIndexedBlock uint64

	IsBackfilling     bool
	BackfillFromBlock sql.NullInt64
	BackfillToBlock   sql.NullInt64

	UpdatedAt time.Time
}

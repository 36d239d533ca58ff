package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

type IndexerStateRepository interface {
	Get(ctx context.Context, contractAddress string) (*entity.IndexerState, error)
	Upsert(ctx context.Context, state *entity.IndexerState) error
}

type indexerStateRepository struct{}

func NewIndexerStateRepository() *indexerStateRepository {
	return &indexerStateRepository{}
}

func (r *indexerStateRepository) Get(ctx context.Context, contractAddress string) (*entity.IndexerState, error) {
	var record entity.IndexerState
	err := xcontext.DB(ctx).
		Take(&record, "contract_address=?", contractAddress).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *indexerStateRepository) Upsert(ctx context.Context, state *entity.IndexerState) error {
	return xcontext.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract_address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_indexed_block",
			"is_backfilling",
			"backfill_from_block",
			"backfill_to_block",
			"updated_at",
		}),
	}).Create(state).Error
}

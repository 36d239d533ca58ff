package repository

import (
	"context"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

type SearchQuestFilter struct {
	Q         string
	Type      entity.QuestType
	Status    []entity.QuestStatusType
	CreatedBy string
	Offset    int
	Limit     int
}

type QuestRepository interface {
	Create(ctx context.Context, quest *entity.Quest) error
	GetByID(ctx context.Context, id string) (*entity.Quest, error)
	GetByOnChainID(ctx context.Context, onChainID int64) (*entity.Quest, error)
	GetByFundingTxHash(ctx context.Context, txHash string) (*entity.Quest, error)
	GetList(ctx context.Context, filter SearchQuestFilter) ([]entity.Quest, error)
	Update(ctx context.Context, quest *entity.Quest) error
	UpdateByID(ctx context.Context, id string, quest *entity.Quest) error
	Delete(ctx context.Context, id string) error
}

type questRepository struct{}

func NewQuestRepository() *questRepository {
	return &questRepository{}
}

func (r *questRepository) Create(ctx context.Context, quest *entity.Quest) error {
	return xcontext.DB(ctx).Create(quest).Error
}

func (r *questRepository) GetByID(ctx context.Context, id string) (*entity.Quest, error) {
	var record entity.Quest
	if err := xcontext.DB(ctx).Preload("Creator").Take(&record, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *questRepository) GetByOnChainID(ctx context.Context, onChainID int64) (*entity.Quest, error) {
	var record entity.Quest
	err := xcontext.DB(ctx).
		Take(&record, "on_chain_quest_id=?", onChainID).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *questRepository) GetByFundingTxHash(ctx context.Context, txHash string) (*entity.Quest, error) {
	var record entity.Quest
	if err := xcontext.DB(ctx).Take(&record, "funding_tx_hash=?", txHash).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *questRepository) GetList(ctx context.Context, filter SearchQuestFilter) ([]entity.Quest, error) {
	tx := xcontext.DB(ctx).
		Preload("Creator").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Order("created_at DESC")

	if filter.Q != "" {
		tx = tx.Where("title LIKE ?", "%"+filter.Q+"%")
	}

	if filter.Type != "" {
		tx = tx.Where("type=?", filter.Type)
	}

	if len(filter.Status) != 0 {
		tx = tx.Where("status IN (?)", filter.Status)
	}

	if filter.CreatedBy != "" {
		tx = tx.Where("created_by=?", filter.CreatedBy)
	}

	var records []entity.Quest
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *questRepository) Update(ctx context.Context, quest *entity.Quest) error {
	return xcontext.DB(ctx).
		Omit("created_by", "created_at", "id").
		Where("id=?", quest.ID).
		Updates(quest).Error
}

func (r *questRepository) UpdateByID(ctx context.Context, id string, quest *entity.Quest) error {
	return xcontext.DB(ctx).
		Model(&entity.Quest{}).
		Omit("created_by", "created_at", "id").
		Where("id=?", id).
		Updates(quest).Error
}

func (r *questRepository) Delete(ctx context.Context, id string) error {
	return xcontext.DB(ctx).
		Where("id=?", id).
		Delete(&entity.Quest{}).Error
}

package repository

import (
	"context"
	"time"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

type SearchParticipationFilter struct {
	QuestID string
	UserID  string
	Status  []entity.ParticipationStatus
	Offset  int
	Limit   int
}

// UserStatistics aggregates the verified participations of one user.
type UserStatistics struct {
	UserID  string
	Quests  uint64
	Rewards uint64
}

type ParticipationRepository interface {
	Create(ctx context.Context, p *entity.Participation) error
	Get(ctx context.Context, questID, userID string) (*entity.Participation, error)
	GetByID(ctx context.Context, id string) (*entity.Participation, error)
	GetByAttestationDigest(ctx context.Context, digest string) (*entity.Participation, error)
	GetList(ctx context.Context, filter SearchParticipationFilter) ([]entity.Participation, error)
	Count(ctx context.Context, questID string) (int64, error)
	Statistics(ctx context.Context, since, until time.Time) ([]UserStatistics, error)
	UpdateByID(ctx context.Context, id string, p *entity.Participation) error
}

type participationRepository struct{}

func NewParticipationRepository() *participationRepository {
	return &participationRepository{}
}

func (r *participationRepository) Create(ctx context.Context, p *entity.Participation) error {
	return xcontext.DB(ctx).Create(p).Error
}

func (r *participationRepository) Get(ctx context.Context, questID, userID string) (*entity.Participation, error) {
	var record entity.Participation
	err := xcontext.DB(ctx).
		Take(&record, "quest_id=? AND user_id=?", questID, userID).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *participationRepository) GetByID(ctx context.Context, id string) (*entity.Participation, error) {
	var record entity.Participation
	if err := xcontext.DB(ctx).Take(&record, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *participationRepository) GetByAttestationDigest(ctx context.Context, digest string) (*entity.Participation, error) {
	var record entity.Participation
	err := xcontext.DB(ctx).
		Take(&record, "attestation_digest=?", digest).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *participationRepository) GetList(ctx context.Context, filter SearchParticipationFilter) ([]entity.Participation, error) {
	tx := xcontext.DB(ctx).
		Preload("User").
		Preload("Quest").
		Preload("Quest.Creator").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Order("created_at DESC")

	if filter.QuestID != "" {
		tx = tx.Where("quest_id=?", filter.QuestID)
	}

	if filter.UserID != "" {
		tx = tx.Where("user_id=?", filter.UserID)
	}

	if len(filter.Status) != 0 {
		tx = tx.Where("status IN (?)", filter.Status)
	}

	var records []entity.Participation
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *participationRepository) Count(ctx context.Context, questID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.Participation{}).
		Where("quest_id=?", questID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Statistics groups attested and claimed participations per user. A zero
// since/until leaves that side of the attestation window open.
func (r *participationRepository) Statistics(
	ctx context.Context, since, until time.Time,
) ([]UserStatistics, error) {
	tx := xcontext.DB(ctx).
		Model(&entity.Participation{}).
		Select("user_id, COUNT(*) AS quests, SUM(reward_amount) AS rewards").
		Where("status IN (?)", []entity.ParticipationStatus{
			entity.ParticipationAttested, entity.ParticipationClaimed}).
		Group("user_id")

	if !since.IsZero() {
		tx = tx.Where("attested_at >= ?", since)
	}

	if !until.IsZero() {
		tx = tx.Where("attested_at < ?", until)
	}

	var records []UserStatistics
	if err := tx.Scan(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *participationRepository) UpdateByID(ctx context.Context, id string, p *entity.Participation) error {
	return xcontext.DB(ctx).
		Model(&entity.Participation{}).
		Where("id=?", id).
		Updates(p).Error
}

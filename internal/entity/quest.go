package entity

import (
	"database/sql"
	"time"

	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/enum"
)

type QuestType string

var (
	QuestTwitterInteraction = enum.New(QuestType("twitter_interaction"))
	QuestTwitterFollow      = enum.New(QuestType("twitter_follow"))
)

type QuestStatusType string

var (
	QuestDraft  = enum.New(QuestStatusType("draft"))
	QuestActive = enum.New(QuestStatusType("active"))
	QuestEnded  = enum.New(QuestStatusType("ended"))
	QuestClosed = enum.New(QuestStatusType("closed"))
)

type Quest struct {
	Base

	CreatedBy string
	Creator   User `gorm:"foreignKey:CreatedBy"`

	Type        QuestType
	Status      QuestStatusType
	Title       string
	Description []byte `gorm:"type:longtext"`

	// ValidationData is decoded per quest type by the questverify factory.
	ValidationData Map

	RewardToken     string
	TotalReward     uint64
	RewardPerUser   uint64
	MaxParticipants int

	StartTime time.Time
	EndTime   time.Time

	// OnChainQuestID is assigned by the indexer once the QuestCreated event
	// of the funding transaction is seen.
	OnChainQuestID sql.NullInt64 `gorm:"index"`
	FundingTxHash  string
}

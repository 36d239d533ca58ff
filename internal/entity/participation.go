package entity

import (
	"time"

	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/enum"
)

type ParticipationStatus string

var (
	ParticipationPending  = enum.New(ParticipationStatus("pending"))
	ParticipationAttested = enum.New(ParticipationStatus("attested"))
	ParticipationClaimed  = enum.New(ParticipationStatus("claimed"))
	ParticipationRejected = enum.New(ParticipationStatus("rejected"))
)

type Participation struct {
	Base

	QuestID string `gorm:"uniqueIndex:idx_participations_quest_user"`
	Quest   Quest  `gorm:"foreignKey:QuestID"`

	UserID string `gorm:"uniqueIndex:idx_participations_quest_user"`
	User   User   `gorm:"foreignKey:UserID"`

	Status ParticipationStatus

	// AttestationDigest fingerprints the verified attestation so the same
	// proof cannot be replayed across participations.
	AttestationDigest string `gorm:"index"`
	AttestedAt        time.Time

	// Reward bookkeeping, written by the indexer from RewardClaimed events.
	RewardAmount  uint64
	ClaimedTxHash string
	ClaimedAt     time.Time
}

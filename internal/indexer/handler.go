package indexer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/huaigu/proofquest-web3-adventures-sub002/contract/questfactory"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

// handleQuestCreated links the on-chain quest to the stored one through the
// funding transaction and activates it.
func (w *Watcher) handleQuestCreated(ctx context.Context, ev *questfactory.QuestCreatedEvent) {
	quest, err := w.questRepo.GetByFundingTxHash(ctx, ev.Raw.TxHash.Hex())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Debugf(
				"No quest funded by tx %s, skipped", ev.Raw.TxHash.Hex())
			return
		}

		xcontext.Logger(ctx).Errorf("Cannot get quest by funding tx: %v", err)
		return
	}

	if quest.OnChainQuestID.Valid {
		return
	}

	update := &entity.Quest{
		OnChainQuestID: sql.NullInt64{Valid: true, Int64: ev.QuestID.Int64()},
	}
	if quest.Status == entity.QuestDraft {
		update.Status = entity.QuestActive
	}

	if err := w.questRepo.UpdateByID(ctx, quest.ID, update); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update quest %s: %v", quest.ID, err)
		return
	}

	xcontext.Logger(ctx).Infof("Quest %s is now on chain as #%d", quest.ID, ev.QuestID.Int64())
}

// handleRewardClaimed marks the participation of the recipient as claimed.
// This is the only writer of the claimed status.
func (w *Watcher) handleRewardClaimed(ctx context.Context, ev *questfactory.RewardClaimedEvent) {
	quest, err := w.questRepo.GetByOnChainID(ctx, ev.QuestID.Int64())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Warnf("No quest with on-chain id %d", ev.QuestID.Int64())
			return
		}

		xcontext.Logger(ctx).Errorf("Cannot get quest by on-chain id: %v", err)
		return
	}

	user, err := w.userRepo.GetByWalletAddress(ctx, ev.Recipient.Hex())
	if err != nil {
		xcontext.Logger(ctx).Warnf("No user with wallet %s: %v", ev.Recipient.Hex(), err)
		return
	}

	participation, err := w.participationRepo.Get(ctx, quest.ID, user.ID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("No participation of user %s in quest %s: %v",
			user.ID, quest.ID, err)
		return
	}

	if participation.Status == entity.ParticipationClaimed {
		return
	}

	err = w.participationRepo.UpdateByID(ctx, participation.ID, &entity.Participation{
		Status:        entity.ParticipationClaimed,
		RewardAmount:  ev.Amount.Uint64(),
		ClaimedTxHash: ev.Raw.TxHash.Hex(),
		ClaimedAt:     time.Now(),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update participation %s: %v", participation.ID, err)
		return
	}

	xcontext.Logger(ctx).Infof("User %s claimed %s from quest %s",
		user.ID, ev.Amount.String(), quest.ID)
}

package domain

import (
	"context"
	"errors"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/domain/questverify"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/enum"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/primus"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xredis"
)

type ParticipationDomain interface {
	Participate(context.Context, *model.ParticipateRequest) (*model.ParticipateResponse, error)
	SubmitProof(context.Context, *model.SubmitProofRequest) (*model.SubmitProofResponse, error)
	Get(context.Context, *model.GetParticipationRequest) (*model.GetParticipationResponse, error)
	GetList(context.Context, *model.GetListParticipationRequest) (*model.GetListParticipationResponse, error)
}

type participationDomain struct {
	participationRepo repository.ParticipationRepository
	questRepo         repository.QuestRepository
	userRepo          repository.UserRepository

	primusClient *primus.Client
	redisClient  xredis.Client
}

func NewParticipationDomain(
	participationRepo repository.ParticipationRepository,
	questRepo repository.QuestRepository,
	userRepo repository.UserRepository,
	primusClient *primus.Client,
	redisClient xredis.Client,
) ParticipationDomain {
	return &participationDomain{
		participationRepo: participationRepo,
		questRepo:         questRepo,
		userRepo:          userRepo,
		primusClient:      primusClient,
		redisClient:       redisClient,
	}
}

func (d *participationDomain) Participate(
	ctx context.Context, req *model.ParticipateRequest,
) (*model.ParticipateResponse, error) {
	quest, err := d.questRepo.GetByID(ctx, req.QuestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found quest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get quest: %v", err)
		return nil, errorx.Unknown
	}

	if err := verifyQuestOpen(quest); err != nil {
		return nil, err
	}

	userID := xcontext.RequestUserID(ctx)
	if quest.CreatedBy == userID {
		return nil, errorx.New(errorx.PermissionDenied, "Creator cannot join their own quest")
	}

	_, err = d.participationRepo.Get(ctx, quest.ID, userID)
	if err == nil {
		return nil, errorx.New(errorx.AlreadyExists, "You have already joined this quest")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get participation: %v", err)
		return nil, errorx.Unknown
	}

	// The capacity check and the insert must see the same state.
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	count, err := d.participationRepo.Count(ctx, quest.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count participations: %v", err)
		return nil, errorx.Unknown
	}

	if count >= int64(quest.MaxParticipants) {
		return nil, errorx.New(errorx.Unavailable, "This quest is full")
	}

	participation := &entity.Participation{
		Base:    entity.Base{ID: uuid.NewString()},
		QuestID: quest.ID,
		UserID:  userID,
		Status:  entity.ParticipationPending,
	}

	if err := d.participationRepo.Create(ctx, participation); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create participation: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)
	return &model.ParticipateResponse{ID: participation.ID}, nil
}

func (d *participationDomain) SubmitProof(
	ctx context.Context, req *model.SubmitProofRequest,
) (*model.SubmitProofResponse, error) {
	quest, err := d.questRepo.GetByID(ctx, req.QuestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found quest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get quest: %v", err)
		return nil, errorx.Unknown
	}

	if err := verifyQuestOpen(quest); err != nil {
		return nil, err
	}

	userID := xcontext.RequestUserID(ctx)
	participation, err := d.participationRepo.Get(ctx, quest.ID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "You have not joined this quest yet")
		}

		xcontext.Logger(ctx).Errorf("Cannot get participation: %v", err)
		return nil, errorx.Unknown
	}

	if participation.Status != entity.ParticipationPending &&
		participation.Status != entity.ParticipationRejected {
		return nil, errorx.New(errorx.AlreadyExists, "You have already submitted a valid proof")
	}

	attestation := model.ConvertAttestation(req.Attestation)
	if _, err := d.primusClient.VerifyAttestation(&attestation); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot verify attestation: %v", err)
		return nil, errorx.New(errorx.InvalidAttestation, "The attestation is not valid")
	}

	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	if ethcommon.HexToAddress(attestation.Recipient) != ethcommon.HexToAddress(user.WalletAddress) {
		return nil, errorx.New(errorx.PermissionDenied,
			"The attestation belongs to another wallet")
	}

	attestedAt := time.UnixMilli(attestation.Timestamp)
	if time.Since(attestedAt) > xcontext.Configs(ctx).Attestation.RequestTimeout {
		return nil, errorx.New(errorx.InvalidAttestation, "The attestation is expired")
	}

	digest, err := primus.Digest(&attestation)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot compute attestation digest: %v", err)
		return nil, errorx.Unknown
	}

	_, err = d.participationRepo.GetByAttestationDigest(ctx, digest)
	if err == nil {
		return nil, errorx.New(errorx.AlreadyExists, "This attestation was already used")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get participation by digest: %v", err)
		return nil, errorx.Unknown
	}

	verifier, err := questverify.New(ctx, quest.Type, quest.ValidationData, false)
	if err != nil {
		return nil, err
	}

	result, err := verifier.VerifyAttestation(ctx, attestation)
	if err != nil {
		return nil, err
	}

	if result.Is(questverify.Rejected) {
		err := d.participationRepo.UpdateByID(ctx, participation.ID, &entity.Participation{
			Status: entity.ParticipationRejected,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update participation: %v", err)
			return nil, errorx.Unknown
		}

		return nil, errorx.New(errorx.Unavailable, "%s", result.Message())
	}

	err = d.participationRepo.UpdateByID(ctx, participation.ID, &entity.Participation{
		Status:            entity.ParticipationAttested,
		AttestationDigest: digest,
		AttestedAt:        time.Now(),
		RewardAmount:      quest.RewardPerUser,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update participation: %v", err)
		return nil, errorx.Unknown
	}

	if err := changeLeaderboard(ctx, d.redisClient, userID, quest.RewardPerUser); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot update leaderboard: %v", err)
	}

	return &model.SubmitProofResponse{Status: string(entity.ParticipationAttested)}, nil
}

func (d *participationDomain) Get(
	ctx context.Context, req *model.GetParticipationRequest,
) (*model.GetParticipationResponse, error) {
	if req.QuestID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty quest id")
	}

	participation, err := d.participationRepo.Get(ctx, req.QuestID, xcontext.RequestUserID(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found participation")
		}

		xcontext.Logger(ctx).Errorf("Cannot get participation: %v", err)
		return nil, errorx.Unknown
	}

	quest, err := d.questRepo.GetByID(ctx, participation.QuestID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get quest: %v", err)
		return nil, errorx.Unknown
	}

	user, err := d.userRepo.GetByID(ctx, participation.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetParticipationResponse{
		Participation: model.ConvertParticipation(
			participation, model.ConvertQuest(quest, 0), model.ConvertUser(user)),
	}, nil
}

func (d *participationDomain) GetList(
	ctx context.Context, req *model.GetListParticipationRequest,
) (*model.GetListParticipationResponse, error) {
	apiCfg := xcontext.Configs(ctx).ApiServer
	if req.Limit == 0 {
		req.Limit = apiCfg.DefaultLimit
	}

	if req.Limit < 0 {
		return nil, errorx.New(errorx.BadRequest, "Limit must be positive")
	}

	if req.Limit > apiCfg.MaxLimit {
		return nil, errorx.New(errorx.BadRequest, "Exceed the maximum of limit (%d)", apiCfg.MaxLimit)
	}

	filter := repository.SearchParticipationFilter{
		QuestID: req.QuestID,
		UserID:  req.UserID,
		Offset:  req.Offset,
		Limit:   req.Limit,
	}

	if req.Status != "" {
		status, err := enum.ToEnum[entity.ParticipationStatus](req.Status)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid status %s", req.Status)
		}

		filter.Status = []entity.ParticipationStatus{status}
	}

	participations, err := d.participationRepo.GetList(ctx, filter)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get list of participations: %v", err)
		return nil, errorx.Unknown
	}

	clientParticipations := []model.Participation{}
	for i := range participations {
		p := &participations[i]
		clientParticipations = append(clientParticipations, model.ConvertParticipation(
			p, model.ConvertQuest(&p.Quest, 0), model.ConvertUser(&p.User)))
	}

	return &model.GetListParticipationResponse{Participations: clientParticipations}, nil
}

func verifyQuestOpen(quest *entity.Quest) error {
	if quest.Status != entity.QuestActive {
		return errorx.New(errorx.Unavailable, "This quest is not active")
	}

	now := time.Now()
	if now.Before(quest.StartTime) {
		return errorx.New(errorx.Unavailable, "This quest has not started yet")
	}

	if now.After(quest.EndTime) {
		return errorx.New(errorx.Unavailable, "This quest has ended")
	}

	return nil
}

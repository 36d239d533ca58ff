package domain

import (
	"context"
	"errors"
	"time"

	"github.com/fatih/structs"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/common"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/domain/questverify"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/enum"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

type QuestDomain interface {
	Create(context.Context, *model.CreateQuestRequest) (*model.CreateQuestResponse, error)
	Get(context.Context, *model.GetQuestRequest) (*model.GetQuestResponse, error)
	GetList(context.Context, *model.GetListQuestRequest) (*model.GetListQuestResponse, error)
	Update(context.Context, *model.UpdateQuestRequest) (*model.UpdateQuestResponse, error)
	Delete(context.Context, *model.DeleteQuestRequest) (*model.DeleteQuestResponse, error)
	Close(context.Context, *model.CloseQuestRequest) (*model.CloseQuestResponse, error)
}

type questDomain struct {
	questRepo          repository.QuestRepository
	participationRepo  repository.ParticipationRepository
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewQuestDomain(
	questRepo repository.QuestRepository,
	participationRepo repository.ParticipationRepository,
	userRepo repository.UserRepository,
) QuestDomain {
	return &questDomain{
		questRepo:          questRepo,
		participationRepo:  participationRepo,
		globalRoleVerifier: common.NewGlobalRoleVerifier(userRepo),
	}
}

// Quest status can only move forward.
var nextQuestStatuses = map[entity.QuestStatusType][]entity.QuestStatusType{
	entity.QuestDraft:  {entity.QuestActive},
	entity.QuestActive: {entity.QuestEnded},
	entity.QuestEnded:  {entity.QuestClosed},
}

func (d *questDomain) Create(
	ctx context.Context, req *model.CreateQuestRequest,
) (*model.CreateQuestResponse, error) {
	questType, err := enum.ToEnum[entity.QuestType](req.Type)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid quest type: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid quest type %s", req.Type)
	}

	if req.Title == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty title")
	}

	if req.RewardPerUser == 0 || req.MaxParticipants <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Invalid reward setting")
	}

	if req.TotalReward < req.RewardPerUser*uint64(req.MaxParticipants) {
		return nil, errorx.New(errorx.BadRequest,
			"Total reward cannot cover %d participants", req.MaxParticipants)
	}

	startTime, endTime, err := parseQuestTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	// The validation data from client must be fully parsed.
	verifier, err := questverify.New(ctx, questType, req.ValidationData, true)
	if err != nil {
		return nil, err
	}

	quest := &entity.Quest{
		Base:            entity.Base{ID: uuid.NewString()},
		CreatedBy:       xcontext.RequestUserID(ctx),
		Type:            questType,
		Status:          entity.QuestDraft,
		Title:           req.Title,
		Description:     []byte(req.Description),
		ValidationData:  structs.Map(verifier),
		RewardToken:     req.RewardToken,
		TotalReward:     req.TotalReward,
		RewardPerUser:   req.RewardPerUser,
		MaxParticipants: req.MaxParticipants,
		StartTime:       startTime,
		EndTime:         endTime,
	}

	if err := d.questRepo.Create(ctx, quest); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create quest: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateQuestResponse{ID: quest.ID}, nil
}

func (d *questDomain) Get(
	ctx context.Context, req *model.GetQuestRequest,
) (*model.GetQuestResponse, error) {
	if req.ID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty quest id")
	}

	quest, err := d.questRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found quest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get quest: %v", err)
		return nil, errorx.Unknown
	}

	// Drafts stay private to their creator, as in GetList. NotFound instead
	// of PermissionDenied so the id leaks nothing.
	if quest.Status == entity.QuestDraft && quest.CreatedBy != xcontext.RequestUserID(ctx) {
		if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
			return nil, errorx.New(errorx.NotFound, "Not found quest")
		}
	}

	participants, err := d.participationRepo.Count(ctx, quest.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count participations: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetQuestResponse{Quest: model.ConvertQuest(quest, participants)}, nil
}

func (d *questDomain) GetList(
	ctx context.Context, req *model.GetListQuestRequest,
) (*model.GetListQuestResponse, error) {
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

	filter := repository.SearchQuestFilter{
		Q:         req.Q,
		CreatedBy: req.CreatedBy,
		Offset:    req.Offset,
		Limit:     req.Limit,
	}

	if req.Type != "" {
		questType, err := enum.ToEnum[entity.QuestType](req.Type)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid quest type %s", req.Type)
		}

		filter.Type = questType
	}

	if req.Status != "" {
		status, err := enum.ToEnum[entity.QuestStatusType](req.Status)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid status %s", req.Status)
		}

		filter.Status = []entity.QuestStatusType{status}
	} else {
		// Drafts are private to their creator.
		filter.Status = []entity.QuestStatusType{
			entity.QuestActive, entity.QuestEnded, entity.QuestClosed}
	}

	if len(filter.Status) == 1 && filter.Status[0] == entity.QuestDraft {
		if filter.CreatedBy != xcontext.RequestUserID(ctx) {
			return nil, errorx.New(errorx.PermissionDenied, "Only creator can list draft quests")
		}
	}

	quests, err := d.questRepo.GetList(ctx, filter)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get list of quests: %v", err)
		return nil, errorx.Unknown
	}

	clientQuests := []model.Quest{}
	for i := range quests {
		participants, err := d.participationRepo.Count(ctx, quests[i].ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot count participations: %v", err)
			return nil, errorx.Unknown
		}

		clientQuests = append(clientQuests, model.ConvertQuest(&quests[i], participants))
	}

	return &model.GetListQuestResponse{Quests: clientQuests}, nil
}

func (d *questDomain) Update(
	ctx context.Context, req *model.UpdateQuestRequest,
) (*model.UpdateQuestResponse, error) {
	quest, err := d.questRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found quest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get quest: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.verifyQuestOwner(ctx, quest); err != nil {
		return nil, err
	}

	update := &entity.Quest{}

	if req.Status != "" && req.Status != string(quest.Status) {
		status, err := enum.ToEnum[entity.QuestStatusType](req.Status)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid status %s", req.Status)
		}

		if !slices.Contains(nextQuestStatuses[quest.Status], status) {
			return nil, errorx.New(errorx.BadRequest,
				"Cannot change status from %s to %s", quest.Status, status)
		}

		if status == entity.QuestActive && req.FundingTxHash == "" && quest.FundingTxHash == "" {
			return nil, errorx.New(errorx.BadRequest,
				"Cannot activate a quest without the funding transaction")
		}

		update.Status = status
		update.FundingTxHash = req.FundingTxHash
	}

	// All other fields are frozen after the quest leaves draft.
	if quest.Status == entity.QuestDraft {
		if req.ValidationData != nil {
			verifier, err := questverify.New(ctx, quest.Type, req.ValidationData, true)
			if err != nil {
				return nil, err
			}

			update.ValidationData = structs.Map(verifier)
		}

		if req.StartTime != "" || req.EndTime != "" {
			startTime, endTime, err := parseQuestTimeRange(req.StartTime, req.EndTime)
			if err != nil {
				return nil, err
			}

			update.StartTime = startTime
			update.EndTime = endTime
		}

		if req.RewardPerUser != 0 || req.TotalReward != 0 || req.MaxParticipants != 0 {
			rewardPerUser := req.RewardPerUser
			if rewardPerUser == 0 {
				rewardPerUser = quest.RewardPerUser
			}

			totalReward := req.TotalReward
			if totalReward == 0 {
				totalReward = quest.TotalReward
			}

			maxParticipants := req.MaxParticipants
			if maxParticipants == 0 {
				maxParticipants = quest.MaxParticipants
			}

			if maxParticipants < 0 || rewardPerUser == 0 ||
				totalReward < rewardPerUser*uint64(maxParticipants) {
				return nil, errorx.New(errorx.BadRequest, "Invalid reward setting")
			}

			update.RewardPerUser = rewardPerUser
			update.TotalReward = totalReward
			update.MaxParticipants = maxParticipants
		}

		update.Title = req.Title
		update.Description = []byte(req.Description)
		update.RewardToken = req.RewardToken
	}

	update.ID = quest.ID
	if err := d.questRepo.Update(ctx, update); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update quest: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UpdateQuestResponse{}, nil
}

func (d *questDomain) Delete(
	ctx context.Context, req *model.DeleteQuestRequest,
) (*model.DeleteQuestResponse, error) {
	quest, err := d.questRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found quest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get quest: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.verifyQuestOwner(ctx, quest); err != nil {
		return nil, err
	}

	// Funded quests exist on chain and can only be closed, not removed.
	if quest.Status != entity.QuestDraft {
		return nil, errorx.New(errorx.BadRequest, "Only draft quests can be deleted")
	}

	if err := d.questRepo.Delete(ctx, quest.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete quest: %v", err)
		return nil, errorx.Unknown
	}

	return &model.DeleteQuestResponse{}, nil
}

// Close is the moderation path. The route is guarded by the admin
// middleware, so it skips the owner check and the forward-only transitions.
func (d *questDomain) Close(
	ctx context.Context, req *model.CloseQuestRequest,
) (*model.CloseQuestResponse, error) {
	quest, err := d.questRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found quest")
		}

		xcontext.Logger(ctx).Errorf("Cannot get quest: %v", err)
		return nil, errorx.Unknown
	}

	if quest.Status == entity.QuestClosed {
		return &model.CloseQuestResponse{}, nil
	}

	update := &entity.Quest{Base: entity.Base{ID: quest.ID}, Status: entity.QuestClosed}
	if err := d.questRepo.Update(ctx, update); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot close quest: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CloseQuestResponse{}, nil
}

func (d *questDomain) verifyQuestOwner(ctx context.Context, quest *entity.Quest) error {
	if quest.CreatedBy == xcontext.RequestUserID(ctx) {
		return nil
	}

	if err := d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		return errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	return nil
}

func parseQuestTimeRange(start, end string) (time.Time, time.Time, error) {
	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, errorx.New(errorx.BadRequest, "Invalid start time")
	}

	endTime, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, errorx.New(errorx.BadRequest, "Invalid end time")
	}

	if !endTime.After(startTime) {
		return time.Time{}, time.Time{}, errorx.New(errorx.BadRequest,
			"End time must be after start time")
	}

	return startTime, endTime, nil
}

package domain

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slices"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/common"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xredis"
)

const (
	LeaderBoardOrderedByQuests  = "quests"
	LeaderBoardOrderedByRewards = "rewards"

	LeaderBoardPeriodMonth = "month"
	LeaderBoardPeriodTotal = "total"
)

type StatisticDomain interface {
	GetLeaderBoard(context.Context, *model.GetLeaderBoardRequest) (*model.GetLeaderBoardResponse, error)
}

type statisticDomain struct {
	userRepo          repository.UserRepository
	participationRepo repository.ParticipationRepository
	redisClient       xredis.Client
}

func NewStatisticDomain(
	userRepo repository.UserRepository,
	participationRepo repository.ParticipationRepository,
	redisClient xredis.Client,
) StatisticDomain {
	return &statisticDomain{
		userRepo:          userRepo,
		participationRepo: participationRepo,
		redisClient:       redisClient,
	}
}

func (d *statisticDomain) GetLeaderBoard(
	ctx context.Context, req *model.GetLeaderBoardRequest,
) (*model.GetLeaderBoardResponse, error) {
	if d.redisClient == nil {
		return nil, errorx.New(errorx.Unavailable, "Leaderboard is not available")
	}

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

	if req.OrderedBy == "" {
		req.OrderedBy = LeaderBoardOrderedByQuests
	}

	orderedByFields := []string{LeaderBoardOrderedByQuests, LeaderBoardOrderedByRewards}
	if !slices.Contains(orderedByFields, req.OrderedBy) {
		return nil, errorx.New(errorx.BadRequest, "Cannot order leaderboard by %s", req.OrderedBy)
	}

	if req.Period == "" {
		req.Period = LeaderBoardPeriodTotal
	}

	now := time.Now()
	period, previousPeriod, err := resolvePeriod(req.Period, now)
	if err != nil {
		return nil, err
	}

	key := common.RedisKeyLeaderBoard(req.OrderedBy, period)
	records, err := d.redisClient.ZRevRangeWithScores(ctx, key, req.Offset, req.Limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get leaderboard: %v", err)
		return nil, errorx.Unknown
	}

	// Redis is only a cache of the database, an empty sorted set (fresh
	// deploy, flush) is rebuilt before answering.
	if len(records) == 0 && req.Offset == 0 {
		if err := d.rebuildLeaderBoard(ctx, period); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot rebuild leaderboard: %v", err)
			return nil, errorx.Unknown
		}

		records, err = d.redisClient.ZRevRangeWithScores(ctx, key, req.Offset, req.Limit)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get rebuilt leaderboard: %v", err)
			return nil, errorx.Unknown
		}
	}

	userIDs := make([]string, 0, len(records))
	for _, z := range records {
		userIDs = append(userIDs, z.Member.(string))
	}

	users, err := d.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get users of leaderboard: %v", err)
		return nil, errorx.Unknown
	}

	usersByID := map[string]model.User{}
	for i := range users {
		usersByID[users[i].ID] = model.ConvertUser(&users[i])
	}

	leaderboard := []model.UserStatistic{}
	for i, z := range records {
		userID := z.Member.(string)
		stat := model.UserStatistic{
			User:        usersByID[userID],
			Value:       uint64(z.Score),
			CurrentRank: uint64(req.Offset + i + 1),
		}

		if previousPeriod != "" {
			previousKey := common.RedisKeyLeaderBoard(req.OrderedBy, previousPeriod)
			rank, err := d.redisClient.ZRevRank(ctx, previousKey, userID)
			if err == nil {
				stat.PreviousRank = rank + 1
				stat.PreviousPeriod = previousPeriod
			} else if !xredis.IsNil(err) {
				xcontext.Logger(ctx).Warnf("Cannot get previous rank: %v", err)
			}
		}

		leaderboard = append(leaderboard, stat)
	}

	return &model.GetLeaderBoardResponse{LeaderBoard: leaderboard}, nil
}

func resolvePeriod(period string, now time.Time) (current, previous string, err error) {
	switch period {
	case LeaderBoardPeriodTotal:
		return "total", "", nil

	case LeaderBoardPeriodMonth:
		return now.Format("2006-01"), now.AddDate(0, -1, 0).Format("2006-01"), nil

	default:
		return "", "", errorx.New(errorx.BadRequest, "Invalid period %s", period)
	}
}

// rebuildLeaderBoard reloads the sorted sets of one period from the
// database. The "total" period spans everything, a month period covers the
// attestation times of that month.
func (d *statisticDomain) rebuildLeaderBoard(ctx context.Context, period string) error {
	var since, until time.Time
	if period != "total" {
		monthStart, err := time.Parse("2006-01", period)
		if err != nil {
			return err
		}

		since, until = monthStart, monthStart.AddDate(0, 1, 0)
	}

	stats, err := d.participationRepo.Statistics(ctx, since, until)
	if err != nil {
		return err
	}

	for _, stat := range stats {
		questKey := common.RedisKeyLeaderBoard(LeaderBoardOrderedByQuests, period)
		err := d.redisClient.ZAdd(ctx, questKey,
			redis.Z{Score: float64(stat.Quests), Member: stat.UserID})
		if err != nil {
			return err
		}

		rewardKey := common.RedisKeyLeaderBoard(LeaderBoardOrderedByRewards, period)
		err = d.redisClient.ZAdd(ctx, rewardKey,
			redis.Z{Score: float64(stat.Rewards), Member: stat.UserID})
		if err != nil {
			return err
		}
	}

	return nil
}

// changeLeaderboard bumps every leaderboard a newly attested participation
// counts toward.
func changeLeaderboard(
	ctx context.Context, redisClient xredis.Client, userID string, reward uint64,
) error {
	if redisClient == nil {
		return nil
	}

	month := time.Now().Format("2006-01")
	for _, period := range []string{"total", month} {
		key := common.RedisKeyLeaderBoard(LeaderBoardOrderedByQuests, period)
		if err := redisClient.ZIncrBy(ctx, key, 1, userID); err != nil {
			return err
		}

		key = common.RedisKeyLeaderBoard(LeaderBoardOrderedByRewards, period)
		if err := redisClient.ZIncrBy(ctx, key, int64(reward), userID); err != nil {
			return err
		}
	}

	return nil
}

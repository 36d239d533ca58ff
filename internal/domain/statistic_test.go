package domain

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/common"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/testutil"
)

func Test_statisticDomain_GetLeaderBoard(t *testing.T) {
	ctx := testutil.MockContext()

	first, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	second, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	redisClient := &testutil.MockRedisClient{
		ZRevRangeWithScoresFunc: func(ctx context.Context, key string, offset, limit int) ([]redis.Z, error) {
			require.Equal(t, common.RedisKeyLeaderBoard("quests", "total"), key)
			return []redis.Z{
				{Member: first.ID, Score: 5},
				{Member: second.ID, Score: 3},
			}, nil
		},
	}

	statisticDomain := NewStatisticDomain(
		repository.NewUserRepository(), repository.NewParticipationRepository(), redisClient)

	resp, err := statisticDomain.GetLeaderBoard(ctx, &model.GetLeaderBoardRequest{
		Period: "total", OrderedBy: "quests", Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.LeaderBoard, 2)

	require.Equal(t, first.ID, resp.LeaderBoard[0].User.ID)
	require.Equal(t, first.Name, resp.LeaderBoard[0].User.Name)
	require.Equal(t, uint64(5), resp.LeaderBoard[0].Value)
	require.Equal(t, uint64(1), resp.LeaderBoard[0].CurrentRank)

	require.Equal(t, second.ID, resp.LeaderBoard[1].User.ID)
	require.Equal(t, uint64(2), resp.LeaderBoard[1].CurrentRank)
}

func Test_statisticDomain_GetLeaderBoard_MonthPeriod(t *testing.T) {
	ctx := testutil.MockContext()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	month := time.Now().Format("2006-01")
	previousMonth := time.Now().AddDate(0, -1, 0).Format("2006-01")

	redisClient := &testutil.MockRedisClient{
		ZRevRangeWithScoresFunc: func(ctx context.Context, key string, offset, limit int) ([]redis.Z, error) {
			require.Equal(t, common.RedisKeyLeaderBoard("rewards", month), key)
			return []redis.Z{{Member: user.ID, Score: 100}}, nil
		},
		ZRevRankFunc: func(ctx context.Context, key string, member string) (uint64, error) {
			require.Equal(t, common.RedisKeyLeaderBoard("rewards", previousMonth), key)
			require.Equal(t, user.ID, member)
			return 2, nil
		},
	}

	statisticDomain := NewStatisticDomain(
		repository.NewUserRepository(), repository.NewParticipationRepository(), redisClient)

	resp, err := statisticDomain.GetLeaderBoard(ctx, &model.GetLeaderBoardRequest{
		Period: "month", OrderedBy: "rewards", Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.LeaderBoard, 1)
	require.Equal(t, uint64(100), resp.LeaderBoard[0].Value)
	require.Equal(t, uint64(3), resp.LeaderBoard[0].PreviousRank)
	require.Equal(t, previousMonth, resp.LeaderBoard[0].PreviousPeriod)
}

func Test_statisticDomain_GetLeaderBoard_RebuildOnEmpty(t *testing.T) {
	ctx := testutil.MockContext()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	for _, reward := range []uint64{10, 15} {
		quest, err := testutil.SampleQuest(ctx, nil)
		require.NoError(t, err)

		_, err = testutil.SampleParticipation(ctx, &entity.Participation{
			QuestID:      quest.ID,
			UserID:       user.ID,
			Status:       entity.ParticipationAttested,
			RewardAmount: reward,
		})
		require.NoError(t, err)
	}

	// A pending participation is not verified yet and never counts.
	pendingQuest, err := testutil.SampleQuest(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleParticipation(ctx, &entity.Participation{
		QuestID: pendingQuest.ID, UserID: user.ID})
	require.NoError(t, err)

	sortedSets := map[string][]redis.Z{}
	redisClient := &testutil.MockRedisClient{
		ZAddFunc: func(ctx context.Context, key string, z redis.Z) error {
			sortedSets[key] = append(sortedSets[key], z)
			return nil
		},
		ZRevRangeWithScoresFunc: func(ctx context.Context, key string, offset, limit int) ([]redis.Z, error) {
			return sortedSets[key], nil
		},
	}

	statisticDomain := NewStatisticDomain(
		repository.NewUserRepository(), repository.NewParticipationRepository(), redisClient)

	resp, err := statisticDomain.GetLeaderBoard(ctx, &model.GetLeaderBoardRequest{
		Period: "total", OrderedBy: "rewards", Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.LeaderBoard, 1)
	require.Equal(t, user.ID, resp.LeaderBoard[0].User.ID)
	require.Equal(t, uint64(25), resp.LeaderBoard[0].Value)

	// The rebuild fills the quest-count sorted set of the period too.
	questSet := sortedSets[common.RedisKeyLeaderBoard("quests", "total")]
	require.Len(t, questSet, 1)
	require.EqualValues(t, 2, questSet[0].Score)
}

func Test_statisticDomain_GetLeaderBoard_Failed(t *testing.T) {
	ctx := testutil.MockContext()
	statisticDomain := NewStatisticDomain(
		repository.NewUserRepository(), repository.NewParticipationRepository(),
		&testutil.MockRedisClient{})

	type args struct {
		req *model.GetLeaderBoardRequest
	}
	tests := []struct {
		name    string
		args    args
		wantErr error
	}{
		{
			name:    "invalid ordered by",
			args:    args{req: &model.GetLeaderBoardRequest{OrderedBy: "followers"}},
			wantErr: errorx.New(errorx.BadRequest, "Cannot order leaderboard by followers"),
		},
		{
			name:    "invalid period",
			args:    args{req: &model.GetLeaderBoardRequest{Period: "week"}},
			wantErr: errorx.New(errorx.BadRequest, "Invalid period week"),
		},
		{
			name:    "exceed the maximum limit",
			args:    args{req: &model.GetLeaderBoardRequest{Limit: 51}},
			wantErr: errorx.New(errorx.BadRequest, "Exceed the maximum of limit (50)"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := statisticDomain.GetLeaderBoard(ctx, tt.args.req)
			require.Error(t, err)
			require.Equal(t, tt.wantErr, err)
		})
	}
}

func Test_statisticDomain_GetLeaderBoard_WithoutRedis(t *testing.T) {
	ctx := testutil.MockContext()
	statisticDomain := NewStatisticDomain(
		repository.NewUserRepository(), repository.NewParticipationRepository(), nil)

	_, err := statisticDomain.GetLeaderBoard(ctx, &model.GetLeaderBoardRequest{})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.Unavailable, "Leaderboard is not available"), err)
}

func Test_changeLeaderboard(t *testing.T) {
	ctx := testutil.MockContext()

	type call struct {
		key    string
		incr   int64
		member string
	}

	var calls []call
	redisClient := &testutil.MockRedisClient{
		ZIncrByFunc: func(ctx context.Context, key string, incr int64, member string) error {
			calls = append(calls, call{key: key, incr: incr, member: member})
			return nil
		},
	}

	require.NoError(t, changeLeaderboard(ctx, redisClient, "user-id", 42))

	month := time.Now().Format("2006-01")
	require.Equal(t, []call{
		{key: common.RedisKeyLeaderBoard("quests", "total"), incr: 1, member: "user-id"},
		{key: common.RedisKeyLeaderBoard("rewards", "total"), incr: 42, member: "user-id"},
		{key: common.RedisKeyLeaderBoard("quests", month), incr: 1, member: "user-id"},
		{key: common.RedisKeyLeaderBoard("rewards", month), incr: 42, member: "user-id"},
	}, calls)

	// A missing redis client is not an error, the leaderboard is just skipped.
	require.NoError(t, changeLeaderboard(ctx, nil, "user-id", 42))
}

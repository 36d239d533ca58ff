package testutil

import (
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
)

func Test_SampleUser_ChecksummedWalletAddress(t *testing.T) {
	ctx := MockContext()

	user, err := SampleUser(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, ethcommon.HexToAddress(user.WalletAddress).Hex(), user.WalletAddress)
}

func Test_SampleQuest_OverwriteUncomparableFields(t *testing.T) {
	ctx := MockContext()

	quest, err := SampleQuest(ctx, &entity.Quest{
		CreatedBy:   "creator-id",
		Description: []byte("a very long description"),
		ValidationData: entity.Map{
			"tweet_url": "https://x.com/proofquest/status/1",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "creator-id", quest.CreatedBy)
	require.Equal(t, []byte("a very long description"), quest.Description)
	require.Equal(t, "https://x.com/proofquest/status/1", quest.ValidationData["tweet_url"])

	// Untouched fields keep their sample defaults.
	require.Equal(t, entity.QuestTwitterFollow, quest.Type)
	require.NotEmpty(t, quest.Title)
}

func Test_SampleParticipation_Overwrite(t *testing.T) {
	ctx := MockContext()

	participation, err := SampleParticipation(ctx, &entity.Participation{
		QuestID: "quest-id",
		UserID:  "user-id",
		Status:  entity.ParticipationAttested,
	})
	require.NoError(t, err)
	require.Equal(t, "quest-id", participation.QuestID)
	require.Equal(t, "user-id", participation.UserID)
	require.Equal(t, entity.ParticipationAttested, participation.Status)
}

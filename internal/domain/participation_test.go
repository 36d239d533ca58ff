package domain

import (
	"crypto/ecdsa"
	"encoding/hex"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/primus"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/testutil"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func newTestAttestor(t *testing.T) (*primus.Client, *ecdsa.PrivateKey) {
	t.Helper()

	appKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	attestorKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	client, err := primus.NewClient(
		"test-app",
		hex.EncodeToString(ethcrypto.FromECDSA(appKey)),
		[]string{ethcrypto.PubkeyToAddress(attestorKey.PublicKey).Hex()},
	)
	require.NoError(t, err)

	return client, attestorKey
}

// attestedProof builds an attestation over the given request url and data,
// signed by the test attestor.
func attestedProof(
	t *testing.T, attestorKey *ecdsa.PrivateKey, recipient, url, data string,
) model.Attestation {
	t.Helper()

	att := model.Attestation{
		Recipient: recipient,
		Request: model.AttestationRequest{
			URL:    url,
			Method: "GET",
		},
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		Attestors: []model.AttestationSigner{
			{AttestorAddr: ethcrypto.PubkeyToAddress(attestorKey.PublicKey).Hex()},
		},
	}

	converted := model.ConvertAttestation(att)
	digestHex, err := primus.Digest(&converted)
	require.NoError(t, err)

	digest, err := hexutil.Decode(digestHex)
	require.NoError(t, err)

	signature, err := ethcrypto.Sign(digest, attestorKey)
	require.NoError(t, err)

	att.Signatures = []string{hexutil.Encode(signature)}
	return att
}

func newParticipationDomain(primusClient *primus.Client) ParticipationDomain {
	return NewParticipationDomain(
		repository.NewParticipationRepository(),
		repository.NewQuestRepository(),
		repository.NewUserRepository(),
		primusClient,
		nil,
	)
}

func Test_participationDomain_Participate(t *testing.T) {
	ctx := testutil.MockContext()
	creator, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	quest, err := testutil.SampleQuest(ctx, &entity.Quest{CreatedBy: creator.ID})
	require.NoError(t, err)

	participationDomain := newParticipationDomain(nil)

	// Creator cannot join their own quest.
	_, err = participationDomain.Participate(
		xcontext.WithRequestUserID(ctx, creator.ID),
		&model.ParticipateRequest{QuestID: quest.ID})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.PermissionDenied, "Creator cannot join their own quest"), err)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	resp, err := participationDomain.Participate(userCtx, &model.ParticipateRequest{QuestID: quest.ID})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)

	var result entity.Participation
	require.NoError(t, xcontext.DB(ctx).Take(&result, "id=?", resp.ID).Error)
	require.Equal(t, entity.ParticipationPending, result.Status)

	// Joining twice is rejected.
	_, err = participationDomain.Participate(userCtx, &model.ParticipateRequest{QuestID: quest.ID})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.AlreadyExists, "You have already joined this quest"), err)
}

func Test_participationDomain_Participate_Failed(t *testing.T) {
	ctx := testutil.MockContext()
	creator, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	participationDomain := newParticipationDomain(nil)
	userCtx := xcontext.WithRequestUserID(ctx, user.ID)

	// The quest must be active.
	draftQuest, err := testutil.SampleQuest(ctx, &entity.Quest{
		CreatedBy: creator.ID, Status: entity.QuestDraft})
	require.NoError(t, err)

	_, err = participationDomain.Participate(userCtx, &model.ParticipateRequest{QuestID: draftQuest.ID})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.Unavailable, "This quest is not active"), err)

	// The quest must be inside its time window.
	endedQuest, err := testutil.SampleQuest(ctx, &entity.Quest{
		CreatedBy: creator.ID,
		StartTime: time.Now().Add(-2 * time.Hour),
		EndTime:   time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	_, err = participationDomain.Participate(userCtx, &model.ParticipateRequest{QuestID: endedQuest.ID})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.Unavailable, "This quest has ended"), err)

	// The quest must not be full.
	fullQuest, err := testutil.SampleQuest(ctx, &entity.Quest{
		CreatedBy: creator.ID, MaxParticipants: 1})
	require.NoError(t, err)

	another, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	_, err = testutil.SampleParticipation(ctx, &entity.Participation{
		QuestID: fullQuest.ID, UserID: another.ID})
	require.NoError(t, err)

	_, err = participationDomain.Participate(userCtx, &model.ParticipateRequest{QuestID: fullQuest.ID})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.Unavailable, "This quest is full"), err)
}

func Test_participationDomain_SubmitProof_Successfully(t *testing.T) {
	ctx := testutil.MockContext()
	primusClient, attestorKey := newTestAttestor(t)

	creator, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	quest, err := testutil.SampleQuest(ctx, &entity.Quest{CreatedBy: creator.ID})
	require.NoError(t, err)

	participation, err := testutil.SampleParticipation(ctx, &entity.Participation{
		QuestID: quest.ID, UserID: user.ID})
	require.NoError(t, err)

	proof := attestedProof(t, attestorKey, user.WalletAddress,
		"https://api.twitter.com/1.1/friendships/show.json?screen_name=proofquest",
		`{"following": "true"}`)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	resp, err := newParticipationDomain(primusClient).SubmitProof(userCtx, &model.SubmitProofRequest{
		QuestID:     quest.ID,
		Attestation: proof,
	})
	require.NoError(t, err)
	require.Equal(t, "attested", resp.Status)

	var result entity.Participation
	require.NoError(t, xcontext.DB(ctx).Take(&result, "id=?", participation.ID).Error)
	require.Equal(t, entity.ParticipationAttested, result.Status)
	require.NotEmpty(t, result.AttestationDigest)
	require.Equal(t, quest.RewardPerUser, result.RewardAmount)
	require.False(t, result.AttestedAt.IsZero())
}

func Test_participationDomain_SubmitProof_Rejected(t *testing.T) {
	ctx := testutil.MockContext()
	primusClient, attestorKey := newTestAttestor(t)

	creator, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	quest, err := testutil.SampleQuest(ctx, &entity.Quest{CreatedBy: creator.ID})
	require.NoError(t, err)

	participation, err := testutil.SampleParticipation(ctx, &entity.Participation{
		QuestID: quest.ID, UserID: user.ID})
	require.NoError(t, err)

	// A genuine attestation proving the user does NOT follow yet.
	proof := attestedProof(t, attestorKey, user.WalletAddress,
		"https://api.twitter.com/1.1/friendships/show.json?screen_name=proofquest",
		`{"following": "false"}`)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	participationDomain := newParticipationDomain(primusClient)

	_, err = participationDomain.SubmitProof(userCtx, &model.SubmitProofRequest{
		QuestID:     quest.ID,
		Attestation: proof,
	})
	require.Error(t, err)
	require.Equal(t, errorx.Unavailable, err.(errorx.Error).Code)

	var result entity.Participation
	require.NoError(t, xcontext.DB(ctx).Take(&result, "id=?", participation.ID).Error)
	require.Equal(t, entity.ParticipationRejected, result.Status)

	// A rejected participation can submit again with a better proof.
	proof = attestedProof(t, attestorKey, user.WalletAddress,
		"https://api.twitter.com/1.1/friendships/show.json?screen_name=proofquest",
		`{"following": "true"}`)

	resp, err := participationDomain.SubmitProof(userCtx, &model.SubmitProofRequest{
		QuestID:     quest.ID,
		Attestation: proof,
	})
	require.NoError(t, err)
	require.Equal(t, "attested", resp.Status)
}

func Test_participationDomain_SubmitProof_Failed(t *testing.T) {
	ctx := testutil.MockContext()
	primusClient, attestorKey := newTestAttestor(t)

	creator, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	quest, err := testutil.SampleQuest(ctx, &entity.Quest{CreatedBy: creator.ID})
	require.NoError(t, err)

	_, err = testutil.SampleParticipation(ctx, &entity.Participation{
		QuestID: quest.ID, UserID: user.ID})
	require.NoError(t, err)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	participationDomain := newParticipationDomain(primusClient)

	followURL := "https://api.twitter.com/1.1/friendships/show.json?screen_name=proofquest"

	t.Run("tampered attestation", func(t *testing.T) {
		proof := attestedProof(t, attestorKey, user.WalletAddress, followURL, `{"following": "false"}`)
		proof.Data = `{"following": "true"}`

		_, err := participationDomain.SubmitProof(userCtx, &model.SubmitProofRequest{
			QuestID:     quest.ID,
			Attestation: proof,
		})
		require.Error(t, err)
		require.Equal(t, errorx.New(errorx.InvalidAttestation, "The attestation is not valid"), err)
	})

	t.Run("attestation of another wallet", func(t *testing.T) {
		stranger, err := testutil.SampleUser(ctx, nil)
		require.NoError(t, err)

		proof := attestedProof(t, attestorKey, stranger.WalletAddress, followURL, `{"following": "true"}`)
		_, err = participationDomain.SubmitProof(userCtx, &model.SubmitProofRequest{
			QuestID:     quest.ID,
			Attestation: proof,
		})
		require.Error(t, err)
		require.Equal(t, errorx.New(errorx.PermissionDenied,
			"The attestation belongs to another wallet"), err)
	})

	t.Run("expired attestation", func(t *testing.T) {
		timeout := xcontext.Configs(ctx).Attestation.RequestTimeout

		att := model.Attestation{
			Recipient: user.WalletAddress,
			Request:   model.AttestationRequest{URL: followURL, Method: "GET"},
			Data:      `{"following": "true"}`,
			Timestamp: time.Now().Add(-2 * timeout).UnixMilli(),
		}

		converted := model.ConvertAttestation(att)
		digestHex, err := primus.Digest(&converted)
		require.NoError(t, err)

		digest, err := hexutil.Decode(digestHex)
		require.NoError(t, err)

		signature, err := ethcrypto.Sign(digest, attestorKey)
		require.NoError(t, err)
		att.Signatures = []string{hexutil.Encode(signature)}

		_, err = participationDomain.SubmitProof(userCtx, &model.SubmitProofRequest{
			QuestID:     quest.ID,
			Attestation: att,
		})
		require.Error(t, err)
		require.Equal(t, errorx.New(errorx.InvalidAttestation, "The attestation is expired"), err)
	})

	t.Run("not joined yet", func(t *testing.T) {
		stranger, err := testutil.SampleUser(ctx, nil)
		require.NoError(t, err)

		proof := attestedProof(t, attestorKey, stranger.WalletAddress, followURL, `{"following": "true"}`)
		_, err = participationDomain.SubmitProof(
			xcontext.WithRequestUserID(ctx, stranger.ID),
			&model.SubmitProofRequest{QuestID: quest.ID, Attestation: proof})
		require.Error(t, err)
		require.Equal(t, errorx.New(errorx.NotFound, "You have not joined this quest yet"), err)
	})
}

func Test_participationDomain_SubmitProof_ReplayedAttestation(t *testing.T) {
	ctx := testutil.MockContext()
	primusClient, attestorKey := newTestAttestor(t)

	creator, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	quest1, err := testutil.SampleQuest(ctx, &entity.Quest{CreatedBy: creator.ID})
	require.NoError(t, err)

	quest2, err := testutil.SampleQuest(ctx, &entity.Quest{CreatedBy: creator.ID})
	require.NoError(t, err)

	_, err = testutil.SampleParticipation(ctx, &entity.Participation{
		QuestID: quest1.ID, UserID: user.ID})
	require.NoError(t, err)

	_, err = testutil.SampleParticipation(ctx, &entity.Participation{
		QuestID: quest2.ID, UserID: user.ID})
	require.NoError(t, err)

	proof := attestedProof(t, attestorKey, user.WalletAddress,
		"https://api.twitter.com/1.1/friendships/show.json?screen_name=proofquest",
		`{"following": "true"}`)

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	participationDomain := newParticipationDomain(primusClient)

	_, err = participationDomain.SubmitProof(userCtx, &model.SubmitProofRequest{
		QuestID:     quest1.ID,
		Attestation: proof,
	})
	require.NoError(t, err)

	// The same attestation cannot prove another quest.
	_, err = participationDomain.SubmitProof(userCtx, &model.SubmitProofRequest{
		QuestID:     quest2.ID,
		Attestation: proof,
	})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.AlreadyExists, "This attestation was already used"), err)
}

func Test_participationDomain_GetList(t *testing.T) {
	ctx := testutil.MockContext()
	creator, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	quest, err := testutil.SampleQuest(ctx, &entity.Quest{CreatedBy: creator.ID})
	require.NoError(t, err)

	_, err = testutil.SampleParticipation(ctx, &entity.Participation{
		QuestID: quest.ID, UserID: user.ID, Status: entity.ParticipationAttested})
	require.NoError(t, err)

	participationDomain := newParticipationDomain(nil)

	resp, err := participationDomain.GetList(ctx, &model.GetListParticipationRequest{
		QuestID: quest.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Participations, 1)
	require.Equal(t, user.ID, resp.Participations[0].User.ID)
	require.Equal(t, quest.ID, resp.Participations[0].Quest.ID)
	require.Equal(t, "attested", resp.Participations[0].Status)

	resp, err = participationDomain.GetList(ctx, &model.GetListParticipationRequest{
		QuestID: quest.ID, Status: "pending", Limit: 10})
	require.NoError(t, err)
	require.Empty(t, resp.Participations)
}

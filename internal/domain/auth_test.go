package domain

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/crypto"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/errorx"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/testutil"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func Test_authDomain_WalletLogin_Failed(t *testing.T) {
	ctx := testutil.MockContext()
	authDomain := NewAuthDomain(
		ctx, repository.NewUserRepository(), repository.NewRefreshTokenRepository(), nil)

	_, err := authDomain.WalletLogin(ctx, &model.WalletLoginRequest{Address: "not-an-address"})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.BadRequest, "Invalid wallet address"), err)
}

func Test_authDomain_WalletLoginAndVerify_Successfully(t *testing.T) {
	ctx := testutil.MockContext()
	authDomain := NewAuthDomain(
		ctx, repository.NewUserRepository(), repository.NewRefreshTokenRepository(), nil)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey)

	loginResp, err := authDomain.WalletLogin(ctx, &model.WalletLoginRequest{
		Address: address.Hex(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, loginResp.Message)
	require.NotEmpty(t, loginResp.Nonce)

	signature, err := ethcrypto.Sign(accounts.TextHash([]byte(loginResp.Message)), key)
	require.NoError(t, err)
	signature[ethcrypto.RecoveryIDOffset] += 27

	verifyResp, err := authDomain.WalletVerify(ctx, &model.WalletVerifyRequest{
		Message:        loginResp.Message,
		Signature:      hexutil.Encode(signature),
		SessionNonce:   loginResp.Nonce,
		SessionAddress: loginResp.Address,
	})
	require.NoError(t, err)
	require.NotEmpty(t, verifyResp.AccessToken)
	require.NotEmpty(t, verifyResp.RefreshToken)
	require.Equal(t, address.Hex(), verifyResp.User.WalletAddress)

	// The first login creates the user with the wallet address as name.
	var user entity.User
	tx := xcontext.DB(ctx).Take(&user, "wallet_address=?", address.Hex())
	require.NoError(t, tx.Error)
	require.Equal(t, address.Hex(), user.Name)
	require.Equal(t, entity.UserRole, user.Role)

	// The second login reuses the same user.
	loginResp, err = authDomain.WalletLogin(ctx, &model.WalletLoginRequest{
		Address: address.Hex(),
	})
	require.NoError(t, err)

	signature, err = ethcrypto.Sign(accounts.TextHash([]byte(loginResp.Message)), key)
	require.NoError(t, err)

	verifyResp, err = authDomain.WalletVerify(ctx, &model.WalletVerifyRequest{
		Message:        loginResp.Message,
		Signature:      hexutil.Encode(signature),
		SessionNonce:   loginResp.Nonce,
		SessionAddress: loginResp.Address,
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, verifyResp.User.ID)
}

func Test_authDomain_WalletVerify_Failed(t *testing.T) {
	ctx := testutil.MockContext()
	authDomain := NewAuthDomain(
		ctx, repository.NewUserRepository(), repository.NewRefreshTokenRepository(), nil)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey)

	loginResp, err := authDomain.WalletLogin(ctx, &model.WalletLoginRequest{
		Address: address.Hex(),
	})
	require.NoError(t, err)

	signature, err := ethcrypto.Sign(accounts.TextHash([]byte(loginResp.Message)), key)
	require.NoError(t, err)

	type args struct {
		req *model.WalletVerifyRequest
	}
	tests := []struct {
		name    string
		args    args
		wantErr error
	}{
		{
			name: "malformed signature",
			args: args{
				req: &model.WalletVerifyRequest{
					Message:        loginResp.Message,
					Signature:      "0x1234",
					SessionNonce:   loginResp.Nonce,
					SessionAddress: loginResp.Address,
				},
			},
			wantErr: errorx.New(errorx.BadRequest, "Invalid message or signature"),
		},
		{
			name: "signed by another wallet",
			args: args{
				req: &model.WalletVerifyRequest{
					Message:        loginResp.Message,
					Signature:      signAsStranger(t, loginResp.Message),
					SessionNonce:   loginResp.Nonce,
					SessionAddress: loginResp.Address,
				},
			},
			wantErr: errorx.New(errorx.BadRequest, "Invalid message or signature"),
		},
		{
			name: "unknown nonce",
			args: args{
				req: &model.WalletVerifyRequest{
					Message:        loginResp.Message,
					Signature:      hexutil.Encode(signature),
					SessionNonce:   "another-nonce",
					SessionAddress: loginResp.Address,
				},
			},
			wantErr: errorx.New(errorx.BadRequest, "Unknown or already used nonce"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authDomain.WalletVerify(ctx, tt.args.req)
			require.Error(t, err)
			require.Equal(t, tt.wantErr, err)
		})
	}
}

func signAsStranger(t *testing.T, message string) string {
	t.Helper()

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	signature, err := ethcrypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)

	return hexutil.Encode(signature)
}

func Test_authDomain_Refresh(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	authDomain := NewAuthDomain(
		ctx, repository.NewUserRepository(), repository.NewRefreshTokenRepository(), nil,
	).(*authDomain)

	refreshToken, err := authDomain.generateRefreshToken(ctx, user.ID)
	require.NoError(t, err)

	resp, err := authDomain.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	accessToken, err := xcontext.TokenEngine(ctx).Verify(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, accessToken.ID)

	rotated, err := authDomain.refreshTokenEngine.Verify(resp.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, uint64(1), rotated.Counter)

	// The new token rotates again without any problem.
	_, err = authDomain.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
}

func Test_authDomain_Refresh_StolenToken(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	authDomain := NewAuthDomain(
		ctx, repository.NewUserRepository(), repository.NewRefreshTokenRepository(), nil,
	).(*authDomain)

	refreshToken, err := authDomain.generateRefreshToken(ctx, user.ID)
	require.NoError(t, err)

	_, err = authDomain.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.NoError(t, err)

	// Replaying a rotated token reveals the theft and revokes the family.
	_, err = authDomain.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.Error(t, err)
	require.Equal(t, errorx.StolenDetected, err.(errorx.Error).Code)

	stolen, err := authDomain.refreshTokenEngine.Verify(refreshToken)
	require.NoError(t, err)

	hashedFamily := crypto.SHA256([]byte(stolen.Family))
	_, err = repository.NewRefreshTokenRepository().Get(ctx, hashedFamily)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func Test_authDomain_Refresh_Expired(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	authDomain := NewAuthDomain(
		ctx, repository.NewUserRepository(), repository.NewRefreshTokenRepository(), nil,
	).(*authDomain)

	refreshToken, err := authDomain.generateRefreshToken(ctx, user.ID)
	require.NoError(t, err)

	stolen, err := authDomain.refreshTokenEngine.Verify(refreshToken)
	require.NoError(t, err)

	hashedFamily := crypto.SHA256([]byte(stolen.Family))
	tx := xcontext.DB(ctx).
		Model(&entity.RefreshToken{}).
		Where("family=?", hashedFamily).
		Update("expiration", time.Now().Add(-time.Minute))
	require.NoError(t, tx.Error)

	_, err = authDomain.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.Error(t, err)
	require.Equal(t, errorx.New(errorx.TokenExpired, "Your refresh token is expired"), err)
}

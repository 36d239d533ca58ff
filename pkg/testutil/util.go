package testutil

import (
	"context"
	"time"

	"github.com/gorilla/sessions"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/huaigu/proofquest-web3-adventures-sub002/config"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/model"
	"github.com/huaigu/proofquest-web3-adventures-sub002/migration"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/authenticator"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/logger"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		ApiServer: config.APIServerConfigs{
			MaxLimit:     50,
			DefaultLimit: 1,
		},
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Minute,
			},
			RefreshToken: config.TokenConfigs{
				Name:       "refresh_token",
				Expiration: time.Minute,
			},
			SIWE: config.SIWEConfigs{
				Domain:          "quest.example.org",
				ChainID:         1,
				NonceExpiration: time.Minute,
				MessageTimeout:  time.Minute,
			},
		},
		Session: config.SessionConfigs{
			Secret: "session-secret",
			Name:   "session",
		},
		Attestation: config.AttestationConfigs{
			AppID:          "test-app",
			RequestTimeout: time.Minute,
		},
		Blockchain: config.BlockchainConfigs{
			Chain:               "sepolia",
			QuestFactoryAddress: "0x00000000000000000000000000000000000Fac70",
			StartBlock:          100,
			Confirmations:       5,
			ScanInterval:        time.Minute,
			BatchSize:           10,
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLoggerWithLevel(logger.SILENCE))
	ctx = xcontext.WithTokenEngine(ctx,
		authenticator.NewTokenEngine[model.AccessToken](cfg.Auth.TokenSecret))
	ctx = xcontext.WithSessionStore(ctx, sessions.NewCookieStore([]byte(cfg.Session.Secret)))
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.AutoMigrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}

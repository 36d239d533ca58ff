package main

import (
	"net"
	"net/http"

	"github.com/urfave/cli/v2"
	"golang.org/x/net/netutil"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/middleware"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/router"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadConfig()
	s.db = s.newDatabase()
	s.ctx = xcontext.WithDB(s.ctx, s.db)
	s.migrateDB()
	s.loadRedisClient()
	s.loadPrimusClient()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	listener, err := net.Listen("tcp", s.configs.ApiServer.Address())
	if err != nil {
		return err
	}

	if max := s.configs.ApiServer.MaxConnections; max > 0 {
		listener = netutil.LimitListener(listener, max)
	}

	s.server = &http.Server{Handler: s.router.Handler()}

	xcontext.Logger(s.ctx).Infof("Starting server on port: %s", s.configs.ApiServer.Port)
	if err := s.server.Serve(listener); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Server stop")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.db, s.configs, s.logger)
	s.router.AddCloser(middleware.Logger())

	// Auth API
	authRouter := s.router.Branch()
	authRouter.After(middleware.HandleSaveSession())
	{
		router.GET(authRouter, "/wallet/login", s.authDomain.WalletLogin)
		router.POST(authRouter, "/wallet/verify", s.authDomain.WalletVerify)
		router.POST(authRouter, "/refresh", s.authDomain.Refresh)
	}

	// These following APIs need authentication with Access Token.
	onlyTokenAuthRouter := s.router.Branch()
	authVerifier := middleware.NewAuthVerifier().WithAccessToken()
	onlyTokenAuthRouter.Before(authVerifier.Middleware())
	{
		// User API
		router.GET(onlyTokenAuthRouter, "/getMe", s.userDomain.GetMe)
		router.POST(onlyTokenAuthRouter, "/updateUser", s.userDomain.Update)

		// Quest API
		router.POST(onlyTokenAuthRouter, "/createQuest", s.questDomain.Create)
		router.POST(onlyTokenAuthRouter, "/updateQuest", s.questDomain.Update)
		router.POST(onlyTokenAuthRouter, "/deleteQuest", s.questDomain.Delete)

		// Participation API
		router.POST(onlyTokenAuthRouter, "/participate", s.participationDomain.Participate)
		router.POST(onlyTokenAuthRouter, "/submitProof", s.participationDomain.SubmitProof)
		router.GET(onlyTokenAuthRouter, "/getParticipation", s.participationDomain.Get)

		// Attestation API
		router.POST(onlyTokenAuthRouter, "/sign", s.attestationDomain.Sign)
	}

	// Moderation API, admins only.
	onlyAdminRouter := s.router.Branch()
	onlyAdminRouter.Before(authVerifier.Middleware())
	onlyAdminRouter.Before(middleware.NewOnlyAdmin(s.userRepo).Middleware())
	{
		router.POST(onlyAdminRouter, "/closeQuest", s.questDomain.Close)
	}

	// Public API.
	router.GET(s.router, "/getUser", s.userDomain.GetUser)
	router.GET(s.router, "/getQuest", s.questDomain.Get)
	router.GET(s.router, "/getListQuest", s.questDomain.GetList)
	router.GET(s.router, "/getListParticipation", s.participationDomain.GetList)
	router.GET(s.router, "/getLeaderBoard", s.statisticDomain.GetLeaderBoard)
	router.POST(s.router, "/validate", s.attestationDomain.Validate)
	router.GET(s.router, "/health", s.attestationDomain.Health)
}

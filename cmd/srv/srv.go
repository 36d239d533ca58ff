package main

import (
	"context"
	"log"
	"net/http"

	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/huaigu/proofquest-web3-adventures-sub002/config"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/domain"
	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/repository"
	"github.com/huaigu/proofquest-web3-adventures-sub002/migration"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/logger"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/primus"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/router"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xredis"
)

type srv struct {
	ctx context.Context
	app *cli.App

	configs config.Configs
	logger  logger.Logger
	db      *gorm.DB

	userRepo          repository.UserRepository
	refreshTokenRepo  repository.RefreshTokenRepository
	questRepo         repository.QuestRepository
	participationRepo repository.ParticipationRepository
	indexerStateRepo  repository.IndexerStateRepository

	authDomain          domain.AuthDomain
	userDomain          domain.UserDomain
	questDomain         domain.QuestDomain
	participationDomain domain.ParticipationDomain
	attestationDomain   domain.AttestationDomain
	statisticDomain     domain.StatisticDomain

	redisClient  xredis.Client
	primusClient *primus.Client

	router *router.Router
	server *http.Server
}

func (s *srv) loadConfig() {
	configs, err := config.Load()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	s.configs = configs
	s.logger = logger.NewLogger()

	s.ctx = context.Background()
	s.ctx = xcontext.WithConfigs(s.ctx, s.configs)
	s.ctx = xcontext.WithLogger(s.ctx, s.logger)
}

func (s *srv) newDatabase() *gorm.DB {
	var dialector gorm.Dialector
	switch s.configs.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.configs.Database.SQLiteFile)
	default:
		dialector = mysql.Open(s.configs.Database.ConnectionString())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatalf("cannot connect to database: %v", err)
	}

	return db
}

func (s *srv) migrateDB() {
	// MySQL deployments take the embedded SQL files, everything else runs
	// the versioned migrators.
	var err error
	if s.configs.Database.Driver == "mysql" {
		err = migration.MigrateMySQL(s.ctx)
	} else {
		err = migration.Migrate(s.ctx)
	}

	if err != nil {
		log.Fatalf("cannot migrate database: %v", err)
	}
}

func (s *srv) loadRedisClient() {
	if s.configs.Redis.Addr == "" {
		xcontext.Logger(s.ctx).Warnf("Redis is not configured, fall back to session nonces")
		return
	}

	redisClient, err := xredis.NewClient(s.ctx)
	if err != nil {
		log.Fatalf("cannot connect to redis: %v", err)
	}

	s.redisClient = redisClient
}

func (s *srv) loadPrimusClient() {
	primusClient, err := primus.NewClient(
		s.configs.Attestation.AppID,
		s.configs.Attestation.AppSecretKey,
		s.configs.Attestation.AttestorAddresses,
	)
	if err != nil {
		log.Fatalf("cannot create attestation client: %v", err)
	}

	s.primusClient = primusClient
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.refreshTokenRepo = repository.NewRefreshTokenRepository()
	s.questRepo = repository.NewQuestRepository()
	s.participationRepo = repository.NewParticipationRepository()
	s.indexerStateRepo = repository.NewIndexerStateRepository()
}

func (s *srv) loadDomains() {
	s.authDomain = domain.NewAuthDomain(s.ctx, s.userRepo, s.refreshTokenRepo, s.redisClient)
	s.userDomain = domain.NewUserDomain(s.userRepo)
	s.questDomain = domain.NewQuestDomain(s.questRepo, s.participationRepo, s.userRepo)
	s.participationDomain = domain.NewParticipationDomain(
		s.participationRepo, s.questRepo, s.userRepo, s.primusClient, s.redisClient)
	s.attestationDomain = domain.NewAttestationDomain(s.userRepo, s.primusClient, s.redisClient)
	s.statisticDomain = domain.NewStatisticDomain(s.userRepo, s.participationRepo, s.redisClient)
}

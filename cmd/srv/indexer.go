package main

import (
	"github.com/urfave/cli/v2"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/indexer"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func (s *srv) startIndexer(*cli.Context) error {
	s.loadConfig()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRepos()

	watcher := indexer.NewWatcher(
		indexer.NewEthClient(s.ctx),
		s.questRepo,
		s.participationRepo,
		s.userRepo,
		s.indexerStateRepo,
	)

	watcher.Start(s.ctx)
	return nil
}

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/huaigu/proofquest-web3-adventures-sub002/migration"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	s.loadConfig()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())

	version := cctx.String("version")
	migrator, ok := migration.Migrators[version]
	if !ok {
		return fmt.Errorf("not found version %s", version)
	}

	if err := migrator(s.ctx); err != nil {
		return err
	}

	return nil
}

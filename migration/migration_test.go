package migration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/huaigu/proofquest-web3-adventures-sub002/internal/entity"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/logger"
	"github.com/huaigu/proofquest-web3-adventures-sub002/pkg/xcontext"
)

func newMigrationContext(t *testing.T) context.Context {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	ctx := context.Background()
	ctx = xcontext.WithLogger(ctx, logger.NewLoggerWithLevel(logger.SILENCE))
	ctx = xcontext.WithDB(ctx, db)
	return ctx
}

func Test_MigrationsTempDir(t *testing.T) {
	dir, err := MigrationsTempDir()
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	for _, name := range []string{"000001_init.up.sql", "000001_init.down.sql"} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NotEmpty(t, content)
	}
}

func Test_Migrate_FreshDatabase(t *testing.T) {
	ctx := newMigrationContext(t)

	require.NoError(t, Migrate(ctx))

	// Every version is recorded and the schema is at the latest state.
	var applied int64
	require.NoError(t,
		xcontext.DB(ctx).Model(&entity.Migration{}).Count(&applied).Error)
	require.EqualValues(t, len(Migrators), applied)
	require.True(t,
		xcontext.DB(ctx).Migrator().HasColumn(&entity.Participation{}, "ClaimedTxHash"))

	// A second run must be a no-op.
	require.NoError(t, Migrate(ctx))
}

func Test_Migrate_AppliesPendingVersions(t *testing.T) {
	ctx := newMigrationContext(t)
	require.NoError(t, Migrate(ctx))

	// Roll the database back to the 0000 state.
	migrator := xcontext.DB(ctx).Migrator()
	require.NoError(t, migrator.DropColumn(&entity.Participation{}, "ClaimedTxHash"))
	require.NoError(t, migrator.DropColumn(&entity.Participation{}, "ClaimedAt"))
	require.NoError(t,
		xcontext.DB(ctx).Delete(&entity.Migration{}, "version=?", "0001").Error)

	require.NoError(t, Migrate(ctx))
	require.True(t, migrator.HasColumn(&entity.Participation{}, "ClaimedTxHash"))
	require.True(t, migrator.HasColumn(&entity.Participation{}, "ClaimedAt"))
}

package db

import (
	"testing"

	"artisanhub/internal/config"
	"artisanhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "", "postgres", "sqlite"} {
		d, err := Dialector(driver, "x")
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}
	_, err := Dialector("oracle", "x")
	assert.Error(t, err)
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBDSN: "file:migrate_test?mode=memory&cache=shared"}
	gdb, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	for _, m := range Models() {
		assert.True(t, gdb.Migrator().HasTable(m))
	}
	assert.True(t, gdb.Migrator().HasIndex(&domain.User{}, "Email"))
}

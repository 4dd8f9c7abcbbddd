// Package integration runs the production service against a real
// PostgreSQL started with testcontainers. The tests are skipped with -short.
package integration

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/migration"
	"github.com/Oscarts/backery2-app-sub003/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const postgresImage = "postgres:16-alpine"

// bakeryDB is the one container every test in the package talks to. Tests
// use random tenants, so they never need to truncate tables.
var bakeryDB struct {
	once      sync.Once
	container *tcpostgres.PostgresContainer
	dsn       string
	err       error
}

// TestDB is a connection to the migrated bakery schema
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB opens a connection to the shared container, starting and
// migrating it the first time it is needed.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}

	bakeryDB.once.Do(startBakeryDB)
	require.NoError(t, bakeryDB.err, "start postgres container")

	db, err := openGorm(bakeryDB.dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &TestDB{DB: db}
}

func startBakeryDB() {
	ctx := context.Background()
	c, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("bakery_test"),
		tcpostgres.WithUsername("baker"),
		tcpostgres.WithPassword("baker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		bakeryDB.err = err
		return
	}
	bakeryDB.container = c

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		bakeryDB.err = err
		return
	}
	bakeryDB.dsn = dsn
	bakeryDB.err = migrateSchema(dsn)
}

func migrateSchema(dsn string) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	if err != nil {
		return err
	}
	return m.Up()
}

func openGorm(dsn string) (*gorm.DB, error) {
	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// the concurrency tests need several connections to contend for row locks
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	return db, nil
}

// stopBakeryDB terminates the container after the package's tests ran
func stopBakeryDB() {
	if bakeryDB.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = bakeryDB.container.Terminate(ctx)
}

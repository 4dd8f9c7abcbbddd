package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/config"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/logger"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/migration"
	"github.com/Oscarts/backery2-app-sub003/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const usage = `Bakery production schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the applied version
  force <version>       Record a version without running it
  create <name> [desc]  Write a new up/down file pair
  list                  List migration files

Flags:
  -path string          Read migrations from disk instead of the binary
  -log-level string     debug, info, warn or error (default info)

Database settings come from the BAKERY_DATABASE_* environment variables.`

var errUsage = errors.New("bad usage")

// offline commands only touch the migrations directory
var offline = map[string]func(dir string, args []string, log *zap.Logger) error{
	"create": createCmd,
	"list":   listCmd,
}

// online commands run against the configured database
var online = map[string]func(m *migration.Migrator, args []string, log *zap.Logger) error{
	"up":   func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() },
	"down": func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() },
	"step": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil || n < 0 {
			return errors.Join(errUsage, err)
		}
		return m.GoTo(uint(n))
	},
	"force": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(n)
	},
	"version": versionCmd,
}

func main() {
	dir := flag.String("path", "", "read migrations from this directory")
	level := flag.String("log-level", "info", "log level")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(cmd, args, *dir, log); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		log.Fatal("migrate "+cmd+" failed", zap.Error(err))
	}
}

func run(cmd string, args []string, dir string, log *zap.Logger) error {
	if fn, ok := offline[cmd]; ok {
		if dir == "" {
			dir = "migrations"
		}
		return fn(dir, args, log)
	}
	fn, ok := online[cmd]
	if !ok {
		log.Error("unknown command", zap.String("command", cmd))
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	m, err := openMigrator(cfg.Database.DSN(), dir, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("close migrator", zap.Error(err))
		}
	}()
	return fn(m, args, log)
}

// openMigrator reads the embedded migrations unless dir points at a checkout
func openMigrator(dsn, dir string, log *zap.Logger) (*migration.Migrator, error) {
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		log.Info("using migrations from disk", zap.String("path", abs))
		return migration.NewFromURL(dsn, abs, log)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return migration.New(db, migrations.FS, log)
}

func createCmd(dir string, args []string, log *zap.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	desc := ""
	if len(args) > 1 {
		desc = args[1]
	}
	mf, err := migration.CreateMigration(dir, args[0], desc)
	if err != nil {
		return err
	}
	log.Info("migration created",
		zap.Uint("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath))
	return nil
}

func listCmd(dir string, _ []string, log *zap.Logger) error {
	files, err := migration.ListMigrations(dir)
	if err != nil {
		return err
	}
	log.Info("migrations", zap.String("dir", dir), zap.Int("count", len(files)))
	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}

func versionCmd(m *migration.Migrator, _ []string, log *zap.Logger) error {
	st, err := m.Version()
	if err != nil {
		return err
	}
	log.Info("schema version", zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errors.Join(errUsage, err)
	}
	return n, nil
}

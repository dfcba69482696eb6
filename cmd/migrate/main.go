// cmd/migrate/main.go
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"subsidy-wizard/internal/common/config"
	"subsidy-wizard/internal/common/database"
	"subsidy-wizard/internal/common/logger"
)

func main() {
	direction := flag.String("direction", string(database.Up), "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of migrations to apply; 0 applies all pending")
	versionOnly := flag.Bool("version", false, "print the applied schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(zap.String("service", "migrate"))
	defer zapLog.Sync()

	if err := config.ValidateDatabase(cfg); err != nil {
		zapLog.Fatal("invalid database configuration", zap.Error(err))
	}

	dir := database.Direction(*direction)
	if dir != database.Up && dir != database.Down {
		zapLog.Fatal("unknown direction", zap.String("direction", *direction))
	}
	if dir == database.Down && *steps == 0 && !*versionOnly {
		zapLog.Fatal("refusing to roll back every migration, pass -steps")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if !*versionOnly {
		if err := database.Migrate(ctx, pg.GetDB(), dir, *steps); err != nil {
			zapLog.Fatal("apply migrations", zap.Error(err))
		}
	}

	version, dirty, err := database.Version(ctx, pg.GetDB())
	if err != nil {
		zapLog.Fatal("read schema version", zap.Error(err))
	}
	zapLog.Info("schema version",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.String("direction", string(dir)),
		zap.Int("steps", *steps),
	)
}

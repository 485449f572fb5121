// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	catalogstore "github.com/dalemusser/stratadam/internal/app/store/catalog"
	ledgerstore "github.com/dalemusser/stratadam/internal/app/store/ledger"
	"github.com/dalemusser/stratadam/internal/app/system/normalize"
	"github.com/dalemusser/stratadam/internal/app/system/tasks"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting. The context will be cancelled if the process is asked to shut
// down while Startup is running; honor it in any long-running work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Warm the default shop's catalog so the root folder exists before the
	// first request arrives. Failure here means Mongo is not usable.
	shop := normalize.Shop(appCfg.DefaultShop)
	store := catalogstore.New(deps.MongoDatabase)
	cat, err := store.Load(ctx, shop)
	if err != nil {
		logger.Error("failed to warm default shop catalog",
			zap.String("shop", shop),
			zap.Error(err))
		return err
	}
	logger.Info("default shop catalog ready",
		zap.String("shop", shop),
		zap.Int("folders", len(cat.Folders)),
		zap.Int("files", len(cat.Files)))

	// Start background maintenance jobs.
	startTaskRunner(appCfg, deps, logger)

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	taskRunner.Register(tasks.LedgerCleanupJob(
		ledgerstore.New(deps.MongoDatabase),
		appCfg.LedgerRetention,
		logger,
	))

	taskRunner.Start()
}

package backend

import (
	"context"

	"kitchen-relay/internal/common/httpx"
	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/config"
	"kitchen-relay/internal/connections/database"
	"kitchen-relay/internal/microservices/backend/handlers"
	"kitchen-relay/internal/microservices/backend/repository"
	"kitchen-relay/internal/microservices/backend/service"
)

// Run serves the tables/menu/orders REST API until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	lg := logger.For("backend")

	db, err := database.ConnectDB(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.InitSchema(ctx, db); err != nil {
		return err
	}

	repo := repository.New(db)
	svc := service.New(*repo, lg)
	h := handlers.New(svc, lg)

	return httpx.New(cfg.HTTP.BackendAddr, h.Router(), lg).Run(ctx)
}

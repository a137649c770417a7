package service

import (
	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/microservices/backend/repository"
)

type Service struct {
	BackendService BackendServiceInterface
}

func New(repo repository.Repository, lg *logger.Logger) *Service {
	return &Service{
		BackendService: NewBackendService(repo.TableRepo, repo.MenuRepo, repo.OrderRepo, lg),
	}
}

package service

import (
	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/microservices/kitchen/registry"
	"kitchen-relay/internal/microservices/kitchen/store"
)

type Service struct {
	KitchenService KitchenServiceInterface
}

// New wires the kitchen service. reg and route are nil in hub mode.
func New(st *store.Store, reg registry.Registry, route RouteFunc, lg *logger.Logger) *Service {
	return &Service{
		KitchenService: NewKitchenService(st, reg, route, lg),
	}
}

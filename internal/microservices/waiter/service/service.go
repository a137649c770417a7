package service

import (
	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/transport"
)

type Service struct {
	RelayService RelayServiceInterface
}

func New(be Backend, ch transport.Channel, tenant string, lg *logger.Logger) *Service {
	return &Service{
		RelayService: NewRelay(be, ch, tenant, lg),
	}
}

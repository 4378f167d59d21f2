package publisher

import (
	"context"

	"github.com/FrankOrac/car-track/module/core/domain"
)

type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.Alert) error
}

package cart

import (
	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
	"github.com/smallbiznis/cartsync/internal/cart/repository"
	"github.com/smallbiznis/cartsync/internal/cart/service"
	"github.com/smallbiznis/cartsync/pkg/rdb"
	"go.uber.org/fx"
)

var Module = fx.Module("cart.service",
	fx.Provide(rdb.New),
	fx.Provide(repository.New),
	fx.Provide(service.NewKeyLocker),
	fx.Provide(service.NewBus),
	fx.Provide(func(b *service.Bus) cartdomain.Publisher { return b }),
	fx.Provide(service.NewService),
)

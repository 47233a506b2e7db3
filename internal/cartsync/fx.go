package cartsync

import (
	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
	"github.com/smallbiznis/cartsync/internal/cartsync/repository"
	"github.com/smallbiznis/cartsync/internal/cartsync/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cartsync.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(service.NewListener),
	fx.Invoke(func(p cartdomain.Publisher, l *service.Listener) {
		p.Subscribe(l)
	}),
)

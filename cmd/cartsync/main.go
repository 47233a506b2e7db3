package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cartsync/internal/cart"
	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
	"github.com/smallbiznis/cartsync/internal/cartsync"
	"github.com/smallbiznis/cartsync/internal/clock"
	"github.com/smallbiznis/cartsync/internal/condition"
	"github.com/smallbiznis/cartsync/internal/config"
	"github.com/smallbiznis/cartsync/internal/migration"
	"github.com/smallbiznis/cartsync/internal/observability"
	"github.com/smallbiznis/cartsync/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		// Functional Domains
		condition.Module,
		cart.Module,
		cartsync.Module,

		fx.Invoke(func(_ cartdomain.Service, cfg config.Config, log *zap.Logger) {
			log.Info("cartsync ready",
				zap.String("database", cfg.DBType),
				zap.Bool("redis_lock", cfg.RedisAddr != ""),
			)
		}),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		panic(err)
	}
	return node
}

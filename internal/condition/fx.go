package condition

import (
	"github.com/smallbiznis/cartsync/internal/condition/catalog"
	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"github.com/smallbiznis/cartsync/internal/condition/repository"
	"github.com/smallbiznis/cartsync/internal/condition/rules"
	"github.com/smallbiznis/cartsync/internal/condition/service"
	"go.uber.org/fx"
)

var Module = fx.Module("condition.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(rules.NewEvaluator),
	fx.Provide(func(e *rules.Evaluator) conditiondomain.RuleEvaluator { return e }),
	fx.Provide(service.NewService),
	fx.Provide(func(s conditiondomain.Service) conditiondomain.GlobalSource { return s }),
	fx.Provide(catalog.NewSeeder),
	fx.Invoke(catalog.RegisterSeeder),
)

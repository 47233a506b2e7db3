package service

import (
	"context"
	"fmt"
	"strings"

	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
	"github.com/smallbiznis/cartsync/internal/clock"
	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"github.com/smallbiznis/cartsync/internal/config"
	"github.com/smallbiznis/cartsync/internal/observability/cartattr"
	"github.com/smallbiznis/cartsync/internal/observability/logger"
	"github.com/smallbiznis/cartsync/internal/observability/metrics"
	"github.com/smallbiznis/cartsync/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("cartsync/cart")

type serviceParams struct {
	fx.In

	Log        *zap.Logger
	Repo       cartdomain.Repository
	Conditions conditiondomain.Service
	Evaluator  conditiondomain.RuleEvaluator
	Publisher  cartdomain.Publisher
	Locker     KeyLocker
	Config     *config.CartConfigHolder
	Clock      clock.Clock
	Metrics    *metrics.Metrics    `optional:"true"`
	Attrs      *cartattr.Annotator `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	repo       cartdomain.Repository
	conditions conditiondomain.Service
	evaluator  conditiondomain.RuleEvaluator
	publisher  cartdomain.Publisher
	locker     KeyLocker
	config     *config.CartConfigHolder
	clock      clock.Clock
	metrics    *metrics.Metrics
	attrs      *cartattr.Annotator
}

func NewService(p serviceParams) cartdomain.Service {
	return &Service{
		log:        p.Log.Named("cart.service"),
		repo:       p.Repo,
		conditions: p.Conditions,
		evaluator:  p.Evaluator,
		publisher:  p.Publisher,
		locker:     p.Locker,
		config:     p.Config,
		clock:      p.Clock,
		metrics:    p.Metrics,
		attrs:      p.Attrs,
	}
}

func (s *Service) Get(ctx context.Context, key cartdomain.Key) (*cartdomain.Cart, error) {
	key, err := s.normalizeKey(key)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, cartdomain.ErrCartNotFound
	}
	return c, nil
}

func (s *Service) Add(ctx context.Context, key cartdomain.Key, item cartdomain.Item) (*cartdomain.Cart, error) {
	maxItems := s.config.Get().MaxLineItems
	return s.mutate(ctx, key, true, func(c *cartdomain.Cart) error {
		if maxItems > 0 && !c.HasItem(strings.TrimSpace(item.ID)) && c.ItemsCount() >= maxItems {
			return fmt.Errorf("%w: limit is %d line items", cartdomain.ErrCartFull, maxItems)
		}
		return c.AddItem(item)
	})
}

func (s *Service) Update(ctx context.Context, key cartdomain.Key, itemID string, upd cartdomain.ItemUpdate) (*cartdomain.Cart, error) {
	return s.mutate(ctx, key, false, func(c *cartdomain.Cart) error {
		return c.UpdateItem(itemID, upd)
	})
}

func (s *Service) Remove(ctx context.Context, key cartdomain.Key, itemID string) (*cartdomain.Cart, error) {
	return s.mutate(ctx, key, false, func(c *cartdomain.Cart) error {
		return c.RemoveItem(itemID)
	})
}

func (s *Service) AddCondition(ctx context.Context, key cartdomain.Key, cond *conditiondomain.Condition) (*cartdomain.Cart, error) {
	return s.mutate(ctx, key, true, func(c *cartdomain.Cart) error {
		return c.AddCondition(cond)
	})
}

// AddConditionByName attaches a stored condition to the cart.
func (s *Service) AddConditionByName(ctx context.Context, key cartdomain.Key, name string) (*cartdomain.Cart, error) {
	cond, err := s.conditions.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.AddCondition(ctx, key, cond)
}

func (s *Service) RemoveCondition(ctx context.Context, key cartdomain.Key, name string) (*cartdomain.Cart, error) {
	return s.mutate(ctx, key, false, func(c *cartdomain.Cart) error {
		return c.RemoveCondition(name)
	})
}

func (s *Service) AddItemCondition(ctx context.Context, key cartdomain.Key, itemID string, cond *conditiondomain.Condition) (*cartdomain.Cart, error) {
	return s.mutate(ctx, key, false, func(c *cartdomain.Cart) error {
		return c.AddItemCondition(itemID, cond)
	})
}

func (s *Service) RemoveItemCondition(ctx context.Context, key cartdomain.Key, itemID, name string) (*cartdomain.Cart, error) {
	return s.mutate(ctx, key, false, func(c *cartdomain.Cart) error {
		return c.RemoveItemCondition(itemID, name)
	})
}

func (s *Service) Clear(ctx context.Context, key cartdomain.Key) (*cartdomain.Cart, error) {
	return s.mutate(ctx, key, false, func(c *cartdomain.Cart) error {
		c.Clear()
		return nil
	})
}

// Destroy removes the cart. Destroying an absent cart does nothing.
func (s *Service) Destroy(ctx context.Context, key cartdomain.Key) (err error) {
	key, err = s.normalizeKey(key)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "cart.destroy", trace.WithAttributes(s.attrs.Attributes(key.Instance, key.Identifier)...))
	defer func() { tracing.End(span, err) }()

	unlock, err := s.locker.Lock(ctx, key.String())
	if err != nil {
		return err
	}
	defer unlock()

	existing, err := s.repo.Get(ctx, key)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}

	return s.publish(ctx, key, []cartdomain.Event{cartdomain.NewCartDestroyed(key)})
}

// mutate runs fn on the cart under its key lock, reprices it with the active
// global conditions, stores it and publishes the recorded events while the
// lock is still held.
func (s *Service) mutate(ctx context.Context, key cartdomain.Key, create bool, fn func(c *cartdomain.Cart) error) (_ *cartdomain.Cart, err error) {
	key, err = s.normalizeKey(key)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "cart.mutate", trace.WithAttributes(s.attrs.Attributes(key.Instance, key.Identifier)...))
	defer func() { tracing.End(span, err) }()

	unlock, err := s.locker.Lock(ctx, key.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if c == nil {
		if !create {
			return nil, cartdomain.ErrCartNotFound
		}
		c, err = cartdomain.New(key, s.config.Get().DefaultCurrency, s.clock.Now())
		if err != nil {
			return nil, err
		}
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	globals, err := s.conditions.ActiveGlobals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load global conditions: %w", err)
	}

	c.Touch(s.clock.Now())
	c.Reprice(globals, s.evaluator)

	events, err := c.PullEvents()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	if err := s.publish(ctx, key, events); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

func (s *Service) publish(ctx context.Context, key cartdomain.Key, events []cartdomain.Event) error {
	ctx = s.attrs.Context(ctx, key.Instance, key.Identifier)
	log := logger.WithContext(ctx, s.log)

	for _, ev := range events {
		s.metrics.RecordCartEvent(ctx, string(ev.Kind()))
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		log.Error("publish cart events", zap.Int("events", len(events)), zap.Error(err))
		return err
	}
	if ce := log.Check(s.attrs.EventLevel(), "cart events published"); ce != nil {
		ce.Write(zap.Int("events", len(events)))
	}
	return nil
}

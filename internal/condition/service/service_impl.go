package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/cartsync/internal/cache"
	"github.com/smallbiznis/cartsync/internal/clock"
	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"github.com/smallbiznis/cartsync/internal/condition/rules"
	"github.com/smallbiznis/cartsync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      conditiondomain.Repository
	Evaluator *rules.Evaluator
	Clock     clock.Clock
	Config    config.Config `optional:"true"`
}

const activeGlobalsKey = "active_globals"

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	repo      conditiondomain.Repository
	evaluator *rules.Evaluator
	clock     clock.Clock
	globals   cache.Cache[string, []*conditiondomain.Condition]
	ttl       time.Duration
}

func NewService(p serviceParams) conditiondomain.Service {
	return &Service{
		log:       p.Log.Named("condition.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		evaluator: p.Evaluator,
		clock:     p.Clock,
		globals:   cache.NewTTLCache[string, []*conditiondomain.Condition](p.Clock),
		ttl:       p.Config.ConditionCacheTTL,
	}
}

// ActiveGlobals returns the active global conditions. Callers get their own
// copies; the cached list is dropped on every write through this service.
func (s *Service) ActiveGlobals(ctx context.Context) ([]*conditiondomain.Condition, error) {
	if cached, ok := s.globals.Get(activeGlobalsKey); ok {
		return cloneAll(cached), nil
	}

	items, err := s.repo.ListActiveGlobals(ctx)
	if err != nil {
		return nil, err
	}
	s.globals.Set(activeGlobalsKey, items, s.ttl)
	return cloneAll(items), nil
}

func cloneAll(items []*conditiondomain.Condition) []*conditiondomain.Condition {
	out := make([]*conditiondomain.Condition, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

func (s *Service) List(ctx context.Context, req conditiondomain.ListRequest) ([]conditiondomain.Response, error) {
	filter := conditiondomain.ListRequest{
		Type:     conditiondomain.ConditionType(strings.ToLower(strings.TrimSpace(string(req.Type)))),
		IsActive: req.IsActive,
		IsGlobal: req.IsGlobal,
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]conditiondomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(item))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, name string) (*conditiondomain.Condition, error) {
	return s.find(ctx, name)
}

func (s *Service) Create(ctx context.Context, req conditiondomain.CreateRequest) (*conditiondomain.Response, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = slug.Make(displayName)
	}
	if name == "" {
		return nil, conditiondomain.ErrInvalidName
	}

	if err := s.evaluator.Validate(req.Rules); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	record, err := conditiondomain.New(conditiondomain.Params{
		Name:        name,
		DisplayName: displayName,
		Description: strings.TrimSpace(req.Description),
		Type:        conditiondomain.ConditionType(strings.ToLower(strings.TrimSpace(string(req.Type)))),
		Target:      strings.TrimSpace(req.Target),
		Value:       strings.TrimSpace(req.Value),
		Order:       req.Order,
		Attributes:  req.Attributes,
		IsActive:    isActive,
		IsGlobal:    req.IsGlobal,
		Rules:       req.Rules,
		IsDynamic:   len(req.Rules) > 0,
	})
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conditiondomain.ErrDuplicateName
	}

	now := s.clock.Now()
	record.ID = s.genID.Generate()
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.globals.Purge()

	s.log.Info("condition created",
		zap.String("name", record.Name),
		zap.String("type", string(record.Type)),
		zap.String("target", record.Target),
		zap.Bool("is_global", record.IsGlobal),
	)

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req conditiondomain.UpdateRequest) (*conditiondomain.Response, error) {
	item, err := s.find(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		displayName := strings.TrimSpace(*req.DisplayName)
		if displayName == "" {
			displayName = item.Name
		}
		item.DisplayName = displayName
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Type != nil {
		item.Type = conditiondomain.ConditionType(strings.ToLower(strings.TrimSpace(string(*req.Type))))
	}
	if req.Target != nil {
		item.Target = strings.TrimSpace(*req.Target)
	}
	if req.Value != nil {
		item.Value = strings.TrimSpace(*req.Value)
	}
	if req.Order != nil {
		item.Order = *req.Order
	}
	if req.Attributes != nil {
		item.Attributes = *req.Attributes
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	if req.IsGlobal != nil {
		item.IsGlobal = *req.IsGlobal
	}

	return s.save(ctx, item)
}

func (s *Service) SetRules(ctx context.Context, name string, ruleSet conditiondomain.Rules) (*conditiondomain.Response, error) {
	if err := s.evaluator.Validate(ruleSet); err != nil {
		return nil, err
	}

	item, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	item.SetRules(ruleSet)

	return s.save(ctx, item)
}

func (s *Service) Activate(ctx context.Context, name string) (*conditiondomain.Response, error) {
	return s.setActive(ctx, name, true)
}

func (s *Service) Deactivate(ctx context.Context, name string) (*conditiondomain.Response, error) {
	return s.setActive(ctx, name, false)
}

func (s *Service) Delete(ctx context.Context, name string) error {
	item, err := s.find(ctx, name)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.Name); err != nil {
		return err
	}
	s.globals.Purge()
	s.log.Info("condition deleted", zap.String("name", item.Name))
	return nil
}

func (s *Service) setActive(ctx context.Context, name string, active bool) (*conditiondomain.Response, error) {
	item, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	if item.IsActive == active {
		resp := toResponse(item)
		return &resp, nil
	}
	item.IsActive = active
	return s.save(ctx, item)
}

func (s *Service) save(ctx context.Context, item *conditiondomain.Condition) (*conditiondomain.Response, error) {
	if err := item.Compile(); err != nil {
		return nil, err
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	s.globals.Purge()

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) find(ctx context.Context, name string) (*conditiondomain.Condition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, conditiondomain.ErrInvalidName
	}

	item, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, conditiondomain.ErrNotFound
	}
	return item, nil
}

func toResponse(c *conditiondomain.Condition) conditiondomain.Response {
	return conditiondomain.Response{
		ID:        c.ID.String(),
		Record:    c.Record(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

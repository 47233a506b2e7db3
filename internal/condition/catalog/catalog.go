package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gosimple/slug"
	conditiondomain "github.com/smallbiznis/cartsync/internal/condition/domain"
	"github.com/smallbiznis/cartsync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type file struct {
	Conditions []conditiondomain.CreateRequest `yaml:"conditions"`
}

// Load reads a YAML catalog of conditions.
func Load(path string) ([]conditiondomain.CreateRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read condition catalog: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) ([]conditiondomain.CreateRequest, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse condition catalog: %w", err)
	}
	return f.Conditions, nil
}

type seederParams struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Service conditiondomain.Service
}

// Seeder creates catalog conditions that do not exist yet. Existing
// conditions are never overwritten.
type Seeder struct {
	log     *zap.Logger
	path    string
	service conditiondomain.Service
}

func NewSeeder(p seederParams) *Seeder {
	return &Seeder{
		log:     p.Log.Named("condition.catalog"),
		path:    strings.TrimSpace(p.Config.ConditionCatalogPath),
		service: p.Service,
	}
}

func (s *Seeder) Seed(ctx context.Context) (int, error) {
	if s.path == "" {
		return 0, nil
	}

	entries, err := Load(s.path)
	if err != nil {
		return 0, err
	}
	return s.SeedEntries(ctx, entries)
}

func (s *Seeder) SeedEntries(ctx context.Context, entries []conditiondomain.CreateRequest) (int, error) {
	created := 0
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = slug.Make(entry.DisplayName)
		}

		_, err := s.service.Get(ctx, name)
		switch {
		case err == nil:
			s.log.Debug("catalog condition exists", zap.String("name", name))
			continue
		case !errors.Is(err, conditiondomain.ErrNotFound):
			return created, err
		}

		entry.Name = name
		if _, err := s.service.Create(ctx, entry); err != nil {
			return created, fmt.Errorf("seed condition %q: %w", name, err)
		}
		created++
	}

	if created > 0 {
		s.log.Info("condition catalog seeded", zap.Int("created", created), zap.String("path", s.path))
	}
	return created, nil
}

// RegisterSeeder seeds the catalog when the application starts.
func RegisterSeeder(lc fx.Lifecycle, s *Seeder) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_, err := s.Seed(ctx)
			return err
		},
	})
}

package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/cartsync/internal/cart/domain"
	cartsyncdomain "github.com/smallbiznis/cartsync/internal/cartsync/domain"
	"github.com/smallbiznis/cartsync/internal/clock"
	"github.com/smallbiznis/cartsync/internal/observability/cartattr"
	"github.com/smallbiznis/cartsync/internal/observability/logger"
	"github.com/smallbiznis/cartsync/internal/observability/metrics"
	"github.com/smallbiznis/cartsync/internal/observability/tracing"
	"github.com/smallbiznis/cartsync/pkg/db"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	resultWritten   = "written"
	resultUnchanged = "unchanged"
	resultDeleted   = "deleted"
	resultMissing   = "missing"
	resultError     = "error"

	maxSyncAttempts = 2
)

var tracer = otel.Tracer("cartsync/sync")

type serviceParams struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    cartsyncdomain.Repository
	Clock   clock.Clock
	Metrics *metrics.Metrics    `optional:"true"`
	Attrs   *cartattr.Annotator `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    cartsyncdomain.Repository
	clock   clock.Clock
	metrics *metrics.Metrics
	attrs   *cartattr.Annotator
}

func NewService(p serviceParams) cartsyncdomain.SyncManager {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("cartsync.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		metrics: p.Metrics,
		attrs:   p.Attrs,
	}
}

// Sync upserts the normalized snapshot of cart. A cart whose fingerprint
// matches the stored row is left untouched.
func (s *Service) Sync(ctx context.Context, cart *cartdomain.Cart) (err error) {
	start := time.Now()
	key := cart.Key()
	ctx, span := tracer.Start(ctx, "cartsync.sync", trace.WithAttributes(s.attrs.Attributes(key.Instance, key.Identifier)...))
	defer func() { tracing.End(span, err) }()
	ctx = s.attrs.Context(ctx, key.Instance, key.Identifier)
	log := logger.WithContext(ctx, s.log)

	n, err := normalize(cart)
	if err != nil {
		s.metrics.RecordSync(ctx, resultError, time.Since(start))
		return err
	}

	var result string
	for attempt := 1; ; attempt++ {
		result, err = s.write(ctx, n)
		// A concurrent first insert for the same key wins the unique index;
		// the retry finds its row and updates it.
		if err != nil && db.IsDuplicateKeyErr(err) && attempt < maxSyncAttempts {
			log.Debug("cart snapshot insert raced, retrying", zap.Int("attempt", attempt))
			continue
		}
		break
	}
	if err != nil {
		s.metrics.RecordSync(ctx, resultError, time.Since(start))
		log.Error("sync cart snapshot", zap.Error(err))
		return err
	}

	s.metrics.RecordSync(ctx, result, time.Since(start))
	log.Debug("cart snapshot synced",
		zap.String("result", result),
		zap.Int("items_count", n.snapshot.ItemsCount),
		zap.Int64("total", n.snapshot.Total),
	)
	return nil
}

func (s *Service) write(ctx context.Context, n normalized) (string, error) {
	result := resultWritten
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByIdentity(ctx, n.snapshot.Instance, n.snapshot.Identifier)
		if err != nil {
			return err
		}
		if existing != nil && existing.Fingerprint == n.snapshot.Fingerprint {
			result = resultUnchanged
			return nil
		}

		now := s.clock.Now()
		if existing == nil {
			n.assign(s.genID.Generate())
			n.snapshot.CreatedAt = now
			n.snapshot.UpdatedAt = now
			if err := repo.Insert(ctx, &n.snapshot); err != nil {
				return err
			}
		} else {
			n.assign(existing.ID)
			n.snapshot.CreatedAt = existing.CreatedAt
			n.snapshot.UpdatedAt = now
			if err := repo.Update(ctx, &n.snapshot); err != nil {
				return err
			}
		}

		return repo.ReplaceChildren(ctx, n.snapshot.ID, n.items, n.conditions)
	})
	return result, err
}

// DeleteByIdentity removes the snapshot and its rows. A missing snapshot is
// not an error.
func (s *Service) DeleteByIdentity(ctx context.Context, instance, identifier string) (err error) {
	ctx, span := tracer.Start(ctx, "cartsync.delete", trace.WithAttributes(s.attrs.Attributes(instance, identifier)...))
	defer func() { tracing.End(span, err) }()
	ctx = s.attrs.Context(ctx, instance, identifier)
	log := logger.WithContext(ctx, s.log)

	result := resultDeleted
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByIdentity(ctx, instance, identifier)
		if err != nil {
			return err
		}
		if existing == nil {
			result = resultMissing
			return nil
		}
		return repo.Delete(ctx, existing.ID)
	})
	if err != nil {
		s.metrics.RecordDelete(ctx, resultError)
		log.Error("delete cart snapshot", zap.Error(err))
		return err
	}

	s.metrics.RecordDelete(ctx, result)
	log.Debug("cart snapshot deleted", zap.String("result", result))
	return nil
}

func (s *Service) Find(ctx context.Context, instance, identifier string) (*cartsyncdomain.Stored, error) {
	snapshot, err := s.repo.FindByIdentity(ctx, instance, identifier)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, cartsyncdomain.ErrSnapshotNotFound
	}

	items, err := s.repo.ListItems(ctx, snapshot.ID)
	if err != nil {
		return nil, err
	}
	conditions, err := s.repo.ListConditions(ctx, snapshot.ID)
	if err != nil {
		return nil, err
	}

	return &cartsyncdomain.Stored{
		Snapshot:   *snapshot,
		Items:      items,
		Conditions: conditions,
	}, nil
}

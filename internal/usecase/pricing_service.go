package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/infrastructure/jsontable"
)

// CreatePricingPlanInput contains the input parameters for creating a plan.
// ID defaults to a slug of Name.
type CreatePricingPlanInput struct {
	ID    string
	Name  string
	Price float64
	model.PricingPlanPatch
}

// PricingService defines the interface for pricing plan operations.
// While pricing-plans.json does not exist the built-in plans are served,
// and the first write materializes them.
type PricingService interface {
	List(ctx context.Context) ([]model.PricingPlan, error)
	Create(ctx context.Context, actor string, input CreatePricingPlanInput) (*model.PricingPlan, error)
	Update(ctx context.Context, actor, id string, patch model.PricingPlanPatch) (*model.PricingPlan, error)
	Delete(ctx context.Context, actor, id string) error
}

type pricingService struct {
	table *jsontable.Table[model.PricingPlan]
	audit AuditRecorder
	now   func() time.Time
}

// NewPricingService creates a new PricingService instance.
func NewPricingService(storage repository.ObjectStorage, audit AuditRecorder, cacheCfg TableCacheConfig) PricingService {
	opts := []jsontable.Option[model.PricingPlan]{
		jsontable.WithDefaults(model.DefaultPricingPlans),
	}
	if cacheCfg.Cache != nil {
		opts = append(opts, jsontable.WithCache[model.PricingPlan](cacheCfg.Cache, cacheCfg.TTL))
	}
	return &pricingService{
		table: jsontable.New(storage, model.PricingTableKey, opts...),
		audit: audit,
		now:   time.Now,
	}
}

func (s *pricingService) List(ctx context.Context) ([]model.PricingPlan, error) {
	plans, err := s.table.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pricing plans: %w", err)
	}
	return plans, nil
}

func (s *pricingService) Create(ctx context.Context, actor string, input CreatePricingPlanInput) (*model.PricingPlan, error) {
	now := s.now().UTC()
	plan, err := model.NewPricingPlan(input.ID, input.Name, input.Price, now)
	if err != nil {
		return nil, invalidInput(err)
	}
	patch := input.PricingPlanPatch
	patch.Name, patch.Price = nil, nil
	if err := plan.Apply(patch, now); err != nil {
		return nil, invalidInput(err)
	}

	plans, err := s.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pricing plans: %w", err)
	}
	if indexOfPlan(plans, plan.ID) >= 0 {
		return nil, fmt.Errorf("%w: pricing plan %q already exists", ErrConflict, plan.ID)
	}

	if err := s.table.Save(ctx, append(slices.Clone(plans), *plan)); err != nil {
		return nil, fmt.Errorf("save pricing plans: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreatePricing, plan.ID)
	return plan, nil
}

func (s *pricingService) Update(ctx context.Context, actor, id string, patch model.PricingPlanPatch) (*model.PricingPlan, error) {
	plans, err := s.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pricing plans: %w", err)
	}
	i := indexOfPlan(plans, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: pricing plan %q", ErrNotFound, id)
	}

	next := slices.Clone(plans)
	plan := next[i]
	if err := plan.Apply(patch, s.now().UTC()); err != nil {
		return nil, invalidInput(err)
	}
	next[i] = plan

	if err := s.table.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save pricing plans: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionUpdatePricing, plan.ID)
	return &plan, nil
}

func (s *pricingService) Delete(ctx context.Context, actor, id string) error {
	plans, err := s.table.Load(ctx)
	if err != nil {
		return fmt.Errorf("load pricing plans: %w", err)
	}
	i := indexOfPlan(plans, id)
	if i < 0 {
		return fmt.Errorf("%w: pricing plan %q", ErrNotFound, id)
	}

	if err := s.table.Save(ctx, slices.Delete(slices.Clone(plans), i, i+1)); err != nil {
		return fmt.Errorf("save pricing plans: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionDeletePricing, id)
	return nil
}

func indexOfPlan(plans []model.PricingPlan, id string) int {
	return slices.IndexFunc(plans, func(p model.PricingPlan) bool {
		return p.ID == id
	})
}

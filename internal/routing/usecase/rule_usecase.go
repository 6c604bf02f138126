package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/routing/domain"
	routingService "github.com/allisson/signatures/internal/routing/service"
)

// ruleUseCase implements RuleUseCase. Conditions are compiled at write time
// so a broken expression never reaches the decision engine.
type ruleUseCase struct {
	ruleRepo  RuleRepository
	evaluator *routingService.Evaluator
}

// NewRuleUseCase creates a rule management use case.
func NewRuleUseCase(ruleRepo RuleRepository, evaluator *routingService.Evaluator) RuleUseCase {
	return &ruleUseCase{
		ruleRepo:  ruleRepo,
		evaluator: evaluator,
	}
}

// Create validates and persists a new rule.
func (u *ruleUseCase) Create(ctx context.Context, rule *domain.RoutingRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if _, err := u.evaluator.Parse(rule.Condition); err != nil {
		return err
	}

	if rule.ID == uuid.Nil {
		rule.ID = uuid.Must(uuid.NewV7())
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	return u.ruleRepo.Create(ctx, rule)
}

// Get retrieves a rule by id.
func (u *ruleUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.RoutingRule, error) {
	return u.ruleRepo.GetByID(ctx, id)
}

// List returns rules ordered by priority with pagination.
func (u *ruleUseCase) List(ctx context.Context, limit, offset int) ([]*domain.RoutingRule, error) {
	return u.ruleRepo.List(ctx, limit, offset)
}

// Update validates and persists rule changes.
func (u *ruleUseCase) Update(ctx context.Context, rule *domain.RoutingRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if _, err := u.evaluator.Parse(rule.Condition); err != nil {
		return err
	}

	rule.UpdatedAt = time.Now().UTC()
	return u.ruleRepo.Update(ctx, rule)
}

// Delete removes a rule.
func (u *ruleUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	return u.ruleRepo.Delete(ctx, id)
}

// Package usecase implements routing rule management and the routing
// decision engine.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/routing/domain"
	signatureDomain "github.com/allisson/signatures/internal/signature/domain"
)

// RuleRepository defines routing rule persistence operations.
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.RoutingRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RoutingRule, error)
	List(ctx context.Context, limit, offset int) ([]*domain.RoutingRule, error)
	Update(ctx context.Context, rule *domain.RoutingRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindAllActiveOrderedByPriority returns enabled rules, lowest priority
	// first. This is the evaluation order.
	FindAllActiveOrderedByPriority(ctx context.Context) ([]*domain.RoutingRule, error)
}

// DecisionEngine chooses a channel for a transaction context.
type DecisionEngine interface {
	Decide(ctx context.Context, tx signatureDomain.TransactionContext) (*domain.Decision, error)
}

// RuleUseCase defines the out-of-band rule management surface.
type RuleUseCase interface {
	Create(ctx context.Context, rule *domain.RoutingRule) error
	Get(ctx context.Context, id uuid.UUID) (*domain.RoutingRule, error)
	List(ctx context.Context, limit, offset int) ([]*domain.RoutingRule, error)
	Update(ctx context.Context, rule *domain.RoutingRule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

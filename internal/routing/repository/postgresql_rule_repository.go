// Package repository implements routing rule persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/signatures/internal/database"
	apperrors "github.com/allisson/signatures/internal/errors"
	routingDomain "github.com/allisson/signatures/internal/routing/domain"
)

// PostgreSQLRuleRepository implements RoutingRule persistence for PostgreSQL databases.
type PostgreSQLRuleRepository struct {
	db *sql.DB
}

// NewPostgreSQLRuleRepository creates a new PostgreSQL RoutingRule repository instance.
func NewPostgreSQLRuleRepository(db *sql.DB) *PostgreSQLRuleRepository {
	return &PostgreSQLRuleRepository{db: db}
}

// Create inserts a new routing rule.
func (p *PostgreSQLRuleRepository) Create(ctx context.Context, rule *routingDomain.RoutingRule) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO routing_rules (id, name, condition, channel, priority, enabled,
			  created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		rule.ID,
		rule.Name,
		rule.Condition,
		rule.Channel,
		rule.Priority,
		rule.Enabled,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create routing rule")
	}
	return nil
}

// GetByID retrieves a routing rule by id.
func (p *PostgreSQLRuleRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*routingDomain.RoutingRule, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, condition, channel, priority, enabled, created_at, updated_at
			  FROM routing_rules
			  WHERE id = $1`

	var rule routingDomain.RoutingRule
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&rule.ID,
		&rule.Name,
		&rule.Condition,
		&rule.Channel,
		&rule.Priority,
		&rule.Enabled,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, routingDomain.ErrRuleNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get routing rule")
	}

	return &rule, nil
}

// List retrieves routing rules ordered by priority with pagination.
func (p *PostgreSQLRuleRepository) List(
	ctx context.Context,
	limit, offset int,
) ([]*routingDomain.RoutingRule, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, condition, channel, priority, enabled, created_at, updated_at
			  FROM routing_rules
			  ORDER BY priority ASC, created_at ASC
			  LIMIT $1 OFFSET $2`

	return p.queryRules(ctx, querier, query, limit, offset)
}

// Update updates a routing rule.
func (p *PostgreSQLRuleRepository) Update(ctx context.Context, rule *routingDomain.RoutingRule) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE routing_rules
			  SET name = $1, condition = $2, channel = $3, priority = $4, enabled = $5,
			      updated_at = $6
			  WHERE id = $7`

	result, err := querier.ExecContext(
		ctx,
		query,
		rule.Name,
		rule.Condition,
		rule.Channel,
		rule.Priority,
		rule.Enabled,
		time.Now().UTC(),
		rule.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update routing rule")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update routing rule")
	}
	if affected == 0 {
		return routingDomain.ErrRuleNotFound
	}
	return nil
}

// Delete removes a routing rule.
func (p *PostgreSQLRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM routing_rules WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete routing rule")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to delete routing rule")
	}
	if affected == 0 {
		return routingDomain.ErrRuleNotFound
	}
	return nil
}

// FindAllActiveOrderedByPriority returns enabled rules in evaluation order.
func (p *PostgreSQLRuleRepository) FindAllActiveOrderedByPriority(
	ctx context.Context,
) ([]*routingDomain.RoutingRule, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, condition, channel, priority, enabled, created_at, updated_at
			  FROM routing_rules
			  WHERE enabled = true
			  ORDER BY priority ASC, created_at ASC`

	return p.queryRules(ctx, querier, query)
}

func (p *PostgreSQLRuleRepository) queryRules(
	ctx context.Context,
	querier database.Querier,
	query string,
	args ...any,
) ([]*routingDomain.RoutingRule, error) {
	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list routing rules")
	}
	defer rows.Close() //nolint:errcheck

	var rules []*routingDomain.RoutingRule
	for rows.Next() {
		var rule routingDomain.RoutingRule
		err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Condition,
			&rule.Channel,
			&rule.Priority,
			&rule.Enabled,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan routing rule")
		}
		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate routing rules")
	}

	return rules, nil
}

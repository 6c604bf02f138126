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

// MySQLRuleRepository implements RoutingRule persistence for MySQL databases.
type MySQLRuleRepository struct {
	db *sql.DB
}

// NewMySQLRuleRepository creates a new MySQL RoutingRule repository instance.
func NewMySQLRuleRepository(db *sql.DB) *MySQLRuleRepository {
	return &MySQLRuleRepository{db: db}
}

// Create inserts a new routing rule.
func (m *MySQLRuleRepository) Create(ctx context.Context, rule *routingDomain.RoutingRule) error {
	querier := database.GetTx(ctx, m.db)

	query := "INSERT INTO routing_rules (id, name, `condition`, channel, priority, enabled, " +
		"created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"

	_, err := querier.ExecContext(
		ctx,
		query,
		rule.ID.String(),
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
func (m *MySQLRuleRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*routingDomain.RoutingRule, error) {
	querier := database.GetTx(ctx, m.db)

	query := "SELECT id, name, `condition`, channel, priority, enabled, created_at, updated_at " +
		"FROM routing_rules WHERE id = ?"

	var rule routingDomain.RoutingRule
	err := querier.QueryRowContext(ctx, query, id.String()).Scan(
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
func (m *MySQLRuleRepository) List(
	ctx context.Context,
	limit, offset int,
) ([]*routingDomain.RoutingRule, error) {
	querier := database.GetTx(ctx, m.db)

	query := "SELECT id, name, `condition`, channel, priority, enabled, created_at, updated_at " +
		"FROM routing_rules ORDER BY priority ASC, created_at ASC LIMIT ? OFFSET ?"

	return m.queryRules(ctx, querier, query, limit, offset)
}

// Update updates a routing rule.
func (m *MySQLRuleRepository) Update(ctx context.Context, rule *routingDomain.RoutingRule) error {
	querier := database.GetTx(ctx, m.db)

	query := "UPDATE routing_rules SET name = ?, `condition` = ?, channel = ?, priority = ?, " +
		"enabled = ?, updated_at = ? WHERE id = ?"

	result, err := querier.ExecContext(
		ctx,
		query,
		rule.Name,
		rule.Condition,
		rule.Channel,
		rule.Priority,
		rule.Enabled,
		time.Now().UTC(),
		rule.ID.String(),
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
func (m *MySQLRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	query := "DELETE FROM routing_rules WHERE id = ?"

	result, err := querier.ExecContext(ctx, query, id.String())
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
func (m *MySQLRuleRepository) FindAllActiveOrderedByPriority(
	ctx context.Context,
) ([]*routingDomain.RoutingRule, error) {
	querier := database.GetTx(ctx, m.db)

	query := "SELECT id, name, `condition`, channel, priority, enabled, created_at, updated_at " +
		"FROM routing_rules WHERE enabled = true ORDER BY priority ASC, created_at ASC"

	return m.queryRules(ctx, querier, query)
}

func (m *MySQLRuleRepository) queryRules(
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

package dto

import (
	"time"

	routingDomain "github.com/allisson/signatures/internal/routing/domain"
)

// RoutingRuleResponse represents a routing rule in API responses.
type RoutingRuleResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Condition string    `json:"condition"`
	Channel   string    `json:"channel"`
	Priority  int       `json:"priority"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MapRuleToResponse converts a domain routing rule to an API response.
func MapRuleToResponse(rule *routingDomain.RoutingRule) RoutingRuleResponse {
	return RoutingRuleResponse{
		ID:        rule.ID.String(),
		Name:      rule.Name,
		Condition: rule.Condition,
		Channel:   string(rule.Channel),
		Priority:  rule.Priority,
		Enabled:   rule.Enabled,
		CreatedAt: rule.CreatedAt,
		UpdatedAt: rule.UpdatedAt,
	}
}

// ListRulesResponse represents a paginated list of routing rules in API responses.
type ListRulesResponse struct {
	Data []RoutingRuleResponse `json:"data"`
}

// MapRulesToListResponse converts a slice of domain routing rules to a list response.
func MapRulesToListResponse(rules []*routingDomain.RoutingRule) ListRulesResponse {
	data := make([]RoutingRuleResponse, 0, len(rules))
	for _, rule := range rules {
		data = append(data, MapRuleToResponse(rule))
	}
	return ListRulesResponse{Data: data}
}

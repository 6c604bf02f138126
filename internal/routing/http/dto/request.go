// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	routingDomain "github.com/allisson/signatures/internal/routing/domain"
	customValidation "github.com/allisson/signatures/internal/validation"
)

// RoutingRuleRequest contains the parameters for creating or updating a routing rule.
type RoutingRuleRequest struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Channel   string `json:"channel"`
	Priority  int    `json:"priority"`
	Enabled   bool   `json:"enabled"`
}

// Validate checks if the routing rule request is valid. The condition grammar
// itself is validated by the rule use case at write time.
func (r *RoutingRuleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Condition, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Channel, validation.Required, customValidation.Channel),
		validation.Field(&r.Priority, validation.Min(0)),
	)
}

// ToDomain maps the request to a domain routing rule.
func (r *RoutingRuleRequest) ToDomain() *routingDomain.RoutingRule {
	return &routingDomain.RoutingRule{
		Name:      r.Name,
		Condition: r.Condition,
		Channel:   providerDomain.Channel(r.Channel),
		Priority:  r.Priority,
		Enabled:   r.Enabled,
	}
}

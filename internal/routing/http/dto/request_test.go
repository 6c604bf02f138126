package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	providerDomain "github.com/allisson/signatures/internal/provider/domain"
)

func validRuleRequest() RoutingRuleRequest {
	return RoutingRuleRequest{
		Name:      "high-amount",
		Condition: `amount > 1000`,
		Channel:   "PUSH",
		Priority:  10,
		Enabled:   true,
	}
}

func TestRoutingRuleRequest_Validate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		request := validRuleRequest()
		assert.NoError(t, request.Validate())
	})

	t.Run("Error_MissingName", func(t *testing.T) {
		request := validRuleRequest()
		request.Name = ""
		assert.Error(t, request.Validate())
	})

	t.Run("Error_MissingCondition", func(t *testing.T) {
		request := validRuleRequest()
		request.Condition = ""
		assert.Error(t, request.Validate())
	})

	t.Run("Error_UnknownChannel", func(t *testing.T) {
		request := validRuleRequest()
		request.Channel = "EMAIL"
		assert.Error(t, request.Validate())
	})

	t.Run("Error_NegativePriority", func(t *testing.T) {
		request := validRuleRequest()
		request.Priority = -1
		assert.Error(t, request.Validate())
	})
}

func TestRoutingRuleRequest_ToDomain(t *testing.T) {
	request := validRuleRequest()
	rule := request.ToDomain()

	assert.Equal(t, "high-amount", rule.Name)
	assert.Equal(t, `amount > 1000`, rule.Condition)
	assert.Equal(t, providerDomain.ChannelPush, rule.Channel)
	assert.Equal(t, 10, rule.Priority)
	assert.True(t, rule.Enabled)
}

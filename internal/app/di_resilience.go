package app

import (
	"fmt"
	"sync"
	"time"

	providerService "github.com/allisson/signatures/internal/provider/service"
	resilienceDomain "github.com/allisson/signatures/internal/resilience/domain"
	resilienceHTTP "github.com/allisson/signatures/internal/resilience/http"
	resilienceService "github.com/allisson/signatures/internal/resilience/service"
	resilienceUseCase "github.com/allisson/signatures/internal/resilience/usecase"
)

// simulatedProviderLatency is the per-call latency of the simulated provider
// clients used outside production.
const simulatedProviderLatency = 50 * time.Millisecond

// resilienceDeps holds the resilience context dependencies.
type resilienceDeps struct {
	providerRegistryInit sync.Once
	providerCallerInit   sync.Once
	degradedManagerInit  sync.Once
	breakersInit         sync.Once
	selectorInit         sync.Once
	reactivatorInit      sync.Once
	adminUseCaseInit     sync.Once
	adminHandlerInit     sync.Once

	providerRegistry providerService.ClientRegistry
	providerCaller   *providerService.BoundedCaller
	degradedManager  *resilienceService.DegradedModeManager
	breakers         *resilienceService.BreakerCoordinator
	selector         *resilienceService.ProviderSelector
	reactivator      *resilienceUseCase.Reactivator
	adminUseCase     *resilienceUseCase.AdminUseCase
	adminHandler     *resilienceHTTP.AdminHandler
}

// ProviderRegistry returns the provider client registry for the configured mode.
func (c *Container) ProviderRegistry() (providerService.ClientRegistry, error) {
	c.providerRegistryInit.Do(func() {
		switch c.config.ProviderMode {
		case "simulated":
			c.providerRegistry = providerService.NewSimulatedRegistry(simulatedProviderLatency)
		default:
			c.initErrors["providerRegistry"] = fmt.Errorf("unsupported provider mode: %s", c.config.ProviderMode)
		}
	})
	if storedErr, exists := c.initErrors["providerRegistry"]; exists {
		return nil, storedErr
	}
	return c.providerRegistry, nil
}

// ProviderCaller returns the timeout-bounded provider caller.
func (c *Container) ProviderCaller() (*providerService.BoundedCaller, error) {
	c.providerCallerInit.Do(func() {
		registry, err := c.ProviderRegistry()
		if err != nil {
			c.initErrors["providerCaller"] = err
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["providerCaller"] = err
			return
		}

		c.providerCaller = providerService.NewBoundedCaller(
			registry, c.config.ProviderCallTimeout).WithMetrics(businessMetrics)
	})
	if storedErr, exists := c.initErrors["providerCaller"]; exists {
		return nil, storedErr
	}
	return c.providerCaller, nil
}

// DegradedModeManager returns the degraded mode state machine.
func (c *Container) DegradedModeManager() *resilienceService.DegradedModeManager {
	c.degradedManagerInit.Do(func() {
		c.degradedManager = resilienceService.NewDegradedModeManager(time.Now)
	})
	return c.degradedManager
}

// BreakerCoordinator returns the per-provider circuit breaker coordinator
// with the degraded-mode transition listener already subscribed.
func (c *Container) BreakerCoordinator() (*resilienceService.BreakerCoordinator, error) {
	c.breakersInit.Do(func() {
		outbox, err := c.OutboxUseCase()
		if err != nil {
			c.initErrors["breakers"] = err
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["breakers"] = err
			return
		}

		coordinator := resilienceService.NewBreakerCoordinator(
			resilienceDomain.BreakerConfig{
				WindowSize:           c.config.BreakerWindowSize,
				MinimumCalls:         c.config.BreakerMinimumCalls,
				FailureRateThreshold: c.config.BreakerFailureRateThreshold,
				OpenWait:             c.config.BreakerOpenWait,
				HalfOpenCalls:        c.config.BreakerHalfOpenCalls,
			},
			time.Now,
		)
		coordinator.Subscribe(resilienceUseCase.NewTransitionListener(
			c.DegradedModeManager(),
			outbox,
			businessMetrics,
			c.Logger(),
		))
		c.breakers = coordinator
	})
	if storedErr, exists := c.initErrors["breakers"]; exists {
		return nil, storedErr
	}
	return c.breakers, nil
}

// ProviderSelector returns the availability-aware provider selector.
//
// The selector reads breaker state lazily, so it tolerates a coordinator that
// failed to initialize; callers that reach it through SignatureUseCase have
// already surfaced that error.
func (c *Container) ProviderSelector() *resilienceService.ProviderSelector {
	c.selectorInit.Do(func() {
		breakers, err := c.BreakerCoordinator()
		if err != nil {
			return
		}
		c.selector = resilienceService.NewProviderSelector(c.DegradedModeManager(), breakers)
	})
	return c.selector
}

// Reactivator returns the degraded-provider reactivation use case.
func (c *Container) Reactivator() (*resilienceUseCase.Reactivator, error) {
	c.reactivatorInit.Do(func() {
		caller, err := c.ProviderCaller()
		if err != nil {
			c.initErrors["reactivator"] = err
			return
		}

		breakers, err := c.BreakerCoordinator()
		if err != nil {
			c.initErrors["reactivator"] = err
			return
		}

		outbox, err := c.OutboxUseCase()
		if err != nil {
			c.initErrors["reactivator"] = err
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["reactivator"] = err
			return
		}

		c.reactivator = resilienceUseCase.NewReactivator(
			c.config.ReactivationProbeTimeout,
			caller,
			c.DegradedModeManager(),
			breakers,
			outbox,
			businessMetrics,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["reactivator"]; exists {
		return nil, storedErr
	}
	return c.reactivator, nil
}

// AdminUseCase returns the operator surface over the resilience state.
func (c *Container) AdminUseCase() (*resilienceUseCase.AdminUseCase, error) {
	c.adminUseCaseInit.Do(func() {
		breakers, err := c.BreakerCoordinator()
		if err != nil {
			c.initErrors["adminUseCase"] = err
			return
		}

		reactivator, err := c.Reactivator()
		if err != nil {
			c.initErrors["adminUseCase"] = err
			return
		}

		c.adminUseCase = resilienceUseCase.NewAdminUseCase(
			c.DegradedModeManager(),
			breakers,
			reactivator,
		)
	})
	if storedErr, exists := c.initErrors["adminUseCase"]; exists {
		return nil, storedErr
	}
	return c.adminUseCase, nil
}

// AdminHandler returns the HTTP handler for the admin endpoints.
func (c *Container) AdminHandler() (*resilienceHTTP.AdminHandler, error) {
	c.adminHandlerInit.Do(func() {
		useCase, err := c.AdminUseCase()
		if err != nil {
			c.initErrors["adminHandler"] = err
			return
		}
		c.adminHandler = resilienceHTTP.NewAdminHandler(useCase, c.Logger())
	})
	if storedErr, exists := c.initErrors["adminHandler"]; exists {
		return nil, storedErr
	}
	return c.adminHandler, nil
}

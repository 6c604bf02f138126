package app

import (
	"fmt"
	"sync"
	"time"

	routingHTTP "github.com/allisson/signatures/internal/routing/http"
	routingRepository "github.com/allisson/signatures/internal/routing/repository"
	routingService "github.com/allisson/signatures/internal/routing/service"
	routingUseCase "github.com/allisson/signatures/internal/routing/usecase"
)

// routingDeps holds the routing context dependencies.
type routingDeps struct {
	ruleRepoInit       sync.Once
	evaluatorInit      sync.Once
	decisionEngineInit sync.Once
	ruleUseCaseInit    sync.Once
	ruleHandlerInit    sync.Once

	ruleRepo       routingUseCase.RuleRepository
	evaluator      *routingService.Evaluator
	decisionEngine routingUseCase.DecisionEngine
	ruleUseCase    routingUseCase.RuleUseCase
	ruleHandler    *routingHTTP.RuleHandler
}

// RuleRepository returns the routing rule repository for the configured
// database driver.
func (c *Container) RuleRepository() (routingUseCase.RuleRepository, error) {
	c.ruleRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["ruleRepo"] = fmt.Errorf("failed to get database for rule repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.ruleRepo = routingRepository.NewPostgreSQLRuleRepository(db)
		case "mysql":
			c.ruleRepo = routingRepository.NewMySQLRuleRepository(db)
		default:
			c.initErrors["ruleRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["ruleRepo"]; exists {
		return nil, storedErr
	}
	return c.ruleRepo, nil
}

// Evaluator returns the rule condition evaluator.
func (c *Container) Evaluator() *routingService.Evaluator {
	c.evaluatorInit.Do(func() {
		c.evaluator = routingService.NewEvaluator()
	})
	return c.evaluator
}

// DecisionEngine returns the channel decision engine, wrapped with metrics
// instrumentation.
func (c *Container) DecisionEngine() (routingUseCase.DecisionEngine, error) {
	c.decisionEngineInit.Do(func() {
		ruleRepo, err := c.RuleRepository()
		if err != nil {
			c.initErrors["decisionEngine"] = err
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["decisionEngine"] = err
			return
		}

		engine := routingUseCase.NewDecisionEngine(
			ruleRepo,
			c.Evaluator(),
			c.config.DefaultChannel,
			time.Now,
			c.Logger(),
		)
		c.decisionEngine = routingUseCase.NewDecisionEngineWithMetrics(engine, businessMetrics)
	})
	if storedErr, exists := c.initErrors["decisionEngine"]; exists {
		return nil, storedErr
	}
	return c.decisionEngine, nil
}

// RuleUseCase returns the routing rule management use case.
func (c *Container) RuleUseCase() (routingUseCase.RuleUseCase, error) {
	c.ruleUseCaseInit.Do(func() {
		ruleRepo, err := c.RuleRepository()
		if err != nil {
			c.initErrors["ruleUseCase"] = err
			return
		}
		c.ruleUseCase = routingUseCase.NewRuleUseCase(ruleRepo, c.Evaluator())
	})
	if storedErr, exists := c.initErrors["ruleUseCase"]; exists {
		return nil, storedErr
	}
	return c.ruleUseCase, nil
}

// RuleHandler returns the HTTP handler for routing rules.
func (c *Container) RuleHandler() (*routingHTTP.RuleHandler, error) {
	c.ruleHandlerInit.Do(func() {
		useCase, err := c.RuleUseCase()
		if err != nil {
			c.initErrors["ruleHandler"] = err
			return
		}
		c.ruleHandler = routingHTTP.NewRuleHandler(useCase, c.Logger())
	})
	if storedErr, exists := c.initErrors["ruleHandler"]; exists {
		return nil, storedErr
	}
	return c.ruleHandler, nil
}

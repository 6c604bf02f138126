package app

import (
	"fmt"
	"sync"

	outboxRepository "github.com/allisson/signatures/internal/outbox/repository"
	outboxUseCase "github.com/allisson/signatures/internal/outbox/usecase"
)

// outboxDeps holds the outbox context dependencies.
type outboxDeps struct {
	outboxRepoInit    sync.Once
	outboxUseCaseInit sync.Once

	outboxRepo    outboxUseCase.OutboxEventRepository
	outboxUseCase *outboxUseCase.OutboxUseCase
}

// OutboxEventRepository returns the outbox event repository for the
// configured database driver.
func (c *Container) OutboxEventRepository() (outboxUseCase.OutboxEventRepository, error) {
	c.outboxRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["outboxRepo"] = fmt.Errorf("failed to get database for outbox repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.outboxRepo = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
		case "mysql":
			c.outboxRepo = outboxRepository.NewMySQLOutboxEventRepository(db)
		default:
			c.initErrors["outboxRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// OutboxUseCase returns the transactional outbox use case.
func (c *Container) OutboxUseCase() (*outboxUseCase.OutboxUseCase, error) {
	c.outboxUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}

		outboxRepo, err := c.OutboxEventRepository()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}

		c.outboxUseCase = outboxUseCase.NewOutboxUseCase(
			outboxUseCase.Config{
				Interval:      c.config.OutboxRelayInterval,
				BatchSize:     c.config.OutboxRelayBatchSize,
				MaxRetries:    c.config.OutboxMaxRetries,
				RetryInterval: c.config.OutboxRelayInterval,
			},
			txManager,
			outboxRepo,
			outboxUseCase.NewLoggingEventProcessor(c.Logger()),
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

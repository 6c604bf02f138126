package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/signatures/internal/counter"
	"github.com/allisson/signatures/internal/pseudonym"
	signatureHTTP "github.com/allisson/signatures/internal/signature/http"
	signatureRepository "github.com/allisson/signatures/internal/signature/repository"
	signatureUseCase "github.com/allisson/signatures/internal/signature/usecase"
)

// signatureDeps holds the signature context dependencies.
type signatureDeps struct {
	signatureRepoInit    sync.Once
	redisClientInit      sync.Once
	attemptCounterInit   sync.Once
	pseudonymizerInit    sync.Once
	signatureUseCaseInit sync.Once
	sweeperInit          sync.Once
	signatureHandlerInit sync.Once

	signatureRepo    signatureUseCase.SignatureRequestRepository
	redisClient      *redis.Client
	attemptCounter   counter.AttemptCounter
	pseudonymizer    pseudonym.Pseudonymizer
	signatureUseCase signatureUseCase.SignatureUseCase
	sweeper          *signatureUseCase.ExpirationSweeper
	signatureHandler *signatureHTTP.SignatureHandler
}

// SignatureRequestRepository returns the signature request repository for the
// configured database driver.
func (c *Container) SignatureRequestRepository() (signatureUseCase.SignatureRequestRepository, error) {
	c.signatureRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["signatureRepo"] = fmt.Errorf("failed to get database for signature repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.signatureRepo = signatureRepository.NewPostgreSQLSignatureRequestRepository(db)
		case "mysql":
			c.signatureRepo = signatureRepository.NewMySQLSignatureRequestRepository(db)
		default:
			c.initErrors["signatureRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["signatureRepo"]; exists {
		return nil, storedErr
	}
	return c.signatureRepo, nil
}

// RedisClient returns the Redis client used by the attempt counter.
func (c *Container) RedisClient() *redis.Client {
	c.redisClientInit.Do(func() {
		c.redisClient = redis.NewClient(&redis.Options{
			Addr:     c.config.RedisAddr,
			Password: c.config.RedisPassword,
			DB:       c.config.RedisDB,
		})
	})
	return c.redisClient
}

// AttemptCounter returns the wrong-code attempt counter for the configured
// backend. Counter entries share the request TTL, so stale counts never
// outlive the request they guard.
func (c *Container) AttemptCounter() (counter.AttemptCounter, error) {
	c.attemptCounterInit.Do(func() {
		switch c.config.CounterBackend {
		case "memory":
			c.attemptCounter = counter.NewMemoryCounter(c.config.RequestTTL)
		case "redis":
			c.attemptCounter = counter.NewRedisCounter(c.RedisClient(), c.config.RequestTTL)
		default:
			c.initErrors["attemptCounter"] = fmt.Errorf("unsupported counter backend: %s", c.config.CounterBackend)
		}
	})
	if storedErr, exists := c.initErrors["attemptCounter"]; exists {
		return nil, storedErr
	}
	return c.attemptCounter, nil
}

// Pseudonymizer returns the customer identifier pseudonymizer. A configured
// keeper URI takes precedence over a locally derived secret.
func (c *Container) Pseudonymizer() (pseudonym.Pseudonymizer, error) {
	c.pseudonymizerInit.Do(func() {
		switch {
		case c.config.PseudonymKeyURI != "":
			p, err := pseudonym.NewPseudonymizerFromKeeper(
				context.Background(),
				c.config.PseudonymKeyURI,
				c.config.PseudonymWrappedKey,
			)
			if err != nil {
				c.initErrors["pseudonymizer"] = fmt.Errorf("failed to create pseudonymizer from keeper: %w", err)
				return
			}
			c.pseudonymizer = p
		case c.config.PseudonymSecret != "":
			p, err := pseudonym.NewPseudonymizerFromSecret(c.config.PseudonymSecret)
			if err != nil {
				c.initErrors["pseudonymizer"] = fmt.Errorf("failed to create pseudonymizer from secret: %w", err)
				return
			}
			c.pseudonymizer = p
		default:
			c.initErrors["pseudonymizer"] = fmt.Errorf("no pseudonymization key material configured")
		}
	})
	if storedErr, exists := c.initErrors["pseudonymizer"]; exists {
		return nil, storedErr
	}
	return c.pseudonymizer, nil
}

// SignatureUseCase returns the signature orchestration use case, wrapped with
// metrics instrumentation.
func (c *Container) SignatureUseCase() (signatureUseCase.SignatureUseCase, error) {
	c.signatureUseCaseInit.Do(func() {
		useCase, err := c.initSignatureUseCase()
		if err != nil {
			c.initErrors["signatureUseCase"] = err
			return
		}
		c.signatureUseCase = useCase
	})
	if storedErr, exists := c.initErrors["signatureUseCase"]; exists {
		return nil, storedErr
	}
	return c.signatureUseCase, nil
}

func (c *Container) initSignatureUseCase() (signatureUseCase.SignatureUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}

	requestRepo, err := c.SignatureRequestRepository()
	if err != nil {
		return nil, err
	}

	decisionEngine, err := c.DecisionEngine()
	if err != nil {
		return nil, err
	}

	breakers, err := c.BreakerCoordinator()
	if err != nil {
		return nil, err
	}

	caller, err := c.ProviderCaller()
	if err != nil {
		return nil, err
	}

	outbox, err := c.OutboxUseCase()
	if err != nil {
		return nil, err
	}

	attempts, err := c.AttemptCounter()
	if err != nil {
		return nil, err
	}

	pseudonymizer, err := c.Pseudonymizer()
	if err != nil {
		return nil, err
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := signatureUseCase.NewSignatureUseCase(
		signatureUseCase.Config{
			RequestTTL:          c.config.RequestTTL,
			OTPLength:           c.config.OTPLength,
			OTPMaxAttempts:      c.config.OTPMaxAttempts,
			FallbackMaxAttempts: c.config.FallbackMaxAttempts,
		},
		txManager,
		requestRepo,
		decisionEngine,
		c.ProviderSelector(),
		breakers,
		caller,
		outbox,
		attempts,
		pseudonymizer,
		time.Now,
		c.Logger(),
	)

	return signatureUseCase.NewSignatureUseCaseWithMetrics(useCase, businessMetrics), nil
}

// ExpirationSweeper returns the sweeper that finalizes stale requests.
func (c *Container) ExpirationSweeper() (*signatureUseCase.ExpirationSweeper, error) {
	c.sweeperInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["sweeper"] = err
			return
		}

		requestRepo, err := c.SignatureRequestRepository()
		if err != nil {
			c.initErrors["sweeper"] = err
			return
		}

		outbox, err := c.OutboxUseCase()
		if err != nil {
			c.initErrors["sweeper"] = err
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["sweeper"] = err
			return
		}

		c.sweeper = signatureUseCase.NewExpirationSweeper(
			c.config.SweepBatchSize,
			txManager,
			requestRepo,
			outbox,
			businessMetrics,
			time.Now,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["sweeper"]; exists {
		return nil, storedErr
	}
	return c.sweeper, nil
}

// SignatureHandler returns the HTTP handler for signature requests.
func (c *Container) SignatureHandler() (*signatureHTTP.SignatureHandler, error) {
	c.signatureHandlerInit.Do(func() {
		useCase, err := c.SignatureUseCase()
		if err != nil {
			c.initErrors["signatureHandler"] = err
			return
		}
		c.signatureHandler = signatureHTTP.NewSignatureHandler(useCase, c.Logger())
	})
	if storedErr, exists := c.initErrors["signatureHandler"]; exists {
		return nil, storedErr
	}
	return c.signatureHandler, nil
}

package database

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4/database/postgres"
)

// Dependency connects to postgres and applies migrations as one startup step
type Dependency struct {
	dsn       string
	pool      PoolConfig
	migration *MigrationConfig
	logger    ectologger.Logger

	instance *DatabaseInstance
}

func NewDependency(dsn string, pool PoolConfig, migration *MigrationConfig, logger ectologger.Logger) *Dependency {
	return &Dependency{
		dsn:       dsn,
		pool:      pool,
		migration: migration,
		logger:    logger,
	}
}

func (d *Dependency) GetName() string {
	return "database"
}

func (d *Dependency) DependsOn() []string {
	return nil
}

func (d *Dependency) Start(ctx context.Context) error {
	if d.instance == nil {
		instance, err := Connect(ctx, d.dsn, d.pool, d.logger)
		if err != nil {
			return err
		}
		d.instance = instance
	}

	driver, err := postgres.WithInstance(d.instance.DB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	return NewMigrationService(d.logger, d.migration).Migrate("postgres", driver)
}

func (d *Dependency) Stop(ctx context.Context) error {
	if d.instance == nil {
		return nil
	}
	return d.instance.Close()
}

// DB returns the connected instance. It is nil until Start succeeds.
func (d *Dependency) DB() DB {
	if d.instance == nil {
		return nil
	}
	return d.instance
}

//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"notevault/application/backup"
	"notevault/application/integrity"
	"notevault/application/storage"
	domainconfig "notevault/domain/config"
	"notevault/infrastructure/config"
	"notevault/infrastructure/persistence/abstractions"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	Store        abstractions.KeyValueStore
	ObjectStore  abstractions.ObjectStore
	Adapter      *storage.Adapter
	Shadows      *storage.ShadowWriter
	Repository   *storage.Repository
	Auditor      *integrity.Auditor
	Repairer     *integrity.Repairer
	Orchestrator *backup.Orchestrator
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideKeyValueStore,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideObjectStore,
	ProvideAdapter,
	ProvideShadowWriter,
	ProvideRepository,
	ProvideAuditor,
	ProvideRepairer,
	ProvideDeviceInfo,
	ProvideOrchestrator,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}

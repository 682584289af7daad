package di

import (
	"context"
	"os"
	"runtime"

	"notevault/application/backup"
	"notevault/application/integrity"
	"notevault/application/storage"
	domainconfig "notevault/domain/config"
	"notevault/infrastructure/config"
	"notevault/infrastructure/persistence/abstractions"
	"notevault/infrastructure/persistence/badgerstore"
	dynamostore "notevault/infrastructure/persistence/dynamodb"
	"notevault/infrastructure/persistence/memory"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideDomainConfig loads the business rules for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideKeyValueStore opens the local key-value primitive. The cleanup
// function closes the database on shutdown.
func ProvideKeyValueStore(cfg *config.Config, logger *zap.Logger) (abstractions.KeyValueStore, func(), error) {
	if cfg.InMemoryStorage {
		store, err := badgerstore.OpenInMemory(logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}

	store, err := badgerstore.Open(cfg.DataDir, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideObjectStore selects the backup store variant for the environment
func ProvideObjectStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) abstractions.ObjectStore {
	switch cfg.BackupStore {
	case config.BackupStoreDynamoDB:
		return dynamostore.NewObjectStore(client, cfg.BackupTable, logger)
	case config.BackupStoreMemory:
		return memory.NewStore()
	default:
		return abstractions.NewUnavailableObjectStore("backup store")
	}
}

// ProvideAdapter creates the validated key-value adapter
func ProvideAdapter(store abstractions.KeyValueStore, logger *zap.Logger) *storage.Adapter {
	return storage.NewAdapter(store, logger)
}

// ProvideShadowWriter creates the backup-on-write layer
func ProvideShadowWriter(adapter *storage.Adapter, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *storage.ShadowWriter {
	return storage.NewShadowWriter(adapter, domainCfg.MaxShadowsPerKey, logger)
}

// ProvideRepository creates the validating repository
func ProvideRepository(shadows *storage.ShadowWriter, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *storage.Repository {
	return storage.NewRepository(shadows, domainCfg, logger)
}

// ProvideAuditor creates the integrity auditor
func ProvideAuditor(repo *storage.Repository, backups abstractions.ObjectStore, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *integrity.Auditor {
	return integrity.NewAuditor(repo, backups, domainCfg, logger)
}

// ProvideRepairer creates the integrity repairer
func ProvideRepairer(repo *storage.Repository, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *integrity.Repairer {
	return integrity.NewRepairer(repo, domainCfg, logger)
}

// ProvideDeviceInfo describes this host in backup metadata
func ProvideDeviceInfo(cfg *config.Config) backup.DeviceInfo {
	deviceID, err := os.Hostname()
	if err != nil || deviceID == "" {
		deviceID = "unknown"
	}
	return backup.DeviceInfo{
		Platform: runtime.GOOS,
		Version:  cfg.AppVersion,
		DeviceID: deviceID,
	}
}

// ProvideOrchestrator creates the backup orchestrator
func ProvideOrchestrator(
	repo *storage.Repository,
	backups abstractions.ObjectStore,
	domainCfg *domainconfig.DomainConfig,
	device backup.DeviceInfo,
	logger *zap.Logger,
) *backup.Orchestrator {
	return backup.NewOrchestrator(repo, backups, domainCfg, device, logger)
}

package app

import (
	"time"

	"github.com/GoPolymarket/vaultscope/internal/config"
	"github.com/GoPolymarket/vaultscope/internal/pkg/logger"
	"github.com/GoPolymarket/vaultscope/internal/repository"
	"github.com/GoPolymarket/vaultscope/internal/service"
)

// App holds the wired services shared by the server and the inspector.
type App struct {
	Vaults     *service.VaultService
	Aggregator *service.Aggregator
	Store      service.SnapshotStore

	redis *repository.RedisClient
}

func New(cfg *config.Config) *App {
	mainAPI := repository.NewVaultAPI("vaults_api", cfg.API.BaseURL, millis(cfg.API.TimeoutMs))

	deps := service.VaultServiceDeps{
		Main:      mainAPI,
		AllowList: cfg.Vaults.AllowList,
		DenyList:  cfg.Vaults.DenyList,
	}
	if cfg.API.ExperimentalURL != "" {
		deps.Experimental = repository.NewVaultAPI("experimental_api", cfg.API.ExperimentalURL, millis(cfg.API.TimeoutMs))
	}
	if cfg.Subgraph.URL != "" {
		deps.Strategies = repository.NewSubgraph(cfg.Subgraph.URL, millis(cfg.Subgraph.TimeoutMs))
	}
	if cfg.Chain.RPCURL != "" {
		deps.Chain = repository.NewMulticallReader(cfg.Chain.RPCURL, cfg.Chain.MulticallAddress, millis(cfg.Chain.TimeoutMs), cfg.Chain.MaxQueueLength)
		logger.Info("on-chain enrichment enabled", "multicall", cfg.Chain.MulticallAddress)
	}

	a := &App{Vaults: service.NewVaultService(deps)}

	// Snapshot store (Redis > Memory)
	if cfg.Redis.Addr != "" {
		client, err := repository.NewRedisClient(cfg.Redis)
		if err == nil {
			logger.Info("connected to redis", "addr", cfg.Redis.Addr)
			a.redis = client
			a.Store = repository.NewRedisSnapshotStore(client.Client, cfg.Redis.SnapshotKey)
		} else {
			logger.Error("failed to connect to redis, falling back to memory", "error", err)
		}
	}
	if a.Store == nil {
		a.Store = service.NewMemorySnapshotStore()
	}

	a.Aggregator = service.NewAggregator(a.Vaults, a.Store)
	return a
}

func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

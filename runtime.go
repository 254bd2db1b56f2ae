package main

import (
	"context"
	"fmt"
	"time"

	"hustle-genie/db"
	"hustle-genie/llm"
	"hustle-genie/store"
	"hustle-genie/utils"
	"hustle-genie/workspace"
)

// runtime holds what every command needs: config, logger, storage and the
// AI gateway
type runtime struct {
	config     *utils.Config
	configPath string
	logger     *utils.Logger
	kv         db.KV
	deps       workspace.Deps
}

func newRuntime(ctx context.Context, path string, debugFlag bool) (*runtime, error) {
	var err error
	if path == "" {
		if path, err = utils.EnsureDefaultConfig(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}
	config, err := utils.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	logger, err := utils.NewLogger(utils.GetLogPath(), config.Debug || debugFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("using config file", "path", path)

	kv, err := openKV(config.Data)
	if err != nil {
		logger.Error("failed to open storage", "backend", config.Data.Backend, "error", err)
		logger.Close()
		return nil, utils.WrapError(err, "open storage")
	}
	logger.Info("storage initialized", "backend", config.Data.Backend)

	st := store.New(kv, logger)
	st.MigrateLegacy(ctx)

	provider, err := newProvider(ctx, config)
	if err != nil {
		logger.Error("failed to initialize provider", "provider", config.LLM.Provider, "error", err)
		kv.Close()
		logger.Close()
		return nil, utils.WrapError(err, "initialize provider")
	}

	return &runtime{
		config:     config,
		configPath: path,
		logger:     logger,
		kv:         kv,
		deps: workspace.Deps{
			Store:      st,
			Gen:        llm.NewGateway(provider, logger),
			Logger:     logger,
			IdleAfter:  time.Duration(config.UI.IdlePromptSeconds) * time.Second,
			Transition: time.Duration(config.UI.TransitionMillis) * time.Millisecond,
		},
	}, nil
}

func openKV(cfg utils.DataConfig) (db.KV, error) {
	switch cfg.Backend {
	case "", utils.BackendSQLite:
		return db.New(cfg.DBPath)
	case utils.BackendRedis:
		return db.NewRedis(db.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	}
	return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
}

func newProvider(ctx context.Context, config *utils.Config) (llm.Provider, error) {
	pc := config.LLM.Gemini
	if config.LLM.Provider == "openai" {
		pc = config.LLM.OpenAI
	}

	client := config.HTTPClient()
	if pc.Timeout > 0 {
		client.Timeout = time.Duration(pc.Timeout) * time.Second
	}

	return llm.NewProvider(ctx, config.LLM.Provider, llm.Config{
		APIKey:      pc.APIKey,
		BaseURL:     pc.BaseURL,
		Model:       pc.Model,
		ImageModel:  pc.ImageModel,
		MaxTokens:   pc.MaxTokens,
		Temperature: pc.Temperature,
		HTTPClient:  client,
	})
}

func (rt *runtime) now() time.Time {
	return time.Now()
}

func (rt *runtime) stats() (*db.DBStats, error) {
	local, ok := rt.kv.(*db.DB)
	if !ok {
		return nil, fmt.Errorf("statistics are not available for the %s backend", rt.config.Data.Backend)
	}
	return local.GetStats()
}

func (rt *runtime) Close() {
	if err := rt.kv.Close(); err != nil {
		rt.logger.Error("failed to close storage", "error", err)
	}
	rt.logger.Close()
}

package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/creastat/contractbot/config"
	"github.com/creastat/contractbot/document"
	"github.com/creastat/contractbot/latex"
	"github.com/creastat/contractbot/sequence"
	"github.com/creastat/contractbot/session"
	"github.com/creastat/contractbot/supabase"
)

func openStore(cfg *config.Config) (session.Store, error) {
	storeType := session.StoreType(cfg.Session.Driver)
	var opts []session.StoreOption
	if storeType == session.StoreTypeRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		opts = append(opts,
			session.WithRedisClient(client),
			session.WithRedisTTL(cfg.GetSessionTTL()),
			session.WithKeyPrefix(cfg.Session.KeyPrefix))
	}
	store, err := session.NewStore(storeType, opts...)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}

func openCounter(cfg *config.Config) (sequence.Counter, error) {
	switch cfg.Sequence.Driver {
	case "sqlite":
		counter, err := sequence.NewSQLite(cfg.Sequence.Path, cfg.Sequence.Start)
		if err != nil {
			return nil, fmt.Errorf("open sequence: %w", err)
		}
		return counter, nil
	default:
		return sequence.NewMemory(cfg.Sequence.Start), nil
	}
}

func newPipeline(cfg *config.Config, counter sequence.Counter, logger *zap.Logger) *document.Pipeline {
	compiler := &latex.Compiler{
		Binary:         cfg.Latex.Binary,
		Engine:         cfg.Latex.Engine,
		Timeout:        cfg.GetLatexTimeout(),
		MaxOutputBytes: int64(cfg.Latex.MaxOutputBytes),
		Command:        execCommand,
		Logger:         logger.Named("latex"),
	}
	return document.NewPipeline(document.Config{
		TemplatePath: cfg.Document.TemplatePath,
		LeftDelim:    cfg.Document.LeftDelim,
		RightDelim:   cfg.Document.RightDelim,
		OutputDir:    cfg.Document.OutputDir,
		WorkDir:      cfg.Document.WorkDir,
		MaxLogBytes:  cfg.Document.MaxLogBytes,
	}, compiler, counter, document.WithLogger(logger.Named("document")))
}

// openRegistry returns nil when the registry is not configured.
func openRegistry(cfg *config.Config) (*supabase.Client, error) {
	if !cfg.IsRegistryEnabled() {
		return nil, nil
	}
	client, err := supabase.New(supabase.Config{
		URL:      cfg.Registry.SupabaseURL,
		APIKey:   cfg.Registry.SupabaseKey,
		Table:    cfg.Registry.Table,
		CacheTTL: cfg.GetRegistryCacheTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	return client, nil
}

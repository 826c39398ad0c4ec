package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studyowl/offline/internal/appmeta"
	"github.com/studyowl/offline/internal/config"
	"github.com/studyowl/offline/internal/pack"
	"github.com/studyowl/offline/internal/progress"
	"github.com/studyowl/offline/internal/quota"
	"github.com/studyowl/offline/internal/remote"
	"github.com/studyowl/offline/internal/store"
	"github.com/studyowl/offline/internal/syncer"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// app wires the offline components around the single shared store handle.
type app struct {
	cfg          *config.Config
	store        *store.Store
	remote       *remote.HTTPClient
	packRepo     pack.Repository
	packs        *pack.Manager
	guard        *pack.Guard
	accountant   *quota.Accountant
	engine       *syncer.Engine
	recorder     *progress.Recorder
	progressRepo progress.Repository
	meta         *appmeta.Repository
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loadConfig() > %w", err)
	}

	s := store.New(cfg.Database.Path)
	if err := s.Open(ctx); err != nil {
		return nil, fmt.Errorf("store.Open() > %w", err)
	}

	remoteClient := remote.NewHTTPClient(cfg.API.BaseURL, cfg.API.Key, remote.DefaultMaxRetryAttempts)

	guard := pack.NewGuard()
	packRepo := pack.NewStoreRepository(s)
	accountant := quota.NewAccountant(packRepo, guard, cfg.Storage.QuotaBytes)
	manager := pack.NewManager(packRepo, remoteClient, s, guard, accountant)

	meta := appmeta.NewRepository(s)
	progressRepo := progress.NewStoreRepository(s)
	recorder := progress.NewRecorder(progressRepo)
	pendingRepo := syncer.NewStoreRepository(s)
	engine := syncer.NewEngine(pendingRepo, remoteClient, meta, nil, cfg.Student.ID)

	if err := meta.TrackVisit(ctx); err != nil {
		slog.Default().Warn("failed to track visit", slog.Any("error", err))
	}

	return &app{
		cfg:          cfg,
		store:        s,
		remote:       remoteClient,
		packRepo:     packRepo,
		packs:        manager,
		guard:        guard,
		accountant:   accountant,
		engine:       engine,
		recorder:     recorder,
		progressRepo: progressRepo,
		meta:         meta,
	}, nil
}

func (a *app) Close() {
	if err := a.remote.Close(); err != nil {
		slog.Default().Warn("failed to close remote client", slog.Any("error", err))
	}
	if err := a.store.Close(); err != nil {
		slog.Default().Warn("failed to close store", slog.Any("error", err))
	}
}

// findQuestion locates a downloaded question by id across all packs.
func (a *app) findQuestion(ctx context.Context, questionID string) (*pack.Question, error) {
	packs, err := a.packRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("packRepo.FindAll() > %w", err)
	}
	for i := range packs {
		for j := range packs[i].Questions {
			if packs[i].Questions[j].ID == questionID {
				return &packs[i].Questions[j], nil
			}
		}
	}
	return nil, nil
}

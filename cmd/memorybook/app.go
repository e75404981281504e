// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tejzpr/memorybook/internal/config"
	"github.com/tejzpr/memorybook/internal/database"
	"github.com/tejzpr/memorybook/internal/locking"
	"github.com/tejzpr/memorybook/internal/logging"
	"github.com/tejzpr/memorybook/internal/memory"
	"github.com/tejzpr/memorybook/internal/store"
)

// app holds the wired components shared by the commands
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	locker  *locking.Locker
	service *memory.Service
}

// loadConfig reads the config file then applies environment and flag
// overrides, in that order
func loadConfig(opts *globalOptions) (*config.Config, []string, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	applied := config.ApplyEnvOverrides(cfg)
	applied = append(applied, config.ApplyOverrides(cfg, config.Overrides{
		DBType:   opts.dbType,
		DBPath:   opts.dbPath,
		DBDSN:    opts.dbDSN,
		Port:     opts.port,
		LogLevel: opts.logLevel,
	})...)

	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, applied, nil
}

// setup loads configuration, opens the database and wires the service
func setup(opts *globalOptions) (*app, error) {
	cfg, applied, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	if len(applied) > 0 {
		log.Info("configuration overrides applied", zap.Strings("settings", applied))
	}

	db, err := openDatabase(cfg)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	log.Info("database ready", zap.String("type", cfg.Database.Type))

	repo := store.New(db)
	engine := memory.NewEngine(repo, memory.EngineConfig{
		SimilarityThreshold: cfg.Engine.SimilarityThreshold,
		SummaryMaxLength:    cfg.Engine.SummaryMaxLength,
	}, log.Named("engine"))
	locker := locking.NewLocker(db).WithTTL(time.Duration(cfg.Locking.LeaseSeconds) * time.Second)

	return &app{
		cfg:     cfg,
		logger:  log,
		db:      db,
		locker:  locker,
		service: memory.NewService(repo, engine, locker, log.Named("service")),
	}, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(&database.Config{
		Type:        cfg.Database.Type,
		SQLitePath:  cfg.Database.SQLitePath,
		PostgresDSN: cfg.Database.PostgresDSN,
		LogLevel:    logger.Silent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := locking.MigrateLocks(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate locks: %w", err)
	}
	return db, nil
}

// Close releases the database and flushes the logger
func (a *app) Close() {
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// jwtSecret returns the configured secret or a random one valid for this
// process only
func (a *app) jwtSecret() (string, error) {
	if a.cfg.Security.JWTSecret != "" {
		return a.cfg.Security.JWTSecret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	a.logger.Warn("no jwt secret configured, generated one for this process; tokens will not survive a restart",
		zap.String("hint", "set security.jwt_secret or JWT_SECRET"))
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

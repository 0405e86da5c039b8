package main

import (
	"fmt"
	"time"

	"github.com/veeresh/va-bot/internal/approval"
	"github.com/veeresh/va-bot/internal/config"
	"github.com/veeresh/va-bot/internal/connector"
	"github.com/veeresh/va-bot/internal/credentials"
	"github.com/veeresh/va-bot/internal/delivery"
	"github.com/veeresh/va-bot/internal/engine"
	"github.com/veeresh/va-bot/internal/pipeline"
	"github.com/veeresh/va-bot/internal/render"
)

// buildPipeline assembles the full pipeline from environment config.
// useBrowser selects the headless-browser renderer ahead of the pure-Go
// table renderer.
func buildPipeline(cfg *config.Config, useBrowser bool) (*pipeline.Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	registry := connector.DefaultRegistry()
	router := credentials.NewRouter(credentials.DefaultPlatforms(loc))

	store, err := engine.NewResultStore(cfg.OutDir)
	if err != nil {
		return nil, err
	}

	specs := engine.Specs(registry, cfg.TaskTimeout, cfg.MaxAttempts)
	eng := engine.New(registry, router, store, specs)

	var renderers []render.Renderer
	if useBrowser {
		renderers = append(renderers, render.NewBrowserRenderer())
	}
	renderers = append(renderers, render.NewTableRenderer())

	artifacts, err := render.NewPipeline(cfg.OutDir, render.NewEncryptor(cfg.Passcode), renderers...)
	if err != nil {
		return nil, err
	}

	tokens, err := approval.NewTokenService(cfg.ApprovalSecret, cfg.ApprovalWindow+24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("approval tokens: %w (set APPROVAL_SECRET)", err)
	}

	gateway := delivery.NewRetrier(
		delivery.NewSMTPGateway(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPass),
		delivery.DefaultAttempts,
		delivery.DefaultBaseWait,
	)

	return pipeline.New(cfg, eng, store, artifacts, approval.NewStore(), tokens, gateway)
}

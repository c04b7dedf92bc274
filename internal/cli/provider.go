// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/quill/internal/cloud"
	"github.com/jeranaias/quill/internal/config"
	"github.com/jeranaias/quill/internal/ollama"
	"github.com/jeranaias/quill/internal/transport"
)

// echoDelay paces the offline echo provider so the typewriter has something
// to reveal.
const echoDelay = 40 * time.Millisecond

// Provider is the transport chosen from the config.
type Provider struct {
	Name      string
	Model     string
	Transport transport.Transport
	// Checker is nil for providers without a health check.
	Checker transport.Checker
}

// ApplyArgs layers --provider and --model over cfg and revalidates it.
func ApplyArgs(cfg *config.Config, args Args) error {
	if args.Provider != "" {
		cfg.Provider = args.Provider
	}
	if args.Model != "" {
		switch cfg.Provider {
		case config.ProviderOpenAI:
			cfg.OpenAI.Model = args.Model
		default:
			cfg.Ollama.Model = args.Model
		}
	}
	return cfg.Validate()
}

// NewProvider builds the transport for cfg.Provider.
func NewProvider(cfg *config.Config, log zerolog.Logger) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		client := ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL: cfg.Ollama.URL,
			Model:   cfg.Ollama.Model,
			Logger:  log.With().Str("provider", config.ProviderOllama).Logger(),
		})
		return Provider{
			Name:      config.ProviderOllama,
			Model:     client.Model(),
			Transport: client,
			Checker:   client,
		}, nil

	case config.ProviderOpenAI:
		client := cloud.NewClient(cloud.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Logger:  log.With().Str("provider", config.ProviderOpenAI).Logger(),
		})
		if !client.IsConfigured() {
			return Provider{}, fmt.Errorf("openai provider needs an API key: set QUILL_OPENAI_KEY or [openai] api_key")
		}
		log.Info().Str("key", client.KeyFingerprint()).Str("model", client.Model()).Msg("openai provider")
		return Provider{
			Name:      config.ProviderOpenAI,
			Model:     client.Model(),
			Transport: client,
			Checker:   client,
		}, nil

	case config.ProviderEcho:
		return Provider{
			Name:      config.ProviderEcho,
			Model:     "echo",
			Transport: &transport.Echo{Delay: echoDelay},
		}, nil

	default:
		return Provider{}, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the run configuration: CLI-provided roots and
// credential plus optional file-provided model and walk settings.
package config

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	// 🚫 ErrDestinationNotDir means the destination root is missing or not
	// a directory; the run fails before anything is read or written.
	ErrDestinationNotDir = errors.New("destination is not an existing directory")

	// 🚫 ErrMissingAPIKey means no credential was provided via flag or
	// environment.
	ErrMissingAPIKey = errors.New("api key is required (set --api-key or OPENAI_API_KEY)")
)

// 🗂️ DefaultFileNames are probed, in order, when no config file is given.
var DefaultFileNames = []string{
	".convertrc.yaml",
	".convertrc.yml",
	".convertrc.hcl",
	".convertrc.json",
}

// 📚 Config is the configuration for one conversion run. Source,
// Destination and APIKey come from the CLI and are never read from a file;
// the rest may come from a config file with flags taking precedence.
type Config struct {
	Source      string `json:"-" yaml:"-"`
	Destination string `json:"-" yaml:"-"`
	APIKey      string `json:"-" yaml:"-"`

	Model          string   `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL        string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	SystemPrompt   string   `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	MaxTokens      int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature    float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	SourceExt      string   `json:"source_extension,omitempty" yaml:"source_extension,omitempty"`
	TargetExt      string   `json:"target_extension,omitempty" yaml:"target_extension,omitempty"`
	IgnorePatterns []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty"`
	Concurrency    int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// 🏭 Default returns a config with the built-in Java→PHP settings.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.SourceExt == "" {
		cfg.SourceExt = "java"
	}
	if cfg.TargetExt == "" {
		cfg.TargetExt = "php"
	}
}

// 🎯 Load loads the configuration file at path. An empty path probes
// DefaultFileNames in the working directory and falls back to Default()
// when none exists.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	if path == "" {
		for _, name := range DefaultFileNames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			logger.Debug().Msg("no config file found, using defaults")
			return Default(), nil
		}
	}

	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// 🔍 Validate checks the configuration against the filesystem. It is cheap
// and idempotent; the orchestrator calls it again before doing any work.
func (cfg *Config) Validate(ctx context.Context) error {
	cfg.applyDefaults()

	if cfg.Source == "" {
		return errors.New("source is required")
	}
	if cfg.Destination == "" {
		return errors.New("destination is required")
	}
	if cfg.APIKey == "" {
		return ErrMissingAPIKey
	}
	if cfg.Concurrency < 0 {
		return errors.Errorf("concurrency must not be negative: %d", cfg.Concurrency)
	}

	info, err := os.Stat(cfg.Destination)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("%s: %w", cfg.Destination, ErrDestinationNotDir)
		}
		return errors.Errorf("checking destination: %w", err)
	}
	if !info.IsDir() {
		return errors.Errorf("%s: %w", cfg.Destination, ErrDestinationNotDir)
	}

	return nil
}

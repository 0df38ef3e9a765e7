package main

import (
	"agribot/internal/adapters/generator"
	"agribot/internal/core/domain"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

var defaultModels = []string{
	"google/gemini-flash-1.5",
	"meta-llama/llama-3.1-8b-instruct",
}

var defaultOrigins = []string{
	"http://localhost:5173",
	"https://agribot-ai.vercel.app",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.log_level", "info")

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.allowed_origins", defaultOrigins)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 10<<20)

	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.site_url", "http://localhost:5173")
	v.SetDefault("openrouter.site_name", "AgriBot")

	v.SetDefault("chat.system_prompt", generator.AgronomistPrompt)
	v.SetDefault("chat.models", defaultModels)
	v.SetDefault("chat.timeout", "30s")
	v.SetDefault("chat.max_tokens", 1000)
	v.SetDefault("chat.temperature", 0.5)
	v.SetDefault("chat.cost_per_token", 0.00000015)
	v.SetDefault("chat.history_cap", domain.DefaultHistoryCap)
	v.SetDefault("chat.history_replay", domain.DefaultReplayDepth)

	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.timeout", "60s")
}

func bindEnv(v *viper.Viper) {
	bindings := map[string]string{
		"openrouter.api_key":   "OPENROUTER_API_KEY",
		"openrouter.site_url":  "SITE_URL",
		"openrouter.site_name": "SITE_NAME",
		"chat.models":          "CHAT_MODELS",
		"chat.timeout":         "CHAT_TIMEOUT",
		"server.addr":          "ADDR",
		"bot.log_level":        "LOG_LEVEL",
	}

	for key, env := range bindings {
		// BindEnv only errors without a key
		_ = v.BindEnv(key, env)
	}
}

// loadConfig reads .env and config.toml when present. Neither is required. Values in .env
// replace variables already set in the process environment.
func loadConfig(v *viper.Viper, envFile string) error {
	if err := gotenv.OverLoad(envFile); err != nil {
		log.Debug().Err(err).Str("file", envFile).Msg("no env file loaded")
	}

	setDefaults(v)
	bindEnv(v)

	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}

		log.Debug().Msg("no config file, using defaults and environment")
	}

	return nil
}

// parseModels accepts both a TOML list and a comma separated environment value.
func parseModels(raw []string) []domain.Model {
	var models []domain.Model

	for _, entry := range raw {
		for _, id := range strings.Split(entry, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}

			models = append(models, domain.Model{Identifier: id})
		}
	}

	return models
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

package main

import (
	"agribot/internal/adapters/generator"
	"agribot/internal/adapters/handler"
	"agribot/internal/adapters/metrics"
	"agribot/internal/core/domain/command"
	"agribot/internal/core/service"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	log.Info().Msg("starting agribot...")

	v := viper.New()

	log.Info().Msg("reading config...")
	if err := loadConfig(v, envFilePath()); err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	zerolog.SetGlobalLevel(parseLogLevel(v.GetString("bot.log_level")))
	zerolog.DefaultContextLogger = &log.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	apiKey := v.GetString("openrouter.api_key")
	if apiKey == "" {
		log.Warn().Msg("OPENROUTER_API_KEY not set, chat requests will return config_error")
	}

	m := metrics.NewMetrics()

	orGenerator := generator.NewOpenRouter(generator.OpenRouterParams{
		APIKey:       apiKey,
		SiteURL:      v.GetString("openrouter.site_url"),
		SiteName:     v.GetString("openrouter.site_name"),
		SystemPrompt: v.GetString("chat.system_prompt"),
		MaxTokens:    v.GetInt("chat.max_tokens"),
		Temperature:  float32(v.GetFloat64("chat.temperature")),
	})

	breaker := generator.NewBreaker(orGenerator, generator.BreakerSettings{
		MaxFailures: v.GetUint32("breaker.max_failures"),
		Timeout:     v.GetDuration("breaker.timeout"),
	}, m)

	history := service.NewHistory(v.GetInt("chat.history_cap"))
	tracker := service.NewUsageTracker()

	chatTimeout, err := time.ParseDuration(v.GetString("chat.timeout"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid timeout for chat in config")
	}

	chat, err := command.NewChat(command.ChatParams{
		TextGenerator: breaker,
		History:       history,
		Track:         tracker,
		Models:        parseModels(v.GetStringSlice("chat.models")),
		Timeout:       chatTimeout,
		CostPerToken:  v.GetFloat64("chat.cost_per_token"),
		ReplayDepth:   v.GetInt("chat.history_replay"),
	})
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing chat relay")
	}

	for _, model := range chat.Models() {
		log.Info().Str("model", model.Identifier).Msg("registered upstream model")
	}

	api := handler.NewHTTP(handler.HTTPParams{
		Chat:    chat,
		Stats:   command.NewStats(tracker, history),
		Clear:   command.NewClearHistory(history),
		Models:  command.NewModels(chat, breaker),
		Metrics: m,
		Expose:  m.Handler(),

		MaxBodyBytes: v.GetInt64("server.max_body_bytes"),
	})

	srv := &http.Server{
		Addr:              v.GetString("server.addr"),
		Handler:           api.Router(v.GetStringSlice("server.allowed_origins")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), v.GetDuration("server.shutdown_timeout"))
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// envFilePath prefers a .env next to the binary and falls back to the working directory.
func envFilePath() string {
	exe, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(exe), ".env")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ".env"
}

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dkeye/lvgo/internal/adapters/discord"
	router "github.com/dkeye/lvgo/internal/adapters/http"
	"github.com/dkeye/lvgo/internal/app/orch"
	"github.com/dkeye/lvgo/internal/config"
	"github.com/dkeye/lvgo/internal/storage"
)

const (
	persistInterval = 10 * time.Second
	nodeWaitTimeout = 30 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)
	if cfg.DiscordToken == "" {
		log.Fatal().Msg("discord token is not set")
	}

	// The store gets its own context so it still takes the final save after ctx is done.
	store, err := storage.New(context.Background(), cfg.StoragePath, persistInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}

	shards, err := openShards(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway sessions")
	}
	connector := discord.New(shards)
	o := orch.New(connector, cfg.OrchestratorOptions())
	// Saving before the previous sessions are restored would overwrite them.
	var restored atomic.Bool
	connector.Listen(o, func(userID string) {
		go func() {
			if !bootstrap(ctx, cfg, o, store, userID) {
				return
			}
			restored.Store(true)
			persist(ctx, o, store)
		}()
	})
	for _, s := range shards {
		if err := s.Open(); err != nil {
			log.Fatal().Err(err).Int("shard", s.ShardID).Msg("failed to open gateway session")
		}
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.SetupRouter(cfg, o),
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("admin server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if restored.Load() {
		save(o, store)
	}
	o.Close()
	for _, s := range shards {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Int("shard", s.ShardID).Msg("gateway close failed")
		}
	}
	if err := store.Close(); err != nil {
		log.Warn().Err(err).Msg("storage close failed")
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, keeping info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFile == "" {
		return
	}
	var out io.Writer = zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: os.Stderr},
		&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		},
	)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func openShards(cfg *config.Config) ([]*discordgo.Session, error) {
	shards := make([]*discordgo.Session, 0, cfg.ShardCount)
	for i := range cfg.ShardCount {
		s, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			return nil, err
		}
		s.ShardID = i
		s.ShardCount = cfg.ShardCount
		s.Identify.Intents = discord.Intents
		shards = append(shards, s)
	}
	return shards, nil
}

// bootstrap adds the configured nodes once the bot user is known and brings
// back the sessions saved by the previous run. It reports false when the
// saved sessions are still waiting to be restored.
func bootstrap(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, store *storage.Storage, userID string) bool {
	o.SetUserID(userID)
	for _, opt := range cfg.NodeOptions() {
		if _, err := o.AddNode(ctx, opt); err != nil {
			log.Error().Err(err).Str("node", opt.Name).Msg("failed to add node")
		}
	}

	sessions, err := store.Sessions()
	if err != nil {
		log.Error().Err(err).Msg("failed to read saved sessions")
		return false
	}
	if len(sessions) == 0 {
		return true
	}

	waitCtx, cancel := context.WithTimeout(ctx, nodeWaitTimeout)
	defer cancel()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for o.IdealNode(nil) == nil {
		select {
		case <-waitCtx.Done():
			log.Warn().Int("sessions", len(sessions)).Msg("no node connected, saved sessions not resumed")
			return false
		case <-ticker.C:
		}
	}

	resumed := o.ImportSessions(ctx, sessions, orch.ImportOptions{PreferOriginalNode: true})
	log.Info().Int("saved", len(sessions)).Int("resumed", len(resumed)).Msg("saved sessions imported")
	return true
}

// persist hands the store a fresh snapshot regularly; the store flushes it on
// the same interval, so a hard stop loses little.
func persist(ctx context.Context, o *orch.Orchestrator, store *storage.Storage) {
	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			save(o, store)
		}
	}
}

func save(o *orch.Orchestrator, store *storage.Storage) {
	sessions := o.ExportSessions()
	if err := store.SaveSessions(sessions); err != nil {
		log.Warn().Err(err).Msg("failed to save sessions")
		return
	}
	log.Debug().Int("sessions", len(sessions)).Msg("sessions saved")
}

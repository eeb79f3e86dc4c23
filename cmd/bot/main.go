package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/suvtekin/auto-bot/config"
	"github.com/suvtekin/auto-bot/internal/delivery/telegram"
	"github.com/suvtekin/auto-bot/internal/delivery/webhook"
	"github.com/suvtekin/auto-bot/internal/domain/repository"
	"github.com/suvtekin/auto-bot/internal/infrastructure/messenger"
	"github.com/suvtekin/auto-bot/internal/infrastructure/parser"
	"github.com/suvtekin/auto-bot/internal/infrastructure/storage"
	"github.com/suvtekin/auto-bot/internal/log"
	"github.com/suvtekin/auto-bot/internal/usecase"
)

// catalogStore bitta bazada katalog va buyurtmalar
type catalogStore interface {
	repository.CatalogRepository
	repository.OrderRepository
	io.Closer
}

func main() {
	importPath := flag.String("import", "", "Excel (.xlsx) fayldan e'lonlarni yuklab chiqish")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log.InitLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *importPath); err != nil && !errors.Is(err, context.Canceled) {
		log.GetLogger().WithError(err).Error("bot stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, importPath string) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, closeSessions, err := openSessions(cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	log.AddGlobalField("bot", bot.Self.UserName)

	notifier := messenger.NewTelegramNotifier(bot)
	presenter := usecase.NewPresenter(cfg.PublicBaseURL)

	catalog := usecase.NewCatalogUseCase(store, notifier, presenter, cfg.AdminChatID)
	if err := catalog.Seed(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	admin := usecase.NewAdminUseCase(cfg.AdminChatID, catalog, store, store, parser.NewExcelParser())

	if importPath != "" {
		result, err := admin.ImportCarsFromFile(ctx, importPath)
		if err != nil {
			return err
		}
		log.GetLogger().
			WithField("imported", result.Imported).
			WithField("skipped", result.Skipped).
			Info("excel import finished")
		return nil
	}

	conversation := usecase.NewConversationUseCase(sessions, store, catalog, notifier, presenter, usecase.ConversationConfig{
		AdminChatID:  cfg.AdminChatID,
		ContactPhone: cfg.ContactPhone,
		ContactEmail: cfg.ContactEmail,
	})
	handler := telegram.NewBotHandler(bot, conversation, admin, presenter, notifier)

	if cfg.AdminChatID == 0 {
		log.GetLogger().Warn("ADMIN_CHAT_ID not set, admin notifications disabled")
	}

	switch cfg.Mode {
	case config.ModeWebhook:
		server := webhook.NewServer(ctx, cfg.WebhookPath, handler, admin)
		return server.Run(ctx, cfg.HTTPAddr)
	default:
		return handler.Start(ctx)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (catalogStore, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		store, err := storage.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return store, nil
	}
}

func openSessions(cfg *config.Config) (repository.SessionRepository, func(), error) {
	if cfg.SessionStore != config.SessionRedis {
		return storage.NewMemorySessionRepository(), func() {}, nil
	}

	sessions, err := storage.NewRedisSessionRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return sessions, func() {
		if err := sessions.Close(); err != nil {
			log.GetLogger().WithError(err).Warn("redis close failed")
		}
	}, nil
}

package webhook

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/log"
)

const shutdownTimeout = 5 * time.Second

// UpdateHandler bitta Telegram update ni oxirigacha qayta ishlaydi
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// StatsProvider /status uchun hisoblagichlar
type StatsProvider interface {
	Stats(ctx context.Context) (entity.CatalogStats, error)
}

// Server webhook va health endpointlari
type Server struct {
	app     *fiber.App
	baseCtx context.Context
	updates UpdateHandler
	stats   StatsProvider
}

type statusResponse struct {
	Status          string `json:"status"`
	TotalCars       int    `json:"total_cars"`
	ActiveCars      int    `json:"active_cars"`
	NewOrders       int    `json:"new_orders"`
	NewSellRequests int    `json:"new_sell_requests"`
}

// NewServer yangi HTTP server. ctx update larni qayta ishlashda ishlatiladi.
func NewServer(ctx context.Context, webhookPath string, updates UpdateHandler, stats StatsProvider) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Suvtekin auto bot",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{app: app, baseCtx: ctx, updates: updates, stats: stats}

	app.Post(webhookPath, s.webhook)
	app.Get("/health", s.health)
	app.Get("/status", s.status)

	return s
}

// App fiber ilovasi (testlar uchun)
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serverni ishga tushiradi, ctx tugaganda to'xtatadi
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	log.GetLogger().WithField("addr", addr).Info("http server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	log.GetLogger().Info("http server stopped")
	return ctx.Err()
}

// webhook har doim bir xil javob qaytaradi, natijadan qat'i nazar
func (s *Server) webhook(c fiber.Ctx) error {
	var update tgbotapi.Update
	if err := c.Bind().Body(&update); err != nil {
		log.GetLogger().WithError(err).
			WithField("body_size", len(c.Body())).
			Warn("malformed webhook payload")
		return c.JSON(fiber.Map{"ok": true})
	}

	s.updates.HandleUpdate(s.baseCtx, update)
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) status(c fiber.Ctx) error {
	stats, err := s.stats.Stats(s.baseCtx)
	if err != nil {
		log.GetLogger().WithError(err).Error("status stats failed")
		return fiber.NewError(fiber.StatusServiceUnavailable, "stats unavailable")
	}
	return c.JSON(statusResponse{
		Status:          "ok",
		TotalCars:       stats.TotalCars,
		ActiveCars:      stats.ActiveCars,
		NewOrders:       stats.NewOrders,
		NewSellRequests: stats.NewSellRequests,
	})
}

// errorHandler xatolarni JSON ko'rinishida qaytaradi
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

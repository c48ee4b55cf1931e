package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"crewbox/config"
	"crewbox/gateway"
	"crewbox/handlers/api"
	"crewbox/inbox"
	"crewbox/middleware"
	"crewbox/notes"
	"crewbox/storage"
	"crewbox/utils"
)

func main() {
	utils.Log.Info("Initializing Crewbox...")

	// Load configuration
	cfg, err := config.LoadConfig("config.toml")
	if err != nil {
		utils.Log.Error("Failed to load config: %v", err)
		return
	}
	utils.Log.SetLevel(utils.ParseLogLevel(cfg.Server.LogLevel))

	// Local persistence for notes and notifications
	db, err := storage.InitDB(cfg.Storage.DataDir)
	if err != nil {
		utils.Log.Error("Failed to initialize storage: %v", err)
		return
	}
	defer db.Close()

	httpClient := &http.Client{Timeout: cfg.GatewayTimeout()}
	memCache := utils.NewMemoryCache()
	defer memCache.Close()

	// External collaborators
	mailGateway := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, httpClient, utils.Log)
	directory := gateway.NewDirectoryClient(cfg.Directory.BaseURL, httpClient, memCache, cfg.DirectoryCacheTTL(), utils.Log)

	// Core engines
	store := inbox.NewStore()
	pageCache := inbox.NewPageCache(store, mailGateway, cfg.Sync.PageSize, cfg.PollInterval(), utils.Log)
	engine := inbox.NewEngine(store, mailGateway, cfg.GatewayTimeout(), utils.Log)
	catalog := inbox.NewCatalog(mailGateway, memCache, cfg.DirectoryCacheTTL(), utils.Log)

	// Push hub: every store change reaches connected clients
	hub := api.NewEventHub(utils.Log)
	store.OnChange(hub.NotifyRecordUpdate)

	noteStorage := storage.NewNoteStorage(db)
	notificationStorage := storage.NewNotificationStorage(db)
	noteService := notes.NewService(noteStorage, notificationStorage, directory, hub.NotifyMention, utils.Log)

	// Background revalidation (stale-while-revalidate)
	pageCache.Start()
	defer pageCache.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			if appErr, ok := err.(*utils.AppError); ok {
				code = appErr.Code
				utils.Log.Error("Application error: %v", appErr)
			} else if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	// Add global middleware
	app.Use(recover.New())  // Recover from panics
	app.Use(logger.New())   // Request logging
	app.Use(compress.New()) // Response compression
	app.Use(helmet.New(helmet.Config{ // Security headers
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "no-referrer",
	}))

	// Rate limiting (100 requests per minute per IP)
	app.Use(middleware.RateLimiter(100, time.Minute))

	// Initialize handlers
	inboxHandler := api.NewInboxHandler(store, pageCache, catalog, mailGateway, utils.Log)
	mutateHandler := api.NewMutateHandler(engine, utils.Log)
	labelHandler := api.NewLabelHandler(catalog, utils.Log)
	noteHandler := api.NewNoteHandler(noteService, utils.Log)
	accountHandler := api.NewAccountHandler(mailGateway, utils.Log)
	sendHandler := api.NewSendHandler(mailGateway, utils.Log)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Protected routes group
	protected := app.Group("", middleware.JWTAuth(cfg.Auth.JWTSecret))

	apiRoutes := protected.Group("/api")
	{
		// Inbox listing
		apiRoutes.Get("/inbox", inboxHandler.HandleThreads)
		apiRoutes.Get("/inbox/emails", inboxHandler.HandleEmails)
		apiRoutes.Post("/inbox/more", inboxHandler.HandleLoadMore)
		apiRoutes.Post("/inbox/refresh", inboxHandler.HandleRefresh)

		// Record detail and mutations
		apiRoutes.Get("/email/:id", inboxHandler.HandleEmailDetail)
		apiRoutes.Put("/email/:id/read", mutateHandler.HandleSetRead)
		apiRoutes.Put("/email/:id/star", mutateHandler.HandleSetStarred)
		apiRoutes.Put("/email/:id/labels", mutateHandler.HandleUpdateLabels)
		apiRoutes.Put("/email/:id/metadata", mutateHandler.HandleUpdateMetadata)
		apiRoutes.Post("/email/:id/retry", mutateHandler.HandleRetry)

		// Composition
		apiRoutes.Post("/send", sendHandler.HandleSend)
		apiRoutes.Post("/email/:id/reply", sendHandler.HandleReply)
		apiRoutes.Post("/email/:id/forward", sendHandler.HandleForward)

		// Labels
		apiRoutes.Get("/labels", labelHandler.HandleListLabels)
		apiRoutes.Post("/labels", labelHandler.HandleCreateLabel)

		// Notes and mention notifications
		apiRoutes.Get("/email/:id/notes", noteHandler.HandleListNotes)
		apiRoutes.Post("/email/:id/notes", noteHandler.HandleCreateNote)
		apiRoutes.Delete("/email/:id/notes/:noteId", noteHandler.HandleDeleteNote)
		apiRoutes.Get("/notifications", noteHandler.HandleListNotifications)
		apiRoutes.Post("/notifications/:id/seen", noteHandler.HandleMarkNotificationSeen)

		// Connected accounts
		apiRoutes.Get("/accounts", accountHandler.HandleListAccounts)
		apiRoutes.Post("/accounts/disconnect", accountHandler.HandleDisconnectAccount)

		// Event streams
		apiRoutes.Get("/events", hub.HandleSSE)
	}

	// WebSocket event stream
	protected.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	protected.Get("/ws/events", websocket.New(hub.HandleWebSocket))

	// 404 handler for undefined routes
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"error":   "Not found",
		})
	})

	// Start server
	utils.Log.Info("Starting server on port %d...", cfg.Server.Port)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		utils.Log.Error("Error starting server: %v", err)
	}
}

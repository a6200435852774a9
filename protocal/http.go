package protocal

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/JoaoVlLeao/wpp-gemini-bot/configs"
	httpAdapter "github.com/JoaoVlLeao/wpp-gemini-bot/internal/adapters/input/http"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/adapters/output/gemini"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/adapters/output/memory"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/adapters/output/postgres"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/adapters/output/shopify"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/adapters/output/whatsapp"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/application"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/output"
	gormDriver "github.com/JoaoVlLeao/wpp-gemini-bot/pkg/database_driver/gorm"

	swagger "github.com/arsmn/fiber-swagger/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	gormDB "gorm.io/gorm"
)

// Session tuning defaults, matching the production bot
const (
	defaultIdleTimeoutMin = 25
	defaultMaxTurns       = 12
	defaultFirstWindowSec = 25
	defaultNextWindowSec  = 10
	defaultSweepEveryMin  = 10
	defaultAgentName      = "Fernanda"
	defaultStoreName      = "AquaFit Brasil"
)

type config struct {
	ENV string `mapstructure:"env"`
}

// ServeHTTP func
func ServeHTTP() error {
	app := fiber.New()
	var cfg config
	flag.StringVar(&cfg.ENV, "env", "", "the environment to use")
	flag.Parse()
	configs.InitViper("./configs", cfg.ENV)
	logrus.Info(configs.GetViper().Env)
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept,Authorization",
	}))

	// Optional transcript database; the bot runs memory-only without it.
	var (
		db         *gormDB.DB
		transcript output.TranscriptRepository
	)
	if configs.GetViper().Postgres.Host != "" {
		dbConGorm, err := gormDriver.ConnectToPostgreSQL(
			configs.GetViper().Postgres.Host,
			configs.GetViper().Postgres.Port,
			configs.GetViper().Postgres.Username,
			configs.GetViper().Postgres.Password,
			configs.GetViper().Postgres.DbName,
			configs.GetViper().Postgres.SSLMode,
		)
		if err != nil {
			return err
		}
		db = dbConGorm.Postgres
		transcript = postgres.NewTranscriptRepository(db)
	} else {
		logrus.Info("Postgres not configured, keeping transcripts in memory")
		transcript = memory.NewTranscriptLog(0)
	}

	// Output adapters
	waClient, err := whatsapp.NewWhatsAppClientAdapter(configs.GetViper().WhatsApp)
	if err != nil {
		logrus.Fatalf("Failed to create WhatsApp client: %v", err)
	}
	geminiClient, err := gemini.NewGeminiClientAdapter(configs.GetViper().Gemini)
	if err != nil {
		logrus.Fatalf("Failed to create Gemini client: %v", err)
	}
	shopifyClient, err := shopify.NewShopifyClientAdapter(configs.GetViper().Shopify)
	if err != nil {
		logrus.Fatalf("Failed to create Shopify client: %v", err)
	}

	sessionCfg := configs.GetViper().Session
	maxTurns := sessionCfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	idleTimeout := sessionCfg.Timeout
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeoutMin
	}
	firstWindow := sessionCfg.FirstWindow
	if firstWindow <= 0 {
		firstWindow = defaultFirstWindowSec
	}
	nextWindow := sessionCfg.NextWindow
	if nextWindow <= 0 {
		nextWindow = defaultNextWindowSec
	}
	sweepEvery := sessionCfg.SweepInterval
	if sweepEvery <= 0 {
		sweepEvery = defaultSweepEveryMin
	}

	agentCfg := configs.GetViper().Agent
	agentName := agentCfg.Name
	if agentName == "" {
		agentName = defaultAgentName
	}
	storeName := agentCfg.StoreName
	if storeName == "" {
		storeName = defaultStoreName
	}

	// Application service (support-chat use case)
	sessionStore := memory.NewSessionStore(maxTurns)
	composer := application.NewComposer(geminiClient, agentName, storeName, agentCfg.SystemPrompt)
	chatSrv := application.NewChatService(
		waClient,
		shopifyClient,
		sessionStore,
		transcript,
		composer,
		application.Settings{
			FirstWindow: time.Duration(firstWindow) * time.Second,
			NextWindow:  time.Duration(nextWindow) * time.Second,
		},
	)

	// Idle-session reaper on a fixed recurring interval
	reaper := cron.New()
	_, err = reaper.AddFunc(fmt.Sprintf("@every %dm", sweepEvery), func() {
		reaped := sessionStore.Sweep(time.Duration(idleTimeout) * time.Minute)
		if reaped > 0 {
			logrus.Infof("Session sweep reaped %d idle session(s)", reaped)
		}
	})
	if err != nil {
		logrus.Fatalf("Failed to schedule session sweep: %v", err)
	}
	reaper.Start()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		for range c {
			log.Println("Gracefull shut down ...")
			reaper.Stop()
			if db != nil {
				gormDriver.DisconnectPostgres(db)
			}
			err := app.Shutdown()
			if err != nil {
				log.Println("Error when shutdown server: ", err)
			}
		}
	}()

	// Input adapters (HTTP handlers)
	hdl := httpAdapter.New(db)
	webhookHdl := httpAdapter.NewWebhookHandler(chatSrv, configs.GetViper().WhatsApp.VerifyToken)

	app.Get("/swagger/*", swagger.HandlerDefault) // default
	app.Get("/", hdl.KeepAlive)
	app.Get("/health", hdl.HealthCheck)

	// WhatsApp webhook endpoints
	webhook := app.Group("/webhook")
	{
		webhook.Get("/whatsapp", webhookHdl.VerifyWebhook)
		webhook.Post("/whatsapp", webhookHdl.HandleWebhook)
	}

	err = app.Listen(":" + configs.GetViper().App.Port)
	if err != nil {
		return err
	}

	logrus.Println("Listerning on port: ", configs.GetViper().App.Port)
	return nil
}

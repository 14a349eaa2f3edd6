package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/jimsandwick99/videocall/internal/acquire"
	"github.com/jimsandwick99/videocall/internal/cleanup"
	"github.com/jimsandwick99/videocall/internal/config"
	"github.com/jimsandwick99/videocall/internal/handlers"
	"github.com/jimsandwick99/videocall/internal/provider"
	"github.com/jimsandwick99/videocall/internal/queue"
	"github.com/jimsandwick99/videocall/internal/registry"
	sig "github.com/jimsandwick99/videocall/internal/signal"
	"github.com/jimsandwick99/videocall/internal/storage"
	"github.com/jimsandwick99/videocall/internal/transcription"
)

func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cleanup.EnsureTempDirExists(cfg.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.RecordingsDir, 0755); err != nil {
		log.Fatalf("Failed to create recordings directory: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{lines: make([]string, 0, 1000)}
	log.SetOutput(io.MultiWriter(os.Stdout, logBuffer))

	log.Println("Initializing components...")

	// Signaling hub: always on, works without any provider credentials.
	hub := sig.NewHub()
	signalHandler := sig.NewHandler(hub)

	// Recording provider (optional - endpoints degrade when not configured)
	var (
		providerClient provider.Client
		reg            *registry.Registry
		pipeline       *acquire.Pipeline
	)
	if cfg.Recording.BaseURL != "" && cfg.Recording.APIKey != "" {
		providerClient = provider.NewRESTClient(cfg.Recording.BaseURL, cfg.Recording.APIKey, cfg.Recording.APISecret)
		reg = registry.New(providerClient)
		pipeline = acquire.New(providerClient, cfg.Storage.RecordingsDir,
			cfg.Recording.ListRetries, time.Duration(cfg.Recording.ListDelaySeconds)*time.Second)
		log.Println("Recording provider configured")
	} else {
		log.Println("Recording credentials not set - recording endpoints disabled, signaling still available")
	}

	// Speech recognizer (optional)
	var recognizer transcription.Recognizer
	switch cfg.Whisper.Mode {
	case "api":
		if cfg.Whisper.APIKey != "" {
			recognizer = transcription.NewWhisperAPI(cfg.Whisper.APIKey, cfg.Whisper.APIURL, cfg.Whisper.Model)
			log.Println("Using hosted Whisper API")
		} else {
			log.Println("WHISPER_API_KEY not set - transcription disabled")
		}
	case "local":
		recognizer = transcription.NewWhisperLocal(cfg.Whisper.Model, cfg.Storage.TempDir)
	default:
		log.Printf("Unknown whisper mode %q - transcription disabled", cfg.Whisper.Mode)
	}

	// Local storage
	localStorage := storage.NewLocalStorage(cfg.Storage.RecordingsDir)

	// Google Drive client (optional - may fail if credentials not set up)
	var driveClient *storage.DriveClient
	if _, err := os.Stat(cfg.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(
			cfg.GoogleDrive.CredentialsFile,
			cfg.GoogleDrive.TokenFile,
			cfg.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Transcripts will only be saved locally")
			driveClient = nil
		} else {
			log.Println("Google Drive integration enabled")
		}
	} else {
		log.Println("Google Drive credentials not found - saving locally only")
	}

	// Database
	db, err := storage.NewMetadataDB(cfg.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Worker pool for background transcription
	var workerPool *queue.WorkerPool
	if recognizer != nil {
		engine := transcription.NewEngine(recognizer, cfg.Storage.TempDir)
		workerPool = queue.NewWorkerPool(
			cfg.Workers.Count,
			engine,
			cfg.Diarization.SilenceThreshold,
			localStorage,
			driveClient,
			db,
		)
		workerPool.Start()
	}

	// Cleanup scheduler
	roomTTL := time.Duration(cfg.Rooms.TTLMinutes) * time.Minute
	cleanupScheduler := cleanup.NewScheduler(
		cfg.Storage.TempDir,
		cfg.Cleanup.IntervalMinutes,
		cfg.Cleanup.MaxAgeHours,
		hub,
		roomTTL,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	roomsHandler := handlers.NewRoomsHandler(hub, cfg.Rooms.JoinURL)
	recordingHandler := handlers.NewRecordingHandler(reg, providerClient, pipeline, workerPool)
	transcriptHandler := handlers.NewTranscriptHandler(localStorage)
	webhookHandler := handlers.NewWebhookHandler()

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/rooms", roomsHandler.Create)
	app.Get("/ws/signal/:roomId", websocket.New(signalHandler.Handle))

	app.Post("/recording/start", recordingHandler.Start)
	app.Post("/recording/stop", recordingHandler.Stop)
	app.Post("/recording/download", recordingHandler.Download)
	app.Get("/recording/status/:roomId", recordingHandler.Status)

	app.Get("/transcript/:roomId", transcriptHandler.Get)
	app.Post("/webhooks/recording", webhookHandler.Handle)

	// Get transcript metadata
	app.Get("/transcripts", func(c *fiber.Ctx) error {
		limit := 50 // Default limit
		transcripts, err := db.ListTranscripts(limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(transcripts)
	})

	app.Get("/transcripts/:roomId", func(c *fiber.Ctx) error {
		meta, err := db.GetTranscript(c.Params("roomId"))
		if err != nil {
			return c.Status(404).JSON(fiber.Map{
				"error": "No transcript recorded for this room",
				"code":  "ERR_TRANSCRIPT_NOT_FOUND",
			})
		}
		return c.JSON(meta)
	})

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"logs": logBuffer.GetLogs()})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /rooms                      - Create a call room")
	log.Println("   GET  /ws/signal/:roomId          - Signaling websocket")
	log.Println("   POST /recording/start            - Start/join recording session")
	log.Println("   POST /recording/stop             - Stop, download, transcribe")
	log.Println("   POST /recording/download         - Manual download re-trigger")
	log.Println("   GET  /recording/status/:roomId   - Recording status")
	log.Println("   GET  /transcript/:roomId         - Rendered transcript")
	log.Println("   POST /webhooks/recording         - Vendor status callbacks")
	log.Println("   GET  /transcripts                - List produced transcripts")
	log.Println("   GET  /transcripts/:roomId        - Transcript metadata for a room")
	log.Println("   GET  /health                     - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}
	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

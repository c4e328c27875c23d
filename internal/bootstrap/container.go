package bootstrap

import (
	"log"

	"clarity-cbt-be/internal/config"
	"clarity-cbt-be/internal/controller"
	"clarity-cbt-be/internal/pkg/logger"
	"clarity-cbt-be/internal/pkg/mailer"
	"clarity-cbt-be/internal/repository/contract"
	"clarity-cbt-be/internal/repository/implementation"
	"clarity-cbt-be/internal/repository/memory"
	"clarity-cbt-be/internal/service"
	"clarity-cbt-be/internal/websocket"
	"clarity-cbt-be/pkg/embedding"
	"clarity-cbt-be/pkg/events"
	"clarity-cbt-be/pkg/foundry"
	"clarity-cbt-be/pkg/llm/factory"
	pkgNats "clarity-cbt-be/pkg/nats"
	"clarity-cbt-be/pkg/oracle"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	WorkflowController controller.IWorkflowController

	// Background services (exposed for main.go to run)
	IndexerService  service.IIndexerService
	NotifierService service.INotifierService

	// WebSockets
	WebSocketHub *websocket.Hub

	// Shared infrastructure, kept for shutdown
	Bus     *events.Bus
	NatsPub *pkgNats.Publisher
	Logger  logger.ILogger
}

// NewContainer wires the whole dependency graph. db may be nil; the
// service then runs entirely on in-memory storage.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Embedding provider
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// LLM provider and the structured gateway over it
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFaceAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	gateway := oracle.NewGateway(llmProvider)

	// Storage: Postgres when a connection is configured, in-memory
	// otherwise
	var sessionRepo contract.SessionRepository
	var indexRepo contract.ExerciseIndexRepository
	if db != nil {
		sessionRepo = implementation.NewSessionRepository(db)
	} else {
		sessionRepo = memory.NewSessionRepository()
		log.Println("[INFO] Sessions: in-memory store")
	}

	if db != nil && cfg.Ai.IndexBackend == "pgvector" {
		indexRepo = implementation.NewExerciseIndexRepository(db, embeddingProvider)
		log.Println("[INFO] Exercise index: pgvector")
	} else {
		chromemRepo, err := memory.NewExerciseIndexRepository(cfg.Ai.ChromemPath, embeddingProvider)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize chromem index: %v", err)
		}
		indexRepo = chromemRepo
		log.Println("[INFO] Exercise index: chromem")
	}

	// Event bus
	bus := events.NewBus()

	// Workflow engine
	engine := foundry.NewEngine(sessionRepo, indexRepo, gateway, bus, sysLogger)

	// Redis (optional, cluster fanout for websocket observers)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Invalid REDIS_URL, websocket fanout is local only: %v", err)
		} else {
			rdb = redis.NewClient(opt)
		}
	}

	// WebSocket hub
	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run()

	// NATS (optional)
	var natsPub *pkgNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pkgNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
	}

	// Email (optional)
	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
		)
	}

	// Background consumers
	indexerService := service.NewIndexerService(bus, indexRepo, sysLogger)
	notifierService := service.NewNotifierService(bus, wsHub, natsPub, emailService, cfg.Review.ClinicianEmail, sysLogger)

	// Controllers
	workflowController := controller.NewWorkflowController(engine, wsHub, sysLogger)

	return &Container{
		WorkflowController: workflowController,
		IndexerService:     indexerService,
		NotifierService:    notifierService,
		WebSocketHub:       wsHub,
		Bus:                bus,
		NatsPub:            natsPub,
		Logger:             sysLogger,
	}
}

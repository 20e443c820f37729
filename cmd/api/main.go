// @title           DocChat API
// @version         1.0
// @description     Asynchronous retrieval-augmented chat over ingested documents.

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/data/history"
	"github.com/docchat-ai/docchat/internal/data/store"
	jobmodel "github.com/docchat-ai/docchat/internal/domain/jobModel"
	"github.com/docchat-ai/docchat/internal/handlers"
	"github.com/docchat-ai/docchat/internal/job"
	"github.com/docchat-ai/docchat/internal/mcpserver"
	"github.com/docchat-ai/docchat/internal/rag"
	"github.com/docchat-ai/docchat/internal/rag/embedding"
	"github.com/docchat-ai/docchat/internal/rag/embedding/ollamaEmbedding"
	"github.com/docchat-ai/docchat/internal/rag/embedding/openaiEmbedding"
	"github.com/docchat-ai/docchat/internal/rag/llm"
	"github.com/docchat-ai/docchat/internal/rag/llm/gemini"
	"github.com/docchat-ai/docchat/internal/rag/llm/ollamaChat"
	"github.com/docchat-ai/docchat/internal/rag/vectorstore"
	"github.com/docchat-ai/docchat/internal/rag/vectorstore/qdrantDB"
	"github.com/docchat-ai/docchat/internal/rag/vectorstore/sqliteVec"
	"github.com/docchat-ai/docchat/internal/server"
	"github.com/docchat-ai/docchat/internal/worker"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

var (
	listenAddr        string
	configPath        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//.env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	appConfig, err := config.LoadAppConfig(configPath)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		return
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStoreBackend(serviceContext, logger),
		MessageStore:      messageStoreBackend(serviceContext, appConfig, logger),
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	vectorStore := vectorStoreBackend(appConfig, logger)
	embeddingService := embedderBackend(appConfig, logger)
	llmProvider := llmBackend(serviceContext, appConfig, logger)

	if vectorStore == nil || embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services", "VectorStore", vectorStore != nil, "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}
	defer vectorStore.Close()

	ragService := rag.NewService(vectorStore, llmProvider, embeddingService, rag.Options{
		ChunkSize: appConfig.Splitter.ChunkSize,
		Overlap:   appConfig.Splitter.Overlap,
		TopK:      appConfig.ChatConfig.RetrievedDocuments,
	})

	handlers.InitJobHandler(service)

	//init worker pool
	worker.InitServices(service, ragService, appConfig.ChatConfig.ChatMemoryLength)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	if appConfig.MCP.Enabled {
		mcpSrv := mcpserver.NewServer(ragService)
		go func() {
			if err := mcpSrv.RunHTTP(serviceContext, appConfig.MCP.ListenAddr); err != nil {
				logger.Error("MCP server stopped", "error", err)
			}
		}()
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func jobStoreBackend(ctx context.Context, logger *logger_i.Logger) jobmodel.JobStore {
	if redisStore := store.GetRedisJobStore(ctx); redisStore != nil {
		return redisStore
	}
	logger.Warn("Redis job store is offline, using in-memory store")
	return store.InitInMemoryJobStore()
}

func messageStoreBackend(ctx context.Context, cfg *config.AppConfig, logger *logger_i.Logger) jobmodel.MessageStore {
	switch cfg.History.Backend {
	case "redis":
		if redisStore := store.GetRedisMessageStore(ctx); redisStore != nil {
			return redisStore
		}
		logger.Warn("Redis message store is offline, using in-memory store")
		return store.InitMessageStore()
	default:
		sqliteStore, err := history.NewSQLiteMessageStore(cfg.History.Path)
		if err != nil {
			logger.Error("Could not open chat history store, using in-memory store", "error", err)
			return store.InitMessageStore()
		}
		return sqliteStore
	}
}

func vectorStoreBackend(cfg *config.AppConfig, logger *logger_i.Logger) vectorstore.Store {
	switch cfg.VectorStore.Backend {
	case "qdrant":
		s, err := qdrantDB.Open(config.QdrantHost, config.QdrantGrpcPort, cfg.VectorStore.Collection, cfg.Embedder.Dimension)
		if err != nil {
			logger.Error("Could not open qdrant store", "error", err)
			return nil
		}
		return s
	default:
		s, err := sqliteVec.Open(cfg.VectorStore.Path, cfg.Embedder.Model, cfg.Embedder.Dimension)
		if err != nil {
			logger.Error("Could not open vector store", "error", err)
			return nil
		}
		return s
	}
}

func embedderBackend(cfg *config.AppConfig, logger *logger_i.Logger) embedding.Embedder {
	switch cfg.Embedder.Backend {
	case "openai":
		return openaiEmbedding.GetOpenAIEmbeddingClient(os.Getenv(cfg.Embedder.APIKeyEnv), cfg.Embedder.Model)
	default:
		return ollamaEmbedding.GetOllamaEmbeddingClient(cfg.Embedder.BaseURL, cfg.Embedder.Model)
	}
}

func llmBackend(ctx context.Context, cfg *config.AppConfig, logger *logger_i.Logger) llm.Provider {
	switch cfg.LLM.Backend {
	case "gemini":
		return gemini.GetGeminiClient(ctx, cfg.LLM.Model, os.Getenv(cfg.LLM.APIKeyEnv))
	default:
		return ollamaChat.GetOllamaChatClient(cfg.LLM.BaseURL, cfg.LLM.Model)
	}
}

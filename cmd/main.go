package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tutor-rag/internal/config"
	"tutor-rag/internal/embedding"
	"tutor-rag/internal/helper"
	"tutor-rag/internal/llmservice"
	"tutor-rag/internal/processor"
	"tutor-rag/internal/rag"
	"tutor-rag/internal/session"
)

const configFilePath = "./configs/config.yaml"

func main() {
	_ = godotenv.Load()

	filePath := flag.String("file", "", "Path to a PDF or image to ingest")
	query := flag.String("query", "", "Question to ask against a session")
	sessionID := flag.String("session", "", "Session ID returned by a previous upload")
	topK := flag.Int("top-k", 0, "Number of chunks to retrieve (0 = default)")
	info := flag.Bool("info", false, "Print session info")
	del := flag.Bool("delete", false, "Delete the session")
	flag.Parse()

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	embedder, err := embedding.NewService(&cfg.EmbedLLM, cfg.RAG.EmbeddingDimension)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	generator, err := llmservice.NewClient(&cfg.GenLLM, cfg.RAG.MaxConcurrentCalls)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generation client")
	}

	store := session.NewStore(cfg.SessionTTL(), cfg.SweepInterval())
	store.Start()
	defer store.Stop()

	proc := processor.NewProcessor(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	orchestrator := rag.New(cfg, store, embedder, generator, proc)

	ctx := context.Background()

	switch {
	case *filePath != "":
		ingestFile(ctx, orchestrator, *filePath, *query, *topK)
	case *info && *sessionID != "":
		printInfo(orchestrator, *sessionID)
	case *del && *sessionID != "":
		deleted := orchestrator.DeleteSession(*sessionID)
		fmt.Printf("deleted: %t\n", deleted)
	case *query != "" && *sessionID != "":
		runQuery(ctx, orchestrator, *sessionID, *query, *topK)
	default:
		log.Fatal().Msg("Provide -file to ingest a document, or -session with -query/-info/-delete")
	}
}

func ingestFile(ctx context.Context, orchestrator *rag.RAG, path, query string, topK int) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading file")
	}

	id, err := orchestrator.ProcessUpload(ctx, data, "")
	if err != nil {
		log.Fatal().Err(err).Msg("Error processing upload")
	}

	fmt.Printf("session: %s\n", id)

	if query != "" {
		runQuery(ctx, orchestrator, id, query, topK)
	}
}

func runQuery(ctx context.Context, orchestrator *rag.RAG, sessionID, query string, topK int) {
	result, err := orchestrator.Query(ctx, sessionID, query, topK)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	if result.Reply == nil && result.Metadata.FallbackToGeneral {
		fmt.Println("Question is not about the uploaded document; route it to a general assistant.")
		return
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	helper.PrettyPrint(result.Citations)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", *result.Reply)
}

func printInfo(orchestrator *rag.RAG, sessionID string) {
	info, err := orchestrator.SessionInfo(sessionID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error fetching session info")
	}
	helper.PrettyPrint(info)
}

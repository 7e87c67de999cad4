// Command teamserver runs the team orchestration service: the gin/SSE
// HTTP surface, the chat dispatcher, and the team orchestrator, backed
// by Postgres.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/api"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/chat"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/cleanup"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/config"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/convstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/dbstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/kb"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/orchestration"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/teamspec"

	"github.com/gin-gonic/gin"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("could not load %s: %v (continuing with existing environment)", envPath, err)
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	gin.SetMode(getEnv("GIN_MODE", cfg.Server.GinMode))

	dbClient, err := dbstore.NewClient(ctx, dbstore.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    int32(cfg.Database.MaxOpenConns),
		MaxIdleConns:    int32(cfg.Database.MaxIdleConns),
		ConnMaxLifetime: int64(cfg.Database.ConnMaxLifetime.Seconds()),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	log.Println("connected to PostgreSQL, migrations applied")

	llm := provider.NewDevProvider()

	conversations := convstore.NewStore(dbClient.Pool)
	messages := conversations
	kbStore := kb.NewStore(dbClient.Pool, llm, cfg.KB.ChunkSize, cfg.KB.ChunkOverlap, cfg.KB.DefaultTopK, cfg.KB.MaxTopK)
	states := orchestration.NewStateStore(dbClient.Pool)
	orch := orchestration.NewOrchestrator(states, llm, llm)

	activation, err := regexp.Compile(cfg.Team.ActivationPattern)
	if err != nil {
		log.Fatalf("invalid team activation pattern: %v", err)
	}

	dispatcher := chat.NewDispatcher(conversations, messages, orch, llm, llm, llm, chat.Config{
		ActivationPattern:   activation,
		CoordinatorName:     cfg.Agents.CoordinatorName,
		CoordinatorProvider: cfg.Agents.CoordinatorProvider,
		CoordinatorModel:    cfg.Agents.CoordinatorModel,
		RoleDefaults: teamspec.RoleDefaults{
			LeadProvider:       cfg.Agents.LeadProvider,
			LeadModel:          cfg.Agents.LeadModel,
			SpecialistProvider: cfg.Agents.SpecialistProvider,
			SpecialistModel:    cfg.Agents.SpecialistModel,
			QAProvider:         cfg.Agents.QAProvider,
			QAModel:            cfg.Agents.QAModel,
		},
		ExtractorModel:         cfg.Agents.ExtractorModel,
		ExtractionMaxChars:     cfg.Team.ExtractionMaxChars,
		MaxToolLoopTurns:       cfg.Limits.MaxToolLoopTurns,
		ConfirmationGraceDelay: cfg.Team.ConfirmationGraceDelay,
		FileAnalysisMaxChars:   cfg.Team.FileAnalysisMaxChars,
		FileTriggeredRoleCap:   cfg.Team.FileTriggeredRoleCap,
		BackgroundTimeout:      cfg.Team.BackgroundTimeout,
	})
	dispatcher.KB = kbStore

	retention := cleanup.NewService(cleanup.Config{
		StateRetention: cfg.Retention.StateRetention,
		Interval:       cfg.Retention.Interval,
	}, states)
	retention.Start(ctx)
	defer retention.Stop()

	server := api.NewServer(cfg)
	server.SetDispatcher(dispatcher)
	if err := server.ValidateWiring(); err != nil {
		log.Fatalf("server wiring incomplete: %v", err)
	}

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":" + getEnv("HTTP_PORT", "8080")
	}

	slog.Info("starting team orchestration server", "addr", addr)
	if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server exited: %v", err)
	}
}

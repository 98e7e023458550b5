package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/ahlec/Phil-sub000/internal/api"
	"github.com/ahlec/Phil-sub000/internal/biz"
	"github.com/ahlec/Phil-sub000/internal/biz/usecase"
	"github.com/ahlec/Phil-sub000/internal/conf"
	"github.com/ahlec/Phil-sub000/internal/data"
	"github.com/ahlec/Phil-sub000/internal/infra/feishu"
	"github.com/ahlec/Phil-sub000/internal/infra/openai"
	"github.com/ahlec/Phil-sub000/internal/server"
	"github.com/ahlec/Phil-sub000/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize clients
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}
	if cfg.Debug {
		session.LogLevel = discordgo.LogInformational
	}

	var feishuClient *feishu.Client
	if cfg.Feishu.Enabled() {
		feishuClient = feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
		fmt.Println("[Bot] Feishu operator alerts enabled")
	}

	var screenClient *openai.Client
	if cfg.Screen.APIKey != "" {
		screenClient = openai.NewClient(cfg.Screen.APIKey, cfg.Screen.BaseURL, cfg.Screen.Model)
		fmt.Println("[Bot] Submission screening enabled")
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(session, feishuClient, screenClient, cfg.ToDataOptions())
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	fmt.Printf("[Bot] Database: %s\n", cfg.Storage.DBPath)
	fmt.Printf("[Bot] Reactable store: %s\n", cfg.Storage.ReactablePath)

	// Initialize usecase layer
	bucketUC := usecase.NewBucketUsecase(repos.Bucket, repos.Community)
	promptUC := usecase.NewPromptUsecase(repos.Prompt, repos.Message, bucketUC)
	sessionUC := usecase.NewSessionUsecase(repos.Session, repos.Bucket, repos.Prompt, repos.Community, repos.Screen, cfg.ToSessionConfig())
	reactableUC := usecase.NewReactableUsecase(repos.Reactable, repos.Message, repos.Bucket, promptUC, sessionUC, cfg.Prompts.QueuePageSize)
	confirmUC := usecase.NewConfirmationUsecase(repos.Confirmation, repos.Prompt, repos.Bucket, promptUC, cfg.Prompts.UnconfirmedLimit)
	lowQueueUC := usecase.NewLowQueueUsecase(repos.Bucket, repos.Prompt, repos.Settings, repos.Message, bucketUC,
		cfg.Prompts.LowQueueThreshold, service.DefaultAdminQuietPeriod)
	communityUC := usecase.NewCommunityUsecase(repos.Settings, repos.Chrono)

	uc := &biz.Usecases{
		Buckets:       bucketUC,
		Prompts:       promptUC,
		Confirmations: confirmUC,
		Sessions:      sessionUC,
		Reactables:    reactableUC,
		LowQueue:      lowQueueUC,
		Community:     communityUC,
	}

	// Initialize service layer
	chronos := service.NewChronoManager(repos.Chrono, repos.Community, repos.Alert, cfg.Bot.ChronoDefinitions(), nil)
	service.RegisterChronoTasks(chronos, service.ChronoTasks{
		Prompts:    promptUC,
		LowQueue:   lowQueueUC,
		Sessions:   sessionUC,
		Reactables: reactableUC,
	})

	// Initialize local operator API
	var apiServer *api.Server
	if cfg.APIPort > 0 {
		apiServer = api.NewServer(bucketUC, chronos, sessionUC, reactableUC, cfg.APIPort)
		go func() {
			if err := apiServer.Start(); err != nil {
				fmt.Printf("[Bot] API server error: %v\n", err)
			}
		}()
	}

	// Initialize server
	srv := server.NewDiscordServer(session, cfg.Discord.CommandPrefix, uc, repos.Message, repos.Community, repos.Alert, chronos)

	fmt.Printf("Starting prompt bot (prefix %q)...\n", cfg.Discord.CommandPrefix)
	if err := srv.Start(); err != nil {
		repos.Close()
		log.Fatalf("Server error: %v", err)
	}

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	if apiServer != nil {
		apiServer.Stop()
	}
	srv.Stop()
	if err := repos.Close(); err != nil {
		fmt.Printf("[Bot] Failed to close storage: %v\n", err)
	}
}

package data

import (
	"database/sql"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/ahlec/Phil-sub000/internal/biz/repo"
	"github.com/ahlec/Phil-sub000/internal/infra/feishu"
	"github.com/ahlec/Phil-sub000/internal/infra/openai"
)

// Options carries what the repositories need beyond the clients
type Options struct {
	DBPath          string
	ReactablePath   string
	OperatorChannel string
	FeishuChatID    string
	ScreenPrompt    string
}

// Repositories contains all repositories
type Repositories struct {
	DB           *sql.DB
	Bucket       repo.BucketRepo
	Prompt       repo.PromptRepo
	Session      repo.SessionRepo
	Confirmation repo.ConfirmationRepo
	Chrono       repo.ChronoRepo
	Settings     repo.SettingsRepo
	Reactable    repo.ReactableRepo
	Message      repo.MessageRepo
	Community    repo.CommunityRepo
	Alert        repo.AlertRepo
	Screen       repo.ScreenRepo
}

// NewRepositories creates all repositories. feishuClient and openaiClient may be nil.
func NewRepositories(
	session *discordgo.Session,
	feishuClient *feishu.Client,
	openaiClient *openai.Client,
	opts Options,
) (*Repositories, error) {
	db, err := OpenDB(opts.DBPath)
	if err != nil {
		return nil, err
	}

	reactableRepo, err := NewReactableRepo(opts.ReactablePath)
	if err != nil {
		db.Close()
		return nil, err
	}

	messageRepo := NewDiscordMessageRepo(session)
	return &Repositories{
		DB:           db,
		Bucket:       NewBucketRepo(db),
		Prompt:       NewPromptRepo(db),
		Session:      NewSessionRepo(db),
		Confirmation: NewConfirmationRepo(db),
		Chrono:       NewChronoRepo(db),
		Settings:     NewSettingsRepo(db),
		Reactable:    reactableRepo,
		Message:      messageRepo,
		Community:    NewDiscordCommunityRepo(session),
		Alert:        NewAlertRepo(messageRepo, opts.OperatorChannel, feishuClient, opts.FeishuChatID),
		Screen:       NewScreenRepo(openaiClient, opts.ScreenPrompt),
	}, nil
}

// Close closes both stores
func (r *Repositories) Close() error {
	var firstErr error
	if err := r.Reactable.Close(); err != nil {
		firstErr = fmt.Errorf("close reactable store: %w", err)
	}
	if err := r.DB.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close database: %w", err)
	}
	return firstErr
}

package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Necroforger/dgrouter/exrouter"
	"github.com/bwmarrin/discordgo"

	"github.com/ahlec/Phil-sub000/internal/biz"
	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
	"github.com/ahlec/Phil-sub000/internal/service"
)

const (
	eventTimeout     = 30 * time.Second
	leaderboardLimit = 10
	emojiReceived    = "✅"
)

// DiscordServer handles Discord gateway events and commands
type DiscordServer struct {
	session       *discordgo.Session
	router        *exrouter.Route
	prefix        string
	uc            *biz.Usecases
	messageRepo   repo.MessageRepo
	communityRepo repo.CommunityRepo
	alertRepo     repo.AlertRepo
	chronos       *service.ChronoManager

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDiscordServer creates a new Discord server
func NewDiscordServer(
	session *discordgo.Session,
	prefix string,
	uc *biz.Usecases,
	messageRepo repo.MessageRepo,
	communityRepo repo.CommunityRepo,
	alertRepo repo.AlertRepo,
	chronos *service.ChronoManager,
) *DiscordServer {
	s := &DiscordServer{
		session:       session,
		prefix:        prefix,
		uc:            uc,
		messageRepo:   messageRepo,
		communityRepo: communityRepo,
		alertRepo:     alertRepo,
		chronos:       chronos,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.router = s.routes()

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsDirectMessageReactions |
		discordgo.IntentsMessageContent

	session.AddHandler(s.onMessageCreate)
	session.AddHandler(s.onReactionAdd)
	session.AddHandler(s.onGuildCreate)
	return s
}

// Start opens the gateway connection and starts the chrono manager
func (s *DiscordServer) Start() error {
	if err := s.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	fmt.Printf("[Server] Connected as %s\n", s.session.State.User.Username)

	if err := s.chronos.Start(s.ctx); err != nil {
		s.session.Close()
		return err
	}
	return nil
}

// Stop stops the chrono manager and closes the gateway connection
func (s *DiscordServer) Stop() {
	s.chronos.Stop()
	s.cancel()
	if err := s.session.Close(); err != nil {
		fmt.Printf("[Server] Error closing session: %v\n", err)
	}
}

func (s *DiscordServer) eventContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, eventTimeout)
}

func (s *DiscordServer) isSelf(userID string) bool {
	return s.session.State != nil && s.session.State.User != nil && s.session.State.User.ID == userID
}

// onMessageCreate routes direct messages to submission sessions and guild
// messages to the command router
func (s *DiscordServer) onMessageCreate(ses *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || s.isSelf(m.Author.ID) {
		return
	}

	now := time.Now().UTC()
	if m.GuildID == "" {
		s.handleDirectMessage(m, now)
		return
	}

	s.chronos.Activity().Touch(m.ChannelID, now)

	if !strings.HasPrefix(m.Content, s.prefix) {
		return
	}
	if err := s.router.FindAndExecute(ses, s.prefix, ses.State.User.ID, m.Message); err != nil {
		fmt.Printf("[Server] Unknown command %q: %v\n", truncate(m.Content, 50), err)
	}
}

func (s *DiscordServer) handleDirectMessage(m *discordgo.MessageCreate, now time.Time) {
	ctx, cancel := s.eventContext()
	defer cancel()

	handled, err := s.uc.Sessions.HandleDirectMessage(ctx, m.Author.ID, m.Content, now)
	if err != nil {
		fmt.Printf("[Server] Failed to handle direct message from %s: %v\n", m.Author.ID, err)
		s.report(ctx, "direct-message", "", err, now)
		return
	}
	if !handled || strings.TrimSpace(m.Content) == "" {
		return
	}
	if err := s.messageRepo.AddReaction(ctx, m.ChannelID, m.ID, emojiReceived); err != nil {
		fmt.Printf("[Server] Failed to acknowledge submission: %v\n", err)
	}
}

// onReactionAdd dispatches reactions to reactable posts
func (s *DiscordServer) onReactionAdd(ses *discordgo.Session, r *discordgo.MessageReactionAdd) {
	ctx, cancel := s.eventContext()
	defer cancel()

	isBot := s.isSelf(r.UserID)
	if r.Member != nil && r.Member.User != nil && r.Member.User.Bot {
		isBot = true
	}

	now := time.Now().UTC()
	ev := domain.ReactionEvent{
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
		IsBot:     isBot,
	}
	if err := s.uc.Reactables.HandleReactionAdd(ctx, ev, now); err != nil {
		fmt.Printf("[Server] Failed to handle reaction on %s: %v\n", r.MessageID, err)
		s.report(ctx, "reaction-add", r.GuildID, err, now)
	}
}

// onGuildCreate seeds storage for every community the bot is in
func (s *DiscordServer) onGuildCreate(ses *discordgo.Session, g *discordgo.GuildCreate) {
	ctx, cancel := s.eventContext()
	defer cancel()

	if err := s.uc.Community.Join(ctx, g.ID); err != nil {
		fmt.Printf("[Server] Failed to register community %s: %v\n", g.ID, err)
		s.report(ctx, "guild-create", g.ID, err, time.Now())
	}
}

func (s *DiscordServer) report(ctx context.Context, source, communityID string, err error, at time.Time) {
	if s.alertRepo == nil {
		return
	}
	s.alertRepo.Report(ctx, domain.OperatorAlert{
		Source:      source,
		CommunityID: communityID,
		Err:         err,
		At:          at,
	})
}

// truncate truncates a string for logging
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package server

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Necroforger/dgrouter/exrouter"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// commandFunc runs a command. A zero embed means the command replied on its own.
type commandFunc func(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error)

var mentionPattern = regexp.MustCompile(`^<(?:#|@&)?(\d+)>$|^(\d+)$`)

// routes builds the command router
func (s *DiscordServer) routes() *exrouter.Route {
	router := exrouter.New()

	router.On("suggest", s.command("suggest", s.suggest(false))).Desc("Start suggesting prompts: `suggest [bucket]`")
	router.On("anonsuggest", s.command("anonsuggest", s.suggest(true))).Desc("Suggest prompts anonymously: `anonsuggest [bucket]`")
	router.On("leaderboard", s.command("leaderboard", s.leaderboard)).Desc("Show who has submitted the most prompts")
	router.On("help", s.command("help", s.help)).Desc("List commands")

	router.Group(func(r *exrouter.Route) {
		r.Use(s.adminOnly)

		r.On("unconfirmed", s.command("unconfirmed", s.unconfirmed)).Desc("List submissions awaiting review: `unconfirmed [bucket]`")
		r.On("confirm", s.command("confirm", s.confirm)).Desc("Approve submissions: `confirm 3` or `confirm 2-4`")
		r.On("reject", s.command("reject", s.reject)).Desc("Reject submissions: `reject 3` or `reject 2-4`")
		r.On("pause", s.command("pause", s.setPaused(true))).Desc("Stop posting prompts: `pause [bucket]`")
		r.On("unpause", s.command("unpause", s.setPaused(false))).Desc("Resume posting prompts: `unpause [bucket]`")
		r.On("queue", s.command("queue", s.queue)).Desc("Browse the queue of approved prompts: `queue [bucket]`")
		r.On("bucket", s.command("bucket", s.bucket)).Desc("Manage buckets: `bucket list|info|create|frequency|role|alert|title|pin`")
		r.On("adminchannel", s.command("adminchannel", s.adminChannel)).Desc("Receive low-queue alerts here: `adminchannel [#channel]`")
		r.On("chrono", s.command("chrono", s.chrono)).Desc("Toggle a scheduled task: `chrono enable|disable <handle>`")
		r.On("feature", s.command("feature", s.feature)).Desc("Toggle a feature: `feature enable|disable <name>`")
	})

	return router
}

// command adapts a commandFunc to exrouter, turning user errors into error replies
func (s *DiscordServer) command(name string, fn commandFunc) exrouter.HandlerFunc {
	return func(c *exrouter.Context) {
		ctx, cancel := s.eventContext()
		defer cancel()

		if c.Msg.GuildID == "" {
			return
		}

		now := time.Now().UTC()
		embed, err := fn(ctx, c, now)
		if err != nil {
			if userErr, ok := domain.AsUserError(err); ok {
				embed = domain.ErrorEmbed(userErr.Message)
			} else {
				fmt.Printf("[Server] Command %s failed in %s: %v\n", name, c.Msg.GuildID, err)
				s.report(ctx, "command "+name, c.Msg.GuildID, err, now)
				embed = domain.ErrorEmbed("Something went wrong on my end. The bot operators have been notified.")
			}
		}
		if embed == (domain.Embed{}) {
			return
		}
		s.reply(ctx, c.Msg.ChannelID, embed)
	}
}

// adminOnly rejects members without administrative permissions
func (s *DiscordServer) adminOnly(next exrouter.HandlerFunc) exrouter.HandlerFunc {
	return func(c *exrouter.Context) {
		if c.Msg.GuildID == "" || c.Msg.Author == nil {
			return
		}

		ctx, cancel := s.eventContext()
		defer cancel()

		ok, err := s.communityRepo.IsAdmin(ctx, c.Msg.GuildID, c.Msg.Author.ID)
		if err != nil {
			fmt.Printf("[Server] Failed to check admin permissions: %v\n", err)
			s.reply(ctx, c.Msg.ChannelID, domain.ErrorEmbed("I could not check your permissions. Please try again."))
			return
		}
		if !ok {
			s.reply(ctx, c.Msg.ChannelID, domain.ErrorEmbed("This command is only available to admins."))
			return
		}
		next(c)
	}
}

func (s *DiscordServer) reply(ctx context.Context, channelID string, embed domain.Embed) {
	if _, err := s.messageRepo.SendEmbed(ctx, channelID, embed); err != nil {
		fmt.Printf("[Server] Failed to reply in %s: %v\n", channelID, err)
	}
}

// argsFrom joins the arguments from index n on
func argsFrom(c *exrouter.Context, n int) string {
	if len(c.Args) <= n {
		return ""
	}
	return strings.TrimSpace(strings.Join(c.Args[n:], " "))
}

// parseMentionID extracts the ID from a channel or role mention or a raw ID
func parseMentionID(arg string) (string, bool) {
	m := mentionPattern.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

// parseToggle parses on/off style arguments
func parseToggle(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "yes", "true", "enable", "enabled":
		return true, nil
	case "off", "no", "false", "disable", "disabled":
		return false, nil
	}
	return false, domain.NewUserError("`%s` is not a valid option. Use `on` or `off`.", arg)
}

func (s *DiscordServer) suggest(anonymous bool) commandFunc {
	return func(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
		b, err := s.uc.Buckets.ResolveValid(ctx, c.Msg.GuildID, c.Args.Get(1))
		if err != nil {
			return domain.Embed{}, err
		}

		userID := c.Msg.Author.ID
		session, err := s.uc.Sessions.StartNewSession(ctx, userID, b, anonymous, now)
		if err != nil {
			return domain.Embed{}, err
		}

		if err := s.uc.Reactables.SendSessionIntro(ctx, session, b, now); err != nil {
			fmt.Printf("[Server] Failed to send session intro to %s: %v\n", userID, err)
			if err := s.uc.Sessions.EndOngoingDirectMessageProcesses(ctx, userID); err != nil {
				return domain.Embed{}, err
			}
			return domain.Embed{}, domain.NewUserError("I couldn't send you a direct message. Make sure you allow direct messages from server members.")
		}
		return domain.SuccessEmbed("I've sent you a direct message with instructions."), nil
	}
}

func (s *DiscordServer) leaderboard(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
	return s.uc.Prompts.Leaderboard(ctx, c.Msg.GuildID, leaderboardLimit)
}

func (s *DiscordServer) help(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
	var sb strings.Builder
	for _, route := range s.router.Routes {
		fmt.Fprintf(&sb, "**%s%s**: %s\n", s.prefix, route.Name, route.Description)
	}
	return domain.InfoEmbed("Commands", sb.String()), nil
}

func (s *DiscordServer) unconfirmed(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
	b, err := s.uc.Buckets.Resolve(ctx, c.Msg.GuildID, c.Args.Get(1))
	if err != nil {
		return domain.Embed{}, err
	}
	return s.uc.Confirmations.Unconfirmed(ctx, c.Msg.ChannelID, b)
}

func (s *DiscordServer) confirm(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
	result, err := s.uc.Confirmations.Confirm(ctx, c.Msg.ChannelID, argsFrom(c, 1), now)
	if err != nil {
		return domain.Embed{}, err
	}
	return result.Render(), nil
}

func (s *DiscordServer) reject(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
	result, err := s.uc.Confirmations.Reject(ctx, c.Msg.ChannelID, argsFrom(c, 1))
	if err != nil {
		return domain.Embed{}, err
	}
	return result.Render(), nil
}

func (s *DiscordServer) setPaused(paused bool) commandFunc {
	return func(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
		b, err := s.uc.Buckets.Resolve(ctx, c.Msg.GuildID, c.Args.Get(1))
		if err != nil {
			return domain.Embed{}, err
		}
		if err := s.uc.Buckets.SetPaused(ctx, b, paused); err != nil {
			return domain.Embed{}, err
		}
		if paused {
			return domain.SuccessEmbed(fmt.Sprintf("The `%s` bucket is now paused.", b.Handle)), nil
		}
		return domain.SuccessEmbed(fmt.Sprintf("The `%s` bucket is no longer paused.", b.Handle)), nil
	}
}

func (s *DiscordServer) queue(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
	b, err := s.uc.Buckets.Resolve(ctx, c.Msg.GuildID, c.Args.Get(1))
	if err != nil {
		return domain.Embed{}, err
	}
	if err := s.uc.Reactables.SendQueuePage(ctx, c.Msg.ChannelID, c.Msg.Author.ID, b, 1, now); err != nil {
		return domain.Embed{}, err
	}
	return domain.Embed{}, nil
}

func (s *DiscordServer) adminChannel(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
	channelID := c.Msg.ChannelID
	if arg := c.Args.Get(1); arg != "" {
		id, ok := parseMentionID(arg)
		if !ok || !s.communityRepo.ChannelExists(ctx, c.Msg.GuildID, id) {
			return domain.Embed{}, domain.NewUserError("`%s` is not a channel on this server.", arg)
		}
		channelID = id
	}
	if err := s.uc.Community.SetAdminChannel(ctx, c.Msg.GuildID, channelID); err != nil {
		return domain.Embed{}, err
	}
	return domain.SuccessEmbed(fmt.Sprintf("Admin alerts will be sent to <#%s>.", channelID)), nil
}

func (s *DiscordServer) chrono(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
	enabled, err := parseToggle(c.Args.Get(1))
	if err != nil {
		return domain.Embed{}, err
	}
	handle := c.Args.Get(2)
	if handle == "" {
		return domain.Embed{}, domain.NewUserError("You must name the chrono to change.")
	}
	if err := s.uc.Community.SetChronoEnabled(ctx, c.Msg.GuildID, handle, enabled); err != nil {
		return domain.Embed{}, err
	}
	return domain.SuccessEmbed(fmt.Sprintf("Chrono `%s` is now %s.", strings.ToLower(handle), enabledText(enabled))), nil
}

func (s *DiscordServer) feature(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
	enabled, err := parseToggle(c.Args.Get(1))
	if err != nil {
		return domain.Embed{}, err
	}
	name := c.Args.Get(2)
	if err := s.uc.Community.SetFeature(ctx, c.Msg.GuildID, name, enabled); err != nil {
		return domain.Embed{}, err
	}
	return domain.SuccessEmbed(fmt.Sprintf("Feature `%s` is now %s.", strings.ToLower(name), enabledText(enabled))), nil
}

func enabledText(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

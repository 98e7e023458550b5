package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Necroforger/dgrouter/exrouter"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// bucket dispatches the bucket subcommands
func (s *DiscordServer) bucket(ctx context.Context, c *exrouter.Context, now time.Time) (domain.Embed, error) {
	sub := strings.ToLower(c.Args.Get(1))
	switch sub {
	case "", "list":
		return s.bucketList(ctx, c)
	case "info":
		b, err := s.uc.Buckets.Resolve(ctx, c.Msg.GuildID, c.Args.Get(2))
		if err != nil {
			return domain.Embed{}, err
		}
		return s.uc.Buckets.Describe(ctx, b), nil
	case "create":
		return s.bucketCreate(ctx, c)
	}

	b, err := s.uc.Buckets.Resolve(ctx, c.Msg.GuildID, c.Args.Get(2))
	if err != nil {
		return domain.Embed{}, err
	}

	value := argsFrom(c, 3)
	switch sub {
	case "frequency":
		err = s.uc.Buckets.SetFrequency(ctx, b, value)
	case "role":
		var roleID string
		if value != "" && !strings.EqualFold(value, "none") {
			id, ok := parseMentionID(value)
			if !ok {
				return domain.Embed{}, domain.NewUserError("`%s` is not a role.", value)
			}
			roleID = id
		}
		err = s.uc.Buckets.SetRequiredRole(ctx, b, roleID)
	case "alert":
		var on bool
		if on, err = parseToggle(value); err == nil {
			err = s.uc.Buckets.SetAlertWhenLow(ctx, b, on)
		}
	case "title":
		err = s.uc.Buckets.SetTitleFormat(ctx, b, value)
	case "pin":
		var on bool
		if on, err = parseToggle(value); err == nil {
			err = s.uc.Buckets.SetPinPrompts(ctx, b, on)
		}
	default:
		return domain.Embed{}, domain.NewUserError("`%s` is not a bucket command. Use `list`, `info`, `create`, `frequency`, `role`, `alert`, `title` or `pin`.", sub)
	}
	if err != nil {
		return domain.Embed{}, err
	}
	return s.uc.Buckets.Describe(ctx, b), nil
}

func (s *DiscordServer) bucketList(ctx context.Context, c *exrouter.Context) (domain.Embed, error) {
	statuses, err := s.uc.Buckets.List(ctx, c.Msg.GuildID)
	if err != nil {
		return domain.Embed{}, err
	}
	if len(statuses) == 0 {
		return domain.InfoEmbed("Buckets", "This server has no prompt buckets yet."), nil
	}

	var sb strings.Builder
	for _, st := range statuses {
		fmt.Fprintf(&sb, "`%s` %s (%s)", st.Bucket.Handle, st.Bucket.ChannelMention(), st.Bucket.Frequency)
		if st.Bucket.IsPaused {
			sb.WriteString(" paused")
		}
		if !st.IsValid {
			sb.WriteString(" :warning: misconfigured")
		}
		sb.WriteString("\n")
	}
	return domain.InfoEmbed("Buckets", sb.String()), nil
}

// bucketCreate handles `bucket create <handle> <#channel> [display name]`
func (s *DiscordServer) bucketCreate(ctx context.Context, c *exrouter.Context) (domain.Embed, error) {
	handle := c.Args.Get(2)
	channelArg := c.Args.Get(3)
	if handle == "" || channelArg == "" {
		return domain.Embed{}, domain.NewUserError("Usage: `bucket create <handle> <#channel> [display name]`.")
	}
	channelID, ok := parseMentionID(channelArg)
	if !ok {
		return domain.Embed{}, domain.NewUserError("`%s` is not a channel.", channelArg)
	}

	b, err := s.uc.Buckets.Create(ctx, c.Msg.GuildID, channelID, handle, argsFrom(c, 4))
	if err != nil {
		return domain.Embed{}, err
	}
	return s.uc.Buckets.Describe(ctx, b), nil
}

package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// discordRepo implements the message and community repositories over a
// discordgo session
type discordRepo struct {
	session *discordgo.Session
}

// NewDiscordMessageRepo creates a message repository backed by Discord
func NewDiscordMessageRepo(session *discordgo.Session) repo.MessageRepo {
	return &discordRepo{session: session}
}

// NewDiscordCommunityRepo creates a community repository backed by Discord
func NewDiscordCommunityRepo(session *discordgo.Session) repo.CommunityRepo {
	return &discordRepo{session: session}
}

func toDiscordEmbed(embed domain.Embed) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	if embed.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: embed.Footer}
	}
	return e
}

// SendText sends a text message
func (r *discordRepo) SendText(ctx context.Context, channelID, text string) (string, error) {
	msg, err := r.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// SendEmbed sends an embed
func (r *discordRepo) SendEmbed(ctx context.Context, channelID string, embed domain.Embed) (string, error) {
	msg, err := r.session.ChannelMessageSendEmbed(channelID, toDiscordEmbed(embed), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send embed to %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// AddReaction adds a reaction as the bot
func (r *discordRepo) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := r.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add reaction to %s: %w", messageID, err)
	}
	return nil
}

// RemoveReaction removes a user's reaction
func (r *discordRepo) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	if err := r.session.MessageReactionRemove(channelID, messageID, emoji, userID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("remove reaction from %s: %w", messageID, err)
	}
	return nil
}

// DeleteMessage deletes a message
func (r *discordRepo) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := r.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete message %s: %w", messageID, err)
	}
	return nil
}

// PinMessage pins a message
func (r *discordRepo) PinMessage(ctx context.Context, channelID, messageID string) error {
	if err := r.session.ChannelMessagePin(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("pin message %s: %w", messageID, err)
	}
	return nil
}

// OpenDirectChannel opens (or reuses) the DM channel of a user
func (r *discordRepo) OpenDirectChannel(ctx context.Context, userID string) (string, error) {
	ch, err := r.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("open direct channel with %s: %w", userID, err)
	}
	return ch.ID, nil
}

// guild looks the guild up in state first, then over REST
func (r *discordRepo) guild(ctx context.Context, communityID string) (*discordgo.Guild, error) {
	if g, err := r.session.State.Guild(communityID); err == nil {
		return g, nil
	}
	return r.session.Guild(communityID, discordgo.WithContext(ctx))
}

// IsKnownCommunity checks the bot is still in the guild
func (r *discordRepo) IsKnownCommunity(ctx context.Context, communityID string) (bool, error) {
	_, err := r.guild(ctx, communityID)
	switch {
	case err == nil:
		return true, nil
	case isGoneError(err):
		return false, nil
	default:
		return false, fmt.Errorf("look up guild %s: %w", communityID, err)
	}
}

// isGoneError reports whether Discord answered that the resource does not
// exist or is no longer visible to the bot
func isGoneError(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return false
	}
	switch restErr.Response.StatusCode {
	case http.StatusNotFound, http.StatusForbidden:
		return true
	}
	return false
}

// ChannelExists checks the channel exists in the guild
func (r *discordRepo) ChannelExists(ctx context.Context, communityID, channelID string) bool {
	ch, err := r.session.State.Channel(channelID)
	if err != nil {
		ch, err = r.session.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return false
		}
	}
	return ch.GuildID == communityID
}

// RoleExists checks the role exists in the guild
func (r *discordRepo) RoleExists(ctx context.Context, communityID, roleID string) bool {
	if _, err := r.session.State.Role(communityID, roleID); err == nil {
		return true
	}
	roles, err := r.session.GuildRoles(communityID, discordgo.WithContext(ctx))
	if err != nil {
		return false
	}
	for _, role := range roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

func (r *discordRepo) member(ctx context.Context, communityID, userID string) (*discordgo.Member, error) {
	if m, err := r.session.State.Member(communityID, userID); err == nil {
		return m, nil
	}
	m, err := r.session.GuildMember(communityID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", userID, err)
	}
	return m, nil
}

// MemberHasRole checks the member carries the role
func (r *discordRepo) MemberHasRole(ctx context.Context, communityID, userID, roleID string) (bool, error) {
	m, err := r.member(ctx, communityID, userID)
	if err != nil {
		return false, err
	}
	for _, id := range m.Roles {
		if id == roleID {
			return true, nil
		}
	}
	return false, nil
}

// IsAdmin checks the member owns the guild or holds an administrative permission
func (r *discordRepo) IsAdmin(ctx context.Context, communityID, userID string) (bool, error) {
	g, err := r.guild(ctx, communityID)
	if err != nil {
		return false, fmt.Errorf("get guild %s: %w", communityID, err)
	}
	if g.OwnerID == userID {
		return true, nil
	}

	m, err := r.member(ctx, communityID, userID)
	if err != nil {
		return false, err
	}

	roles := g.Roles
	if len(roles) == 0 {
		roles, err = r.session.GuildRoles(communityID, discordgo.WithContext(ctx))
		if err != nil {
			return false, fmt.Errorf("get roles of %s: %w", communityID, err)
		}
	}

	const adminPerms = discordgo.PermissionAdministrator | discordgo.PermissionManageServer
	for _, role := range roles {
		if role.Permissions&adminPerms == 0 {
			continue
		}
		for _, id := range m.Roles {
			if id == role.ID {
				return true, nil
			}
		}
	}
	return false, nil
}

package tickets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/activity-tickets/src/discord"
	"github.com/stake-plus/activity-tickets/src/reconcile"
)

const (
	reactionSuccess = "✅"
	reactionFailure = "❌"

	guidanceText   = "Thanks for your message! An admin will be with you shortly to assist. If you meant to submit a screenshot, please send it as an image attachment."
	notImageText   = "It looks like that wasn't a recognized image file. Please upload a screenshot in a common format (PNG, JPG, WEBP, GIF).\nIf you need other assistance, an admin will be with you shortly."
	failureText    = "⚠️ Error processing your screenshot. Please try again, or wait for an admin."
	thankYouFormat = "🎉 Thank you, <@%s>! Your screenshot has been logged. This message, your original image, and this ticket channel will be removed shortly."
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".gif": true,
}

// IsImage reports whether an attachment looks like an image by its name
// or declared content type.
func IsImage(a *discordgo.MessageAttachment) bool {
	if a == nil {
		return false
	}
	if imageExtensions[strings.ToLower(path.Ext(a.Filename))] {
		return true
	}
	return strings.HasPrefix(strings.ToLower(a.ContentType), "image/")
}

// HandleMessage processes a message posted in a guild channel.
func (h *Handler) HandleMessage(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	h.Registry.Disarm(m.ChannelID)

	cfg, err := h.guildConfig(ctx, m.GuildID)
	if err != nil {
		log.Printf("tickets: loading guild %s: %v", m.GuildID, err)
		return
	}
	if cfg == nil || cfg.TicketCategoryID == "" {
		return
	}
	channel, err := h.Session.Channel(m.ChannelID)
	if err != nil {
		log.Printf("tickets: resolving channel %s: %v", m.ChannelID, err)
		return
	}
	if !IsTicketChannel(channel, cfg.TicketCategoryID) {
		return
	}

	if len(m.Attachments) == 0 {
		h.reply(m, guidanceText)
		return
	}
	attachment := m.Attachments[0]
	if !IsImage(attachment) {
		h.reply(m, notImageText)
		return
	}

	image, sniffed, err := h.Fetcher.Fetch(ctx, attachment.URL, h.Config.MaxImageBytes)
	if err != nil {
		log.Printf("tickets: downloading %s from %s failed: %v", attachment.Filename, UserTag(m.Author), err)
		if errors.Is(err, ErrNotImage) {
			h.reply(m, notImageText)
			return
		}
		h.fail(m)
		return
	}

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = sniffed
	}
	member := m.Member
	sub := reconcile.Submission{
		Target:      h.target(cfg),
		GuildID:     m.GuildID,
		SubmitterID: m.Author.ID,
		Tag:         UserTag(m.Author),
		DisplayName: DisplayName(member, m.Author),
		ChannelName: channel.Name,
		Image:       image,
		ContentType: contentType,
		Filename:    attachment.Filename,
	}
	if member != nil {
		sub.JoinedAt = member.JoinedAt
	}

	out := h.Records.Reconcile(ctx, sub)
	if !out.OK() {
		h.fail(m)
		return
	}

	if err := h.Session.MessageReactionAdd(m.ChannelID, m.ID, reactionSuccess); err != nil {
		log.Printf("tickets: reacting to %s: %v", m.ID, err)
	}
	thanks, err := discord.SendMessageNoEmbed(h.Session, m.ChannelID, thankYou(m.Author.ID))
	toDelete := []string{m.ID}
	if err != nil {
		log.Printf("tickets: thank-you message in %s failed: %v", channel.Name, err)
	} else {
		toDelete = append(toDelete, thanks.ID)
	}
	h.closeAfter(m.ChannelID, toDelete, h.Config.ThankYouDelay, h.Config.ChannelDeleteDelay)
}

func (h *Handler) reply(m *discordgo.Message, content string) {
	if _, err := discord.ReplyNoEmbed(h.Session, m, content); err != nil {
		log.Printf("tickets: replying in %s: %v", m.ChannelID, err)
	}
}

func (h *Handler) fail(m *discordgo.Message) {
	if _, err := discord.SendMessageNoEmbed(h.Session, m.ChannelID, failureText); err != nil {
		log.Printf("tickets: failure notice in %s: %v", m.ChannelID, err)
	}
	if err := h.Session.MessageReactionAdd(m.ChannelID, m.ID, reactionFailure); err != nil {
		log.Printf("tickets: reacting to %s: %v", m.ID, err)
	}
}

func thankYou(userID string) string {
	return fmt.Sprintf(thankYouFormat, userID)
}

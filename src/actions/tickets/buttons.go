package tickets

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/activity-tickets/src/discord"
)

func (h *Handler) handleCreateTicket(ctx context.Context, i *discordgo.Interaction) {
	reply := h.ephemeral()
	user := interactionUser(i)
	if i.GuildID == "" || i.Member == nil || user == nil {
		return
	}

	cfg, err := h.guildConfig(ctx, i.GuildID)
	if err != nil {
		log.Printf("tickets: loading guild %s: %v", i.GuildID, err)
		reply.Respond(i, "Error creating ticket. Please try again shortly.")
		return
	}
	if cfg == nil {
		reply.Respond(i, "Ticket system not configured.")
		return
	}
	if cfg.ShutdownRoleID != "" && discord.HasAnyRole(i.Member, cfg.ShutdownRoleID) {
		name := cfg.ShutdownRoleName
		if name == "" {
			name = "shutdown"
		}
		reply.Respond(i, fmt.Sprintf("You have the %q role and cannot create tickets.", name))
		return
	}

	if !h.reserveTicket(i.GuildID, user.ID) {
		existing, _ := h.Registry.Channel(i.GuildID, user.ID)
		if existing == "" {
			reply.Respond(i, "Your ticket is already being created.")
		} else {
			reply.Respond(i, fmt.Sprintf("You already have an open ticket: <#%s>.", existing))
		}
		return
	}
	created := false
	defer func() {
		if !created {
			h.Registry.Release(i.GuildID, user.ID)
		}
	}()

	category, err := h.Session.Channel(cfg.TicketCategoryID)
	if err != nil || category.Type != discordgo.ChannelTypeGuildCategory {
		reply.Respond(i, "Error: Ticket category not found.")
		return
	}

	if err := reply.Defer(i); err != nil {
		return
	}

	adminRoles := cfg.AdminRoles()
	ch, err := h.Session.GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 ChannelName(user),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                ticketTopic(user, h.now()),
		ParentID:             category.ID,
		PermissionOverwrites: ticketOverwrites(i.GuildID, user.ID, h.botUserID(), adminRoles),
	})
	if err != nil {
		log.Printf("tickets: creating ticket for %s failed: %v", UserTag(user), err)
		reply.Edit(i, "Error creating ticket. Ensure bot has permissions.")
		return
	}
	h.Registry.Open(i.GuildID, user.ID, ch.ID)
	created = true

	if _, err := discord.SendMessageNoEmbed(h.Session, ch.ID, welcomeMessage(user.ID, adminRoles)); err != nil {
		log.Printf("tickets: welcome message in %s failed: %v", ch.Name, err)
	}
	reply.Edit(i, fmt.Sprintf("Your ticket has been created: <#%s>", ch.ID))
	log.Printf("tickets: ticket %s created for %s", ch.Name, UserTag(user))

	h.armBlankTimer(ch.ID, ch.Name)
}

// reserveTicket claims the user's ticket slot, first dropping a registry
// entry whose channel no longer exists.
func (h *Handler) reserveTicket(guildID, userID string) bool {
	if _, ok := h.Registry.Reserve(guildID, userID); ok {
		return true
	}
	existing, ok := h.Registry.Channel(guildID, userID)
	if !ok {
		return false
	}
	if _, err := h.Session.Channel(existing); err != nil && discord.IsUnknownChannel(err) {
		h.Registry.Remove(existing)
		_, ok := h.Registry.Reserve(guildID, userID)
		return ok
	}
	return false
}

// armBlankTimer deletes the ticket when nobody but the bot has written in it
// by the time the timer fires. A user message disarms the timer.
func (h *Handler) armBlankTimer(channelID, name string) {
	timer := h.After(h.Config.BlankTicketTimeout, func() {
		h.Registry.Expire(channelID)
		if _, open := h.Registry.Owner(channelID); !open {
			return
		}
		msgs, err := h.Session.ChannelMessages(channelID, 50, "", "", "")
		if err != nil {
			if discord.IsUnknownChannel(err) {
				h.Registry.Remove(channelID)
				return
			}
			log.Printf("tickets: checking blank ticket %s: %v", name, err)
			return
		}
		for _, m := range msgs {
			if m.Author != nil && !m.Author.Bot {
				return
			}
		}
		log.Printf("tickets: ticket %s is blank after timeout, deleting", name)
		h.deleteChannel(channelID, "blank ticket")
	})
	h.Registry.Arm(channelID, timer)
}

func (h *Handler) handleViewSheet(ctx context.Context, i *discordgo.Interaction) {
	reply := h.ephemeral()
	if !discord.IsAdministrator(i.Member) {
		reply.Respond(i, "You do not have permission to use this button.")
		return
	}

	cfg, err := h.guildConfig(ctx, i.GuildID)
	if err != nil {
		log.Printf("tickets: loading guild %s: %v", i.GuildID, err)
	}
	target := h.target(cfg)
	if target.SpreadsheetID == "" {
		reply.Respond(i, "Spreadsheet ID not configured.")
		return
	}
	reply.Respond(i, "📊 **Activity Log Sheet:** "+discord.SpreadsheetURL(target.SpreadsheetID))
}

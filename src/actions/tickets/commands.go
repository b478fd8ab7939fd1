package tickets

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/activity-tickets/src/data"
	"github.com/stake-plus/activity-tickets/src/discord"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/reset"
	"github.com/stake-plus/activity-tickets/src/slots"
)

func (h *Handler) handleSetup(ctx context.Context, i *discordgo.Interaction) {
	if !h.requireAdmin(i) {
		return
	}
	reply := h.ephemeral()

	channel, err := h.Session.Channel(i.ChannelID)
	if err != nil || channel.Type != discordgo.ChannelTypeGuildText {
		reply.Respond(i, "This command must be used in a standard text channel.")
		return
	}
	if channel.ParentID == "" {
		reply.Respond(i, "This channel is not in a category. Please run this command in a channel that is within a category designated for ticket prompts.")
		return
	}

	if err := reply.Defer(i); err != nil {
		return
	}
	cfg, err := h.setup(ctx, i.GuildID, channel)
	if err != nil {
		log.Printf("tickets: /setup in guild %s failed: %v", i.GuildID, err)
		reply.Edit(i, "An error occurred during setup. Please check the logs and bot permissions.")
		return
	}
	reply.Edit(i, fmt.Sprintf("Setup complete! The new ticket prompt has been posted in #%s. Category: %q.", channel.Name, cfg.TicketCategoryName))
}

// setup posts a fresh prompt in channel and stores the guild configuration.
// The channel's category becomes the ticket category.
func (h *Handler) setup(ctx context.Context, guildID string, channel *discordgo.Channel) (*data.GuildConfig, error) {
	roles, err := h.Session.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	prev, err := h.guildConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if prev != nil && prev.PromptChannelID != "" && prev.PromptMessageID != "" {
		if err := h.Session.ChannelMessageDelete(prev.PromptChannelID, prev.PromptMessageID); err != nil && !discord.IsUnknownMessage(err) && !discord.IsUnknownChannel(err) {
			log.Printf("tickets: could not delete old prompt %s: %v", prev.PromptMessageID, err)
		}
	}

	content := PromptContent(h.now())
	prompt, err := discord.SendComplexMessageNoEmbed(h.Session, channel.ID, &discordgo.MessageSend{
		Content:    content,
		Components: promptComponents(),
	})
	if err != nil {
		return nil, fmt.Errorf("post prompt: %w", err)
	}

	cfg := &data.GuildConfig{GuildID: guildID}
	if prev != nil {
		*cfg = *prev
	}
	if guild, err := h.Session.Guild(guildID); err == nil {
		cfg.GuildName = guild.Name
	}
	cfg.PromptChannelID = channel.ID
	cfg.PromptMessageID = prompt.ID
	cfg.TicketCategoryID = channel.ParentID
	cfg.TicketCategoryName = channel.ParentID
	if category, err := h.Session.Channel(channel.ParentID); err == nil {
		cfg.TicketCategoryName = category.Name
	}
	cfg.SetAdminRoles(discord.AdminRoleIDs(guildID, roles))
	cfg.ShutdownRoleID, cfg.ShutdownRoleName = "", ""
	if role := discord.RoleByName(roles, h.Config.ShutdownRoleName); role != nil {
		cfg.ShutdownRoleID = role.ID
		cfg.ShutdownRoleName = role.Name
	}
	if cfg.SpreadsheetID == "" {
		cfg.SpreadsheetID = h.Config.Target.SpreadsheetID
	}

	if err := h.Guilds.Save(ctx, cfg); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.prompts[prompt.ID] = content
	h.mu.Unlock()
	log.Printf("tickets: prompt posted in #%s for guild %s (category %s, %d admin role(s))",
		channel.Name, guildID, cfg.TicketCategoryName, len(cfg.AdminRoles()))
	return cfg, nil
}

func (h *Handler) handleClose(ctx context.Context, i *discordgo.Interaction) {
	if !h.requireAdmin(i) {
		return
	}
	reply := h.ephemeral()

	cfg, err := h.guildConfig(ctx, i.GuildID)
	if err != nil || cfg == nil {
		reply.Respond(i, "Ticket system not configured for this server. Please run /setup.")
		return
	}
	channel, err := h.Session.Channel(i.ChannelID)
	if err != nil || !IsTicketChannel(channel, cfg.TicketCategoryID) {
		reply.Respond(i, "This command can only be used inside an active ticket channel created by the bot.")
		return
	}

	if err := reply.Defer(i); err != nil {
		return
	}
	reply.Edit(i, fmt.Sprintf("Closing this ticket channel (`%s`) now...", channel.Name))

	admin := UserTag(interactionUser(i))
	h.Registry.Disarm(channel.ID)
	h.After(h.Config.CloseDelay, func() {
		h.deleteChannel(channel.ID, "closed by "+admin)
	})
}

func (h *Handler) handleTableClear(ctx context.Context, i *discordgo.Interaction) {
	if !h.requireAdmin(i) {
		return
	}
	h.runSweep(ctx, i, func(cfg *data.GuildConfig) reset.SweepResult {
		return h.Resets.Sweep(ctx, h.target(cfg))
	}, nil, "The sheet data has been cleared (headers preserved).")
}

func (h *Handler) handleTestWeek(ctx context.Context, i *discordgo.Interaction) {
	if !h.requireAdmin(i) {
		return
	}
	h.runSweep(ctx, i, func(cfg *data.GuildConfig) reset.SweepResult {
		return h.Resets.Sweep(ctx, h.target(cfg))
	}, allDays(), "Weekly reset complete.")
}

func (h *Handler) handleTestDay(ctx context.Context, i *discordgo.Interaction, day int) {
	if !h.requireAdmin(i) {
		return
	}
	if day < 0 {
		day = slots.DayIndex(h.now())
	}
	h.runSweep(ctx, i, func(cfg *data.GuildConfig) reset.SweepResult {
		return h.Resets.SweepDay(ctx, h.target(cfg), day)
	}, []int{day}, fmt.Sprintf("%s has been cleared.", slots.DayLabel(day)))
}

// runSweep defers the reply, runs sweep against the guild's target and
// reports the result. After a successful sweep the header cells of the mark
// days are filled green on grid sheets.
func (h *Handler) runSweep(ctx context.Context, i *discordgo.Interaction, sweep func(*data.GuildConfig) reset.SweepResult, mark []int, done string) {
	reply := h.ephemeral()
	if h.Resets == nil {
		reply.Respond(i, "Error: The table clearing function is not available.")
		return
	}
	cfg, err := h.guildConfig(ctx, i.GuildID)
	if err != nil {
		log.Printf("tickets: loading guild %s: %v", i.GuildID, err)
	}
	if !h.target(cfg).Valid() {
		reply.Respond(i, "Spreadsheet ID not configured.")
		return
	}
	if err := reply.Defer(i); err != nil {
		return
	}

	res := sweep(cfg)
	if !res.OK() {
		reply.Edit(i, "Failed to clear the sheet. Please check the bot logs.")
		return
	}
	if len(mark) > 0 && h.markDays(ctx, h.target(cfg), mark) {
		done = strings.TrimSuffix(done, ".") + " and marked green."
	}
	reply.Edit(i, sweepSummary(done, res))
}

func (h *Handler) markDays(ctx context.Context, target records.Target, days []int) bool {
	if h.Marker == nil || h.Config.Layout != records.LayoutGrid {
		return false
	}
	if err := records.MarkDays(ctx, h.Marker, target, days); err != nil {
		log.Printf("tickets: marking days on %s: %v", target.Key(), err)
		return false
	}
	return true
}

func allDays() []int {
	days := make([]int, slots.DaysPerWeek)
	for d := range days {
		days[d] = d
	}
	return days
}

func sweepSummary(done string, res reset.SweepResult) string {
	var b strings.Builder
	b.WriteString(done)
	fmt.Fprintf(&b, " Cleared %d record(s), deleted %d of %d screenshot(s).", res.Cleared, len(res.Deleted), len(res.BlobIDs))
	if len(res.Failures) > 0 {
		fmt.Fprintf(&b, " %d screenshot(s) could not be deleted.", len(res.Failures))
	}
	return b.String()
}

// closeAfter deletes the submission messages, then the channel.
func (h *Handler) closeAfter(channelID string, messageIDs []string, first, second time.Duration) {
	h.After(first, func() {
		for _, id := range messageIDs {
			if err := h.Session.ChannelMessageDelete(channelID, id); err != nil && !discord.IsUnknownMessage(err) {
				log.Printf("tickets: deleting message %s: %v", id, err)
			}
		}
		h.After(second, func() {
			h.deleteChannel(channelID, "screenshot submitted")
		})
	})
}

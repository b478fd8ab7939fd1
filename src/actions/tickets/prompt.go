package tickets

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/activity-tickets/src/data"
	"github.com/stake-plus/activity-tickets/src/discord"
	"github.com/stake-plus/activity-tickets/src/slots"
)

const (
	ButtonCreateTicket = "create_ticket_button"
	ButtonViewSheet    = "admin_view_sheet_button"
)

const promptBody = "**Welcome to the Screenshot Submission System!** 🗓️\n\n" +
	"Click the \"🎟️ Open Ticket\" button below to create a private channel where you can submit your **daily activity screenshot**.\n\n" +
	"**Submission Guidelines:**\n" +
	"- You are expected to submit one (1) screenshot per day for 7 consecutive days.\n" +
	"- Submissions are logged, and admins will verify them.\n" +
	"- This system is used to track activity. Each day you fail to submit (without informing an admin) may count as a strike.\n" +
	"- Three (3) strikes and you're out of the guild.\n" +
	"- The strike log resets weekly on Sunday at 00:00 UTC."

// PromptContent renders the prompt with the countdown to the next weekly reset.
func PromptContent(now time.Time) string {
	return promptBody + "\n\n**Time until weekly reset:** " + slots.FormatDuration(slots.NextReset(now).Sub(now), false)
}

func promptComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "🎟️ Open Ticket",
					Style:    discordgo.PrimaryButton,
					CustomID: ButtonCreateTicket,
				},
				discordgo.Button{
					Label:    "📊 View Activity Log (Admins)",
					Style:    discordgo.SecondaryButton,
					CustomID: ButtonViewSheet,
				},
			},
		},
	}
}

// RefreshPrompts updates the countdown of every configured prompt.
func (h *Handler) RefreshPrompts(ctx context.Context) {
	cfgs, err := h.Guilds.List(ctx)
	if err != nil {
		log.Printf("tickets: listing guilds for prompt refresh: %v", err)
		return
	}
	for i := range cfgs {
		h.refreshPrompt(&cfgs[i])
	}
}

// refreshPrompt edits the prompt when its rendered content changed.
func (h *Handler) refreshPrompt(cfg *data.GuildConfig) {
	if cfg.PromptChannelID == "" || cfg.PromptMessageID == "" {
		return
	}
	content := PromptContent(h.now())

	h.mu.Lock()
	unchanged := h.prompts[cfg.PromptMessageID] == content
	h.mu.Unlock()
	if unchanged {
		return
	}

	_, err := h.Session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:      cfg.PromptMessageID,
		Channel: cfg.PromptChannelID,
		Content: &content,
	})
	if err != nil {
		if discord.IsUnknownMessage(err) || discord.IsUnknownChannel(err) {
			log.Printf("tickets: prompt %s in guild %s is gone, run /setup again", cfg.PromptMessageID, cfg.GuildID)
		} else {
			log.Printf("tickets: refreshing prompt in guild %s: %v", cfg.GuildID, err)
		}
		return
	}

	h.mu.Lock()
	h.prompts[cfg.PromptMessageID] = content
	h.mu.Unlock()
}

// runPromptRefresher refreshes every interval until ctx ends.
func (h *Handler) runPromptRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		h.RefreshPrompts(ctx)
		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.Canceled) {
				log.Printf("tickets: prompt refresher stopped: %v", ctx.Err())
			}
			return
		case <-ticker.C:
		}
	}
}

package tickets

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	sharedconfig "github.com/stake-plus/activity-tickets/src/config"
	"github.com/stake-plus/activity-tickets/src/data"
	"github.com/stake-plus/activity-tickets/src/discord"
	"github.com/stake-plus/activity-tickets/src/reconcile"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/reset"
)

// GuildConfigs persists what /setup records per guild.
type GuildConfigs interface {
	Get(ctx context.Context, guildID string) (*data.GuildConfig, error)
	Save(ctx context.Context, cfg *data.GuildConfig) error
	List(ctx context.Context) ([]data.GuildConfig, error)
}

// Submitter applies an image submission to the record.
type Submitter interface {
	Reconcile(ctx context.Context, sub reconcile.Submission) reconcile.Outcome
}

// Resetter clears records and their screenshots on demand.
type Resetter interface {
	Sweep(ctx context.Context, target records.Target) reset.SweepResult
	SweepDay(ctx context.Context, target records.Target, day int) reset.SweepResult
}

// Handler implements the ticket bot's reactions to Discord events.
type Handler struct {
	Config   *sharedconfig.TicketsConfig
	Session  discord.Session
	Guilds   GuildConfigs
	Records  Submitter
	Resets   Resetter
	Fetcher  Fetcher
	Marker   records.Highlighter
	Registry *Registry
	Clock    func() time.Time
	After    AfterFunc

	mu      sync.Mutex
	botID   string
	prompts map[string]string
}

// NewHandler fills in defaults for unset collaborators.
func NewHandler(h *Handler) *Handler {
	if h.Registry == nil {
		h.Registry = NewRegistry()
	}
	if h.Clock == nil {
		h.Clock = time.Now
	}
	if h.After == nil {
		h.After = realAfter
	}
	if h.Fetcher == nil {
		h.Fetcher = NewHTTPFetcher(nil)
	}
	h.prompts = make(map[string]string)
	return h
}

// SetBotID records the bot's own user id once the gateway is ready.
func (h *Handler) SetBotID(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.botID = id
}

func (h *Handler) botUserID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.botID
}

func (h *Handler) now() time.Time {
	return h.Clock().UTC()
}

func (h *Handler) ephemeral() discord.Ephemeral {
	return discord.Ephemeral{
		Session: h.Session,
		Delay:   h.Config.EphemeralDelay,
		AfterFunc: func(d time.Duration, f func()) *time.Timer {
			h.After(d, f)
			return nil
		},
	}
}

// guildConfig loads the guild's configuration. A nil config with a nil
// error means the guild never ran /setup.
func (h *Handler) guildConfig(ctx context.Context, guildID string) (*data.GuildConfig, error) {
	cfg, err := h.Guilds.Get(ctx, guildID)
	if errors.Is(err, data.ErrGuildNotConfigured) {
		return nil, nil
	}
	return cfg, err
}

func (h *Handler) target(cfg *data.GuildConfig) records.Target {
	return cfg.Target(h.Config.Target)
}

// HandleInteraction routes buttons and slash commands.
func (h *Handler) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		switch i.MessageComponentData().CustomID {
		case ButtonCreateTicket:
			h.handleCreateTicket(ctx, i)
		case ButtonViewSheet:
			h.handleViewSheet(ctx, i)
		}
	case discordgo.InteractionApplicationCommand:
		cmd := i.ApplicationCommandData()
		switch cmd.Name {
		case discord.CommandSetup:
			h.handleSetup(ctx, i)
		case discord.CommandClose:
			h.handleClose(ctx, i)
		case discord.CommandTableClear:
			h.handleTableClear(ctx, i)
		case discord.CommandTestDay:
			h.handleTestDay(ctx, i, dayOption(cmd))
		case discord.CommandTestWeek:
			h.handleTestWeek(ctx, i)
		default:
			log.Printf("tickets: unknown command /%s", cmd.Name)
		}
	}
}

// requireAdmin replies and returns false unless the interaction comes from
// a guild administrator.
func (h *Handler) requireAdmin(i *discordgo.Interaction) bool {
	if i.GuildID == "" || i.Member == nil {
		h.ephemeral().Respond(i, "This command can only be used in a server.")
		return false
	}
	if !discord.IsAdministrator(i.Member) {
		h.ephemeral().Respond(i, "You must be an administrator to run this command.")
		return false
	}
	return true
}

func dayOption(d discordgo.ApplicationCommandInteractionData) int {
	for _, opt := range d.Options {
		if opt.Name == discord.OptionDay {
			return int(opt.IntValue())
		}
	}
	return -1
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// HandleChannelDelete forgets tickets whose channel disappeared.
func (h *Handler) HandleChannelDelete(ch *discordgo.Channel) {
	if ch == nil {
		return
	}
	if h.Registry.Remove(ch.ID) {
		log.Printf("tickets: ticket channel %s (%s) deleted", ch.Name, ch.ID)
	}
}

// deleteChannel removes a ticket channel and its registry entry.
func (h *Handler) deleteChannel(channelID, why string) {
	h.Registry.Remove(channelID)
	if _, err := h.Session.ChannelDelete(channelID); err != nil && !discord.IsUnknownChannel(err) {
		log.Printf("tickets: deleting channel %s (%s) failed: %v", channelID, why, err)
		return
	}
	log.Printf("tickets: deleted channel %s (%s)", channelID, why)
}

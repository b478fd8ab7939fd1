package tickets

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/activity-tickets/src/actions/core"
	sharedconfig "github.com/stake-plus/activity-tickets/src/config"
	shareddiscord "github.com/stake-plus/activity-tickets/src/discord"
	"github.com/stake-plus/activity-tickets/src/records"
)

var _ core.Module = (*Module)(nil)

// Dependencies are the stores the ticket bot writes through.
type Dependencies struct {
	Guilds  GuildConfigs
	Records Submitter
	Resets  Resetter
	Fetcher Fetcher
	Marker  records.Highlighter
}

// Module runs the ticket bot on its own Discord session.
type Module struct {
	config     *sharedconfig.TicketsConfig
	session    *discordgo.Session
	handler    *Handler
	runtimeCtx context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewModule(cfg *sharedconfig.TicketsConfig, deps Dependencies) (*Module, error) {
	session, err := discordgo.New("Bot " + cfg.Base.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	module := &Module{
		config:     cfg,
		session:    session,
		runtimeCtx: context.Background(),
	}
	module.handler = NewHandler(&Handler{
		Config:  cfg,
		Session: session,
		Guilds:  deps.Guilds,
		Records: deps.Records,
		Resets:  deps.Resets,
		Fetcher: deps.Fetcher,
		Marker:  deps.Marker,
	})

	module.initHandlers()
	return module, nil
}

// Name implements actions.Module.
func (b *Module) Name() string { return "tickets" }

// Handler exposes the event handler.
func (b *Module) Handler() *Handler { return b.handler }

func (b *Module) initHandlers() {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onChannelDelete)
}

func (b *Module) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("tickets: logged in as %s", UserTag(r.User))
	b.handler.SetBotID(r.User.ID)

	appID := b.config.Base.AppID
	if appID == "" {
		appID = r.User.ID
	}
	if err := shareddiscord.RegisterSlashCommands(s, appID, b.config.Base.GuildID); err != nil {
		log.Printf("tickets: failed to register slash commands: %v", err)
	} else {
		log.Printf("tickets: slash commands registered")
	}
}

func (b *Module) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.handler.HandleInteraction(b.runtimeCtx, i.Interaction)
}

func (b *Module) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.handler.HandleMessage(b.runtimeCtx, m.Message)
}

func (b *Module) onChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	b.handler.HandleChannelDelete(c.Channel)
}

func (b *Module) Start(ctx context.Context) error {
	runtimeCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.runtimeCtx = runtimeCtx

	if err := b.session.Open(); err != nil {
		cancel()
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	b.done = make(chan struct{})
	go func() {
		defer close(b.done)
		b.handler.runPromptRefresher(runtimeCtx, b.config.PromptRefresh)
	}()

	return nil
}

func (b *Module) Stop(ctx context.Context) {
	if b.cancel != nil {
		b.cancel()
	}
	if b.done != nil {
		select {
		case <-b.done:
		case <-ctx.Done():
		}
	}

	b.handler.Registry.StopAll()

	if b.session != nil {
		if err := b.session.Close(); err != nil {
			log.Printf("tickets: closing Discord session: %v", err)
		}
	}
}

package discord

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/activity-tickets/src/slots"
)

const (
	CommandSetup      = "setup"
	CommandClose      = "close"
	CommandTableClear = "tableclear"
	CommandTestDay    = "testday"
	CommandTestWeek   = "testweek"

	// OptionDay is the /testday day option.
	OptionDay = "day"
)

// CommandRegistrar is the part of *discordgo.Session used to manage application commands.
type CommandRegistrar interface {
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

var _ CommandRegistrar = (*discordgo.Session)(nil)

var adminOnly = int64(discordgo.PermissionAdministrator)

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandSetup: {
		Name:                     CommandSetup,
		Description:              "Posts the screenshot submission prompt in this channel",
		DefaultMemberPermissions: &adminOnly,
	},
	CommandClose: {
		Name:                     CommandClose,
		Description:              "Closes the current ticket channel (deletes it)",
		DefaultMemberPermissions: &adminOnly,
	},
	CommandTableClear: {
		Name:                     CommandTableClear,
		Description:              "Clears the week's records and screenshots (keeps headers)",
		DefaultMemberPermissions: &adminOnly,
	},
	CommandTestDay: {
		Name:                     CommandTestDay,
		Description:              "Clears one day's record and deletes its screenshot",
		DefaultMemberPermissions: &adminOnly,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        OptionDay,
				Description: "Day to clear (defaults to today, UTC)",
				Required:    false,
				Choices:     dayChoices(),
			},
		},
	},
	CommandTestWeek: {
		Name:                     CommandTestWeek,
		Description:              "Runs the weekly reset now",
		DefaultMemberPermissions: &adminOnly,
	},
}

var defaultCommandOrder = []string{
	CommandSetup,
	CommandClose,
	CommandTableClear,
	CommandTestDay,
	CommandTestWeek,
}

func dayChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, slots.DaysPerWeek)
	for day, name := range slots.DayNames {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: day})
	}
	return choices
}

// CommandNames lists every known command in registration order.
func CommandNames() []string {
	return append([]string(nil), defaultCommandOrder...)
}

// Command returns the definition of a known command.
func Command(name string) (*discordgo.ApplicationCommand, bool) {
	cmd, ok := commandDefinitions[name]
	return cmd, ok
}

// RegisterSlashCommands registers the requested slash commands. An empty
// guildID registers them globally. When no command names are provided, all
// known commands are registered.
func RegisterSlashCommands(s CommandRegistrar, appID, guildID string, names ...string) error {
	if appID == "" {
		return fmt.Errorf("discord: application id is required to register slash commands")
	}

	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			log.Printf("discord: unknown slash command %q", name)
			continue
		}

		_, err := s.ApplicationCommandCreate(appID, guildID, definition)
		if err != nil {
			if isDuplicateCommandError(err) {
				log.Printf("discord: slash command %q already registered", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			log.Printf("discord: failed to register command %q: %v", name, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}

	return nil
}

// DeleteSlashCommands removes all registered slash commands for a guild, or
// the global ones when guildID is empty.
func DeleteSlashCommands(s CommandRegistrar, appID, guildID string) error {
	commands, err := s.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}

	for _, cmd := range commands {
		if err := s.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			return err
		}
	}

	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			msg := strings.ToLower(restErr.Message.Message)
			if strings.Contains(msg, "already exists") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}

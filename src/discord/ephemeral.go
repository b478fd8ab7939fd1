package discord

import (
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

// DefaultEphemeralDelay is how long ephemeral replies stay visible.
const DefaultEphemeralDelay = 10 * time.Second

// Ephemeral sends interaction replies only the invoking user sees and
// removes them after Delay.
type Ephemeral struct {
	Session Session
	Delay   time.Duration
	// AfterFunc schedules the removal. Defaults to time.AfterFunc.
	AfterFunc func(time.Duration, func()) *time.Timer
}

// Respond replies to the interaction.
func (e Ephemeral) Respond(i *discordgo.Interaction, content string) error {
	err := e.Session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: WrapURLsNoEmbed(content),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("discord: ephemeral reply failed: %v", err)
		return err
	}
	e.scheduleDelete(i)
	return nil
}

// Defer acknowledges a slow interaction. Follow with Edit.
func (e Ephemeral) Defer(i *discordgo.Interaction) error {
	err := e.Session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		log.Printf("discord: defer reply failed: %v", err)
	}
	return err
}

// Edit replaces the deferred reply content.
func (e Ephemeral) Edit(i *discordgo.Interaction, content string) error {
	wrapped := WrapURLsNoEmbed(content)
	if _, err := e.Session.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &wrapped}); err != nil {
		log.Printf("discord: ephemeral edit failed: %v", err)
		return err
	}
	e.scheduleDelete(i)
	return nil
}

func (e Ephemeral) scheduleDelete(i *discordgo.Interaction) {
	delay := e.Delay
	if delay <= 0 {
		delay = DefaultEphemeralDelay
	}
	after := e.AfterFunc
	if after == nil {
		after = time.AfterFunc
	}
	after(delay, func() {
		if err := e.Session.InteractionResponseDelete(i); err != nil && !IsUnknownMessage(err) {
			log.Printf("discord: delete ephemeral reply: %v", err)
		}
	})
}

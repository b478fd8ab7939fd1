package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// SendComplexMessageNoEmbed sends msg with its URLs wrapped so Discord does not unfurl them.
func SendComplexMessageNoEmbed(s Session, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	if msg == nil {
		return nil, errors.New("discord: message payload cannot be nil")
	}
	if msg.Content != "" {
		msg.Content = WrapURLsNoEmbed(msg.Content)
	}
	return s.ChannelMessageSendComplex(channelID, msg)
}

// SendMessageNoEmbed sends plain content without link previews.
func SendMessageNoEmbed(s Session, channelID, content string) (*discordgo.Message, error) {
	return SendComplexMessageNoEmbed(s, channelID, &discordgo.MessageSend{Content: content})
}

// ReplyNoEmbed answers a message in its channel.
func ReplyNoEmbed(s Session, m *discordgo.Message, content string) (*discordgo.Message, error) {
	return SendComplexMessageNoEmbed(s, m.ChannelID, &discordgo.MessageSend{
		Content:   content,
		Reference: m.Reference(),
	})
}

// EditMessageComplexNoEmbed edits an existing message and supports components.
func EditMessageComplexNoEmbed(s Session, edit *discordgo.MessageEdit) (*discordgo.Message, error) {
	if edit == nil {
		return nil, errors.New("discord: message edit payload cannot be nil")
	}
	if edit.Content != nil {
		cleaned := WrapURLsNoEmbed(*edit.Content)
		edit.Content = &cleaned
	}
	return s.ChannelMessageEditComplex(edit)
}

// Package discordtest provides a recording fake of the Discord session.
package discordtest

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/activity-tickets/src/discord"
)

var (
	_ discord.Session          = (*Session)(nil)
	_ discord.CommandRegistrar = (*Session)(nil)
)

// Sent is a message posted through the fake.
type Sent struct {
	ChannelID string
	Message   *discordgo.MessageSend
	ID        string
}

// Reaction is an emoji added to a message.
type Reaction struct {
	ChannelID string
	MessageID string
	Emoji     string
}

// Response is an interaction reply or edit.
type Response struct {
	Interaction *discordgo.Interaction
	Type        discordgo.InteractionResponseType
	Content     string
	Ephemeral   bool
	Edit        bool
}

// Session records every call. Fields may be preset to shape answers.
type Session struct {
	mu  sync.Mutex
	seq int

	Guilds   map[string]*discordgo.Guild
	Members  map[string]*discordgo.Member
	Roles    []*discordgo.Role
	Channels map[string]*discordgo.Channel
	History  map[string][]*discordgo.Message

	FailCreateChannel error
	FailSend          error
	FailEdit          error
	FailDeleteMessage error

	Created          []discordgo.GuildChannelCreateData
	DeletedChannels  []string
	SentMessages     []Sent
	Edited           []*discordgo.MessageEdit
	DeletedMessages  []string
	Reactions        []Reaction
	Responses        []Response
	DeletedResponses int
	Commands         []*discordgo.ApplicationCommand
	DeletedCommands  []string
}

// New returns an empty fake.
func New() *Session {
	return &Session{
		Guilds:   make(map[string]*discordgo.Guild),
		Members:  make(map[string]*discordgo.Member),
		Channels: make(map[string]*discordgo.Channel),
		History:  make(map[string][]*discordgo.Message),
	}
}

func (s *Session) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// AddChannel seeds a channel.
func (s *Session) AddChannel(ch *discordgo.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Channels[ch.ID] = ch
}

func (s *Session) Sends() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sent(nil), s.SentMessages...)
}

func (s *Session) Replies() []Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Response(nil), s.Responses...)
}

func (s *Session) ReactionsAdded() []Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reaction(nil), s.Reactions...)
}

func (s *Session) ChannelsDeleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.DeletedChannels...)
}

func (s *Session) MessagesDeleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.DeletedMessages...)
}

func (s *Session) ChannelsCreated() []discordgo.GuildChannelCreateData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]discordgo.GuildChannelCreateData(nil), s.Created...)
}

func (s *Session) Guild(guildID string, _ ...discordgo.RequestOption) (*discordgo.Guild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.Guilds[guildID]
	if !ok {
		return nil, unknown(discordgo.ErrCodeUnknownGuild, "Unknown Guild")
	}
	return g, nil
}

func (s *Session) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.Members[userID]
	if !ok {
		return nil, unknown(discordgo.ErrCodeUnknownMember, "Unknown Member")
	}
	return m, nil
}

func (s *Session) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Roles, nil
}

func (s *Session) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.Channels[channelID]
	if !ok {
		return nil, unknown(discordgo.ErrCodeUnknownChannel, "Unknown Channel")
	}
	return ch, nil
}

func (s *Session) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateChannel != nil {
		return nil, s.FailCreateChannel
	}
	s.Created = append(s.Created, data)
	ch := &discordgo.Channel{
		ID:       s.nextID("channel"),
		GuildID:  guildID,
		Name:     data.Name,
		Type:     data.Type,
		Topic:    data.Topic,
		ParentID: data.ParentID,
	}
	s.Channels[ch.ID] = ch
	return ch, nil
}

func (s *Session) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.Channels[channelID]
	if !ok {
		return nil, unknown(discordgo.ErrCodeUnknownChannel, "Unknown Channel")
	}
	delete(s.Channels, channelID)
	s.DeletedChannels = append(s.DeletedChannels, channelID)
	return ch, nil
}

func (s *Session) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.History[channelID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (s *Session) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSend != nil {
		return nil, s.FailSend
	}
	id := s.nextID("message")
	s.SentMessages = append(s.SentMessages, Sent{ChannelID: channelID, Message: data, ID: id})
	return &discordgo.Message{ID: id, ChannelID: channelID, Content: data.Content}, nil
}

func (s *Session) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailEdit != nil {
		return nil, s.FailEdit
	}
	s.Edited = append(s.Edited, m)
	msg := &discordgo.Message{ID: m.ID, ChannelID: m.Channel}
	if m.Content != nil {
		msg.Content = *m.Content
	}
	return msg, nil
}

func (s *Session) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDeleteMessage != nil {
		return s.FailDeleteMessage
	}
	s.DeletedMessages = append(s.DeletedMessages, messageID)
	return nil
}

func (s *Session) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reactions = append(s.Reactions, Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emojiID})
	return nil
}

func (s *Session) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Response{Interaction: i, Type: resp.Type}
	if resp.Data != nil {
		r.Content = resp.Data.Content
		r.Ephemeral = resp.Data.Flags&discordgo.MessageFlagsEphemeral != 0
	}
	s.Responses = append(s.Responses, r)
	return nil
}

func (s *Session) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Response{Interaction: i, Edit: true, Ephemeral: true}
	if edit.Content != nil {
		r.Content = *edit.Content
	}
	s.Responses = append(s.Responses, r)
	return &discordgo.Message{ID: s.nextID("response"), Content: r.Content}, nil
}

func (s *Session) InteractionResponseDelete(i *discordgo.Interaction, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeletedResponses++
	return nil
}

func (s *Session) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := *cmd
	created.ID = s.nextID("command")
	created.ApplicationID = appID
	created.GuildID = guildID
	s.Commands = append(s.Commands, &created)
	return &created, nil
}

func (s *Session) ApplicationCommands(appID, guildID string, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*discordgo.ApplicationCommand
	for _, cmd := range s.Commands {
		if cmd.GuildID == guildID {
			out = append(out, cmd)
		}
	}
	return out, nil
}

func (s *Session) ApplicationCommandDelete(appID, guildID, cmdID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeletedCommands = append(s.DeletedCommands, cmdID)
	return nil
}

// RESTError builds a Discord API error with the given JSON code.
func RESTError(code int, message string) error {
	return unknown(code, message)
}

func unknown(code int, message string) error {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		ResponseBody: []byte(message),
		Message:      &discordgo.APIErrorMessage{Code: code, Message: message},
	}
}

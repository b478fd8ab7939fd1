package tickets

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const channelPrefix = "ticket-"

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// ChannelName is ticket-<username>-<discriminator>. Accounts without a
// legacy discriminator use the last four digits of their id.
func ChannelName(u *discordgo.User) string {
	name := strings.ToLower(unsafeNameChars.ReplaceAllString(u.Username, ""))
	if name == "" {
		name = "user"
	}
	suffix := u.Discriminator
	if suffix == "" || suffix == "0" {
		suffix = u.ID
		if len(suffix) > 4 {
			suffix = suffix[len(suffix)-4:]
		}
	}
	return channelPrefix + name + "-" + suffix
}

// IsTicketChannel reports whether ch is a ticket under the guild's ticket category.
func IsTicketChannel(ch *discordgo.Channel, categoryID string) bool {
	return ch != nil &&
		categoryID != "" &&
		ch.Type == discordgo.ChannelTypeGuildText &&
		ch.ParentID == categoryID &&
		strings.HasPrefix(ch.Name, channelPrefix)
}

// UserTag is the display tag: the username, with #discriminator for legacy accounts.
func UserTag(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// DisplayName prefers the guild nickname, then the global name.
func DisplayName(member *discordgo.Member, u *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

const (
	memberAllow = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory |
		discordgo.PermissionAttachFiles
	botAllow = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory |
		discordgo.PermissionManageChannels
	adminAllow = memberAllow | discordgo.PermissionManageMessages
)

// ticketOverwrites hides the channel from @everyone and opens it to the
// submitter, the bot and the admin roles.
func ticketOverwrites(guildID, userID, botID string, adminRoles []string) []*discordgo.PermissionOverwrite {
	out := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: userID, Type: discordgo.PermissionOverwriteTypeMember, Allow: memberAllow},
	}
	if botID != "" {
		out = append(out, &discordgo.PermissionOverwrite{ID: botID, Type: discordgo.PermissionOverwriteTypeMember, Allow: botAllow})
	}
	for _, role := range adminRoles {
		out = append(out, &discordgo.PermissionOverwrite{ID: role, Type: discordgo.PermissionOverwriteTypeRole, Allow: adminAllow})
	}
	return out
}

func ticketTopic(u *discordgo.User, now time.Time) string {
	return fmt.Sprintf("Ticket for %s (ID: %s). Created: %s", UserTag(u), u.ID, now.UTC().Format(time.RFC1123))
}

func welcomeMessage(userID string, adminRoles []string) string {
	mentions := "Administrators"
	if len(adminRoles) > 0 {
		parts := make([]string, len(adminRoles))
		for i, id := range adminRoles {
			parts[i] = "<@&" + id + ">"
		}
		mentions = strings.Join(parts, " ")
	}
	return fmt.Sprintf("👋 Hello <@%s>, welcome to your ticket!\n\n🛡️ %s have access to this channel.\n\n🖼️ Please send in your **daily activity screenshot** here or describe any issues you have.",
		userID, mentions)
}

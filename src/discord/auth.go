package discord

import "github.com/bwmarrin/discordgo"

// HasRole checks whether a user has a role in a guild. Empty roleID always returns true.
func HasRole(s Session, guildID, userID, roleID string) bool {
	if roleID == "" {
		return true
	}
	member, err := s.GuildMember(guildID, userID)
	if err != nil {
		return false
	}
	return HasAnyRole(member, roleID)
}

// HasAnyRole reports whether member holds at least one of roleIDs.
func HasAnyRole(member *discordgo.Member, roleIDs ...string) bool {
	if member == nil {
		return false
	}
	for _, held := range member.Roles {
		for _, id := range roleIDs {
			if id != "" && held == id {
				return true
			}
		}
	}
	return false
}

// IsAdministrator reports whether the interaction member carries the
// Administrator permission. Only interaction payloads populate Permissions.
func IsAdministrator(member *discordgo.Member) bool {
	return member != nil && member.Permissions&discordgo.PermissionAdministrator != 0
}

// AdminRoleIDs returns the ids of guild roles granting Administrator,
// skipping integration-managed roles and @everyone.
func AdminRoleIDs(guildID string, roles []*discordgo.Role) []string {
	var ids []string
	for _, role := range roles {
		if role == nil || role.Managed || role.ID == guildID {
			continue
		}
		if role.Permissions&discordgo.PermissionAdministrator != 0 {
			ids = append(ids, role.ID)
		}
	}
	return ids
}

// RoleByName finds a guild role by exact name.
func RoleByName(roles []*discordgo.Role, name string) *discordgo.Role {
	if name == "" {
		return nil
	}
	for _, role := range roles {
		if role != nil && role.Name == name {
			return role
		}
	}
	return nil
}

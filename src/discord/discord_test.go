package discord_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/activity-tickets/src/discord"
	"github.com/stake-plus/activity-tickets/src/discord/discordtest"
)

// ==================== URLs ====================

func TestWrapURLsNoEmbed(t *testing.T) {
	cases := map[string]string{
		"see https://example.com/a.":       "see <https://example.com/a>.",
		"already <https://example.com/b>":  "already <https://example.com/b>",
		"two http://a.io and https://b.io": "two <http://a.io> and <https://b.io>",
		"no links here":                    "no links here",
	}
	for in, want := range cases {
		if got := discord.WrapURLsNoEmbed(in); got != want {
			t.Fatalf("WrapURLsNoEmbed(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestSpreadsheetURL(t *testing.T) {
	got := discord.SpreadsheetURL("abc123")
	if got != "https://docs.google.com/spreadsheets/d/abc123/edit" {
		t.Fatalf("unexpected url %q", got)
	}
}

// ==================== Roles ====================

func TestRoleHelpers(t *testing.T) {
	roles := []*discordgo.Role{
		{ID: "g1", Name: "@everyone", Permissions: discordgo.PermissionAdministrator},
		{ID: "r1", Name: "Admins", Permissions: discordgo.PermissionAdministrator},
		{ID: "r2", Name: "Bot Shutdown"},
		{ID: "r3", Name: "Integration", Managed: true, Permissions: discordgo.PermissionAdministrator},
	}

	ids := discord.AdminRoleIDs("g1", roles)
	if len(ids) != 1 || ids[0] != "r1" {
		t.Fatalf("expected [r1], got %v", ids)
	}
	if role := discord.RoleByName(roles, "Bot Shutdown"); role == nil || role.ID != "r2" {
		t.Fatalf("expected shutdown role r2, got %+v", role)
	}
	if discord.RoleByName(roles, "") != nil {
		t.Fatalf("expected no role for empty name")
	}

	member := &discordgo.Member{Roles: []string{"r2"}}
	if !discord.HasAnyRole(member, "r9", "r2") {
		t.Fatalf("expected member to hold r2")
	}
	if discord.HasAnyRole(member, "") {
		t.Fatalf("empty role id must not match")
	}
	if discord.IsAdministrator(member) {
		t.Fatalf("member without permissions is not an administrator")
	}
	member.Permissions = discordgo.PermissionAdministrator | discordgo.PermissionSendMessages
	if !discord.IsAdministrator(member) {
		t.Fatalf("expected administrator")
	}
}

func TestHasRole(t *testing.T) {
	s := discordtest.New()
	s.Members["u1"] = &discordgo.Member{Roles: []string{"r1"}}

	if !discord.HasRole(s, "g", "u1", "") {
		t.Fatalf("empty role must always pass")
	}
	if !discord.HasRole(s, "g", "u1", "r1") {
		t.Fatalf("expected u1 to hold r1")
	}
	if discord.HasRole(s, "g", "missing", "r1") {
		t.Fatalf("unknown member must not hold roles")
	}
}

// ==================== Errors ====================

func TestRESTCodes(t *testing.T) {
	gone := discordtest.RESTError(discordgo.ErrCodeUnknownMessage, "Unknown Message")
	if !discord.IsUnknownMessage(fmt.Errorf("wrapped: %w", gone)) {
		t.Fatalf("expected wrapped 10008 to be detected")
	}
	if discord.IsUnknownChannel(gone) {
		t.Fatalf("10008 is not an unknown channel")
	}
	if !discord.IsUnknownChannel(discordtest.RESTError(discordgo.ErrCodeUnknownChannel, "Unknown Channel")) {
		t.Fatalf("expected 10003 to be detected")
	}
	if discord.RESTCode(errors.New("plain")) != 0 {
		t.Fatalf("plain errors carry no code")
	}
}

// ==================== Ephemeral ====================

func TestEphemeralRespondSchedulesDelete(t *testing.T) {
	s := discordtest.New()
	var delays []time.Duration
	var pending []func()
	e := discord.Ephemeral{
		Session: s,
		Delay:   3 * time.Second,
		AfterFunc: func(d time.Duration, f func()) *time.Timer {
			delays = append(delays, d)
			pending = append(pending, f)
			return nil
		},
	}
	i := &discordgo.Interaction{ID: "i1"}

	if err := e.Respond(i, "open https://x.io"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	replies := s.Replies()
	if len(replies) != 1 || !replies[0].Ephemeral || replies[0].Content != "open <https://x.io>" {
		t.Fatalf("unexpected replies %+v", replies)
	}
	if len(delays) != 1 || delays[0] != 3*time.Second {
		t.Fatalf("expected one 3s delete, got %v", delays)
	}
	pending[0]()
	if s.DeletedResponses != 1 {
		t.Fatalf("expected reply deletion, got %d", s.DeletedResponses)
	}
}

func TestEphemeralDeferThenEdit(t *testing.T) {
	s := discordtest.New()
	scheduled := 0
	e := discord.Ephemeral{
		Session: s,
		AfterFunc: func(d time.Duration, f func()) *time.Timer {
			if d != discord.DefaultEphemeralDelay {
				t.Fatalf("expected default delay, got %v", d)
			}
			scheduled++
			return nil
		},
	}
	i := &discordgo.Interaction{ID: "i2"}

	if err := e.Defer(i); err != nil {
		t.Fatalf("Defer: %v", err)
	}
	if scheduled != 0 {
		t.Fatalf("defer must not schedule a delete")
	}
	if err := e.Edit(i, "done"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	replies := s.Replies()
	if len(replies) != 2 || replies[0].Type != discordgo.InteractionResponseDeferredChannelMessageWithSource || !replies[1].Edit {
		t.Fatalf("unexpected replies %+v", replies)
	}
	if scheduled != 1 {
		t.Fatalf("expected delete after edit, got %d", scheduled)
	}
}

// ==================== Slash commands ====================

func TestCommandDefinitionsAreAdminOnly(t *testing.T) {
	names := discord.CommandNames()
	if len(names) != 5 {
		t.Fatalf("expected 5 commands, got %v", names)
	}
	for _, name := range names {
		cmd, ok := discord.Command(name)
		if !ok {
			t.Fatalf("missing definition for %s", name)
		}
		if cmd.DefaultMemberPermissions == nil || *cmd.DefaultMemberPermissions != discordgo.PermissionAdministrator {
			t.Fatalf("%s must default to administrators", name)
		}
	}

	testday, _ := discord.Command(discord.CommandTestDay)
	if len(testday.Options) != 1 || len(testday.Options[0].Choices) != 7 {
		t.Fatalf("expected a day option with 7 choices, got %+v", testday.Options)
	}
	if testday.Options[0].Choices[0].Name != "Sunday" {
		t.Fatalf("expected Sunday first, got %q", testday.Options[0].Choices[0].Name)
	}
}

func TestRegisterAndDeleteSlashCommands(t *testing.T) {
	s := discordtest.New()

	if err := discord.RegisterSlashCommands(s, "", "g"); err == nil {
		t.Fatalf("expected error without application id")
	}
	if err := discord.RegisterSlashCommands(s, "app", "g", discord.CommandClose, "bogus"); err != nil {
		t.Fatalf("RegisterSlashCommands: %v", err)
	}
	if len(s.Commands) != 1 || s.Commands[0].Name != discord.CommandClose {
		t.Fatalf("expected only /close, got %+v", s.Commands)
	}
	if err := discord.RegisterSlashCommands(s, "app", ""); err != nil {
		t.Fatalf("RegisterSlashCommands global: %v", err)
	}
	if len(s.Commands) != 6 {
		t.Fatalf("expected 6 registrations, got %d", len(s.Commands))
	}

	if err := discord.DeleteSlashCommands(s, "app", "g"); err != nil {
		t.Fatalf("DeleteSlashCommands: %v", err)
	}
	if len(s.DeletedCommands) != 1 {
		t.Fatalf("expected only the guild command deleted, got %v", s.DeletedCommands)
	}
}

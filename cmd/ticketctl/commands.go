package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stake-plus/activity-tickets/src/actions"
	"github.com/stake-plus/activity-tickets/src/api/webserver"
	sharedconfig "github.com/stake-plus/activity-tickets/src/config"
	"github.com/stake-plus/activity-tickets/src/discord"
	"github.com/stake-plus/activity-tickets/src/lock"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/reset"
	"github.com/stake-plus/activity-tickets/src/slots"
)

func loadConfig() sharedconfig.TicketsConfig {
	sharedconfig.LoadEnvFiles()
	return sharedconfig.LoadTicketsConfig(nil)
}

func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if cfg.APISecret == "" {
				return errors.New("API_JWT_SECRET is not set")
			}
			tok, err := webserver.IssueToken(subject, []byte(cfg.APISecret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "ops", "token subject, logged with every admin call")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

// openStores connects the configured storage backend.
func openStores(ctx context.Context, cfg *sharedconfig.TicketsConfig) (records.LedgerFactory, actions.Storage, error) {
	storage, err := actions.OpenStorage(ctx, cfg)
	if err != nil {
		return nil, actions.Storage{}, err
	}
	factory, err := records.NewLedgerFactory(cfg.Layout, storage.Records)
	if err != nil {
		return nil, actions.Storage{}, err
	}
	return factory, storage, nil
}

func weekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show this week's records on the default sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ledgers, _, err := openStores(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			snapshot, err := ledgers(cfg.Target).Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			printWeek(cmd.OutOrStdout(), cfg.Target, snapshot)
			return nil
		},
	}
}

func printWeek(w io.Writer, target records.Target, snapshot []records.Slot) {
	fmt.Fprintf(w, "Records on %s\n", target.Key())
	if len(snapshot) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	for _, s := range snapshot {
		fmt.Fprintf(w, "  %s %-9s %s\n", slotStatus(s), s.DayLabel, slotSummary(s))
	}
}

func slotStatus(s records.Slot) string {
	if !s.Exists {
		return color.New(color.FgYellow).Sprint("·")
	}
	if s.BlobID == "" {
		return color.New(color.FgRed).Sprint("!")
	}
	return color.New(color.FgGreen).Sprint("✓")
}

func slotSummary(s records.Slot) string {
	if !s.Exists {
		return "(no submission)"
	}
	var parts []string
	for _, v := range s.Values {
		if v = strings.TrimSpace(v); v != "" && v != s.BlobID {
			parts = append(parts, v)
		}
	}
	if s.BlobID != "" {
		parts = append(parts, "blob "+s.BlobID)
	}
	return strings.Join(parts, " | ")
}

func resetCmd() *cobra.Command {
	var day string
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear records and delete their screenshots on the default sheet",
		Long: `Clear the default sheet the same way the weekly reset does.

With --day only that weekday is cleared. This runs outside the bot, so a
submission landing during the reset is not excluded. Prefer the admin API
while the bot is running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dayIndex := -1
			if day != "" {
				d, err := parseDay(day)
				if err != nil {
					return err
				}
				dayIndex = d
			}
			if !yes {
				return errors.New("refusing to clear records without --yes")
			}

			cfg := loadConfig()
			ctx := cmd.Context()
			factory, storage, err := openStores(ctx, &cfg)
			if err != nil {
				return err
			}
			sweeper := reset.NewSweeper(factory, storage.Blobs, lock.New(0), time.Now)

			var res reset.SweepResult
			if dayIndex >= 0 {
				res = sweeper.SweepDay(ctx, cfg.Target, dayIndex)
			} else {
				res = sweeper.Sweep(ctx, cfg.Target)
			}
			return printSweep(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "weekday to clear (name or 0-6, Sunday is 0)")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

// parseDay accepts a weekday index or an English day name.
func parseDay(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return int(s[0] - '0'), nil
	}
	for i, name := range slots.DayNames {
		if strings.EqualFold(s, name) || (len(s) >= 3 && strings.HasPrefix(strings.ToLower(name), strings.ToLower(s))) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

func printSweep(w io.Writer, res reset.SweepResult) error {
	if res.Err != nil {
		fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed).Sprint("FAILED"), res.Err)
		return res.Err
	}
	scope := "whole week"
	if res.Day >= 0 {
		scope = slots.DayLabel(res.Day)
	}
	fmt.Fprintf(w, "%s cleared %s on %s: %d record(s), %d of %d screenshot(s) deleted\n",
		color.New(color.FgGreen).Sprint("✓"), scope, res.Target.Key(), res.Cleared, len(res.Deleted), len(res.BlobIDs))
	for id, err := range res.Failures {
		fmt.Fprintf(w, "  %s %s: %v\n", color.New(color.FgYellow).Sprint("!"), id, err)
	}
	return nil
}

func registerCommandsCmd() *cobra.Command {
	var guildID string
	var global bool
	var remove bool

	cmd := &cobra.Command{
		Use:   "register-commands",
		Short: "Deploy the bot's slash commands",
		Long: `Register /setup, /close, /tableclear, /testday and /testweek.

Commands go to GUILD_ID unless --guild or --global is given. Guild commands
appear immediately. Global commands can take up to an hour.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if cfg.Token == "" {
				return errors.New("DISCORD_TOKEN is not set")
			}
			target := guildID
			if target == "" && !global {
				target = cfg.GuildID
			}

			session, err := discordgo.New("Bot " + cfg.Token)
			if err != nil {
				return fmt.Errorf("discord session: %w", err)
			}
			appID := cfg.AppID
			if appID == "" {
				me, err := session.User("@me")
				if err != nil {
					return fmt.Errorf("resolve application id: %w", err)
				}
				appID = me.ID
			}

			scope := "globally"
			if target != "" {
				scope = "in guild " + target
			}
			out := cmd.OutOrStdout()
			if remove {
				if err := discord.DeleteSlashCommands(session, appID, target); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s removed slash commands %s\n", color.New(color.FgGreen).Sprint("✓"), scope)
				return nil
			}
			if err := discord.RegisterSlashCommands(session, appID, target); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s registered %s %s\n", color.New(color.FgGreen).Sprint("✓"),
				strings.Join(discord.CommandNames(), ", "), scope)
			return nil
		},
	}
	cmd.Flags().StringVar(&guildID, "guild", "", "guild to register in (defaults to GUILD_ID)")
	cmd.Flags().BoolVar(&global, "global", false, "register globally instead of in a guild")
	cmd.Flags().BoolVar(&remove, "delete", false, "remove the commands instead")
	return cmd
}

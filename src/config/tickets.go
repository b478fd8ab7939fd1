package config

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/reset"
)

// Storage backends.
const (
	StorageGoogle = "google"
	StorageMemory = "memory"
)

// TicketsConfig holds everything the ticket bot needs.
type TicketsConfig struct {
	Base

	Target  records.Target
	Layout  string
	Storage string

	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	SheetsRequestsPerSec  float64
	SheetsBurst           int
	RetryAttempts         int

	RedisURL    string
	EventStream string

	APIEnabled bool
	APIListen  string
	APISecret  string
	APIOrigins []string

	TicketCategoryName string
	ShutdownRoleName   string
	MaxImageBytes      int64

	BlankTicketTimeout time.Duration
	EphemeralDelay     time.Duration
	ThankYouDelay      time.Duration
	ChannelDeleteDelay time.Duration
	CloseDelay         time.Duration
	PromptRefresh      time.Duration

	ResetEnabled bool
	ResetSpec    string
	LockStripes  int
}

// LoadTicketsConfig loads the ticket bot configuration from settings and env.
func LoadTicketsConfig(db *gorm.DB) TicketsConfig {
	base := LoadBase(db)

	return TicketsConfig{
		Base: base,
		Target: records.Target{
			SpreadsheetID: GetSetting("spreadsheet_id", "SPREADSHEET_ID", ""),
			SheetName:     GetSetting("sheet_name", "SHEET_NAME", "Sheet1"),
			FolderID:      GetSetting("drive_folder_id", "GOOGLE_DRIVE_FOLDER_ID", ""),
		},
		Layout:  GetSetting("sheet_layout", "SHEET_LAYOUT", records.LayoutGrid),
		Storage: GetSetting("storage_backend", "STORAGE_BACKEND", StorageGoogle),

		GoogleCredentialsJSON: GetSetting("google_credentials_json", "GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCredentialsFile: GetSetting("google_credentials_file", "GOOGLE_APPLICATION_CREDENTIALS", ""),
		SheetsRequestsPerSec:  getFloatSetting("sheets_rps", "SHEETS_RPS", 1),
		SheetsBurst:           getIntSetting("sheets_burst", "SHEETS_BURST", 5),
		RetryAttempts:         getIntSetting("google_retry_attempts", "GOOGLE_RETRY_ATTEMPTS", 4),

		RedisURL:    GetSetting("redis_url", "REDIS_URL", ""),
		EventStream: GetSetting("event_stream", "EVENT_STREAM", "tickets.submissions"),

		APIEnabled: getBoolSetting("enable_api", "ENABLE_API", false),
		APIListen:  GetSetting("api_listen", "API_LISTEN", ":8080"),
		APISecret:  GetSetting("api_jwt_secret", "API_JWT_SECRET", ""),
		APIOrigins: getListSetting("api_origins", "API_ORIGINS", nil),

		TicketCategoryName: GetSetting("ticket_category_name", "TICKET_CATEGORY_NAME", "Tickets"),
		ShutdownRoleName:   GetSetting("shutdown_role_name", "SHUTDOWN_ROLE_NAME", "Bot Shutdown"),
		MaxImageBytes:      int64(getIntSetting("max_image_bytes", "MAX_IMAGE_BYTES", 25<<20)),

		BlankTicketTimeout: getDurationSetting("blank_ticket_timeout", "BLANK_TICKET_TIMEOUT", 60*time.Second),
		EphemeralDelay:     getDurationSetting("ephemeral_delete_delay", "EPHEMERAL_DELETE_DELAY", 10*time.Second),
		ThankYouDelay:      getDurationSetting("thank_you_delay", "THANK_YOU_DELAY", 7*time.Second),
		ChannelDeleteDelay: getDurationSetting("channel_delete_delay", "CHANNEL_DELETE_DELAY", 5*time.Second),
		CloseDelay:         getDurationSetting("close_delay", "CLOSE_DELAY", 2*time.Second),
		PromptRefresh:      getDurationSetting("prompt_refresh", "PROMPT_REFRESH", time.Minute),

		ResetEnabled: getBoolSetting("enable_weekly_reset", "ENABLE_WEEKLY_RESET", true),
		ResetSpec:    GetSetting("reset_cron", "RESET_CRON", reset.WeeklySpec),
		LockStripes:  getIntSetting("lock_stripes", "LOCK_STRIPES", 64),
	}
}

// Validate reports missing prerequisites. Startup treats any error as fatal.
func (c TicketsConfig) Validate() error {
	var errs []error
	if c.Token == "" {
		errs = append(errs, errors.New("discord token is not set (DISCORD_TOKEN or BOT_TOKEN)"))
	}
	if c.Target.SpreadsheetID == "" {
		errs = append(errs, errors.New("SPREADSHEET_ID is not set"))
	}
	if c.Target.SheetName == "" {
		errs = append(errs, errors.New("SHEET_NAME is empty"))
	}
	switch c.Layout {
	case records.LayoutGrid, records.LayoutLog:
	default:
		errs = append(errs, fmt.Errorf("sheet layout %q is not grid or log", c.Layout))
	}
	switch c.Storage {
	case StorageGoogle:
		if c.Target.FolderID == "" {
			errs = append(errs, errors.New("GOOGLE_DRIVE_FOLDER_ID is not set"))
		}
		if c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile == "" {
			errs = append(errs, errors.New("GOOGLE_CREDENTIALS_JSON is not set"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("storage backend %q is not google or memory", c.Storage))
	}
	if c.APIEnabled && c.APISecret == "" {
		errs = append(errs, errors.New("API_JWT_SECRET is required when the API is enabled"))
	}
	return errors.Join(errs...)
}

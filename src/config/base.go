package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/stake-plus/activity-tickets/src/data"
)

// Base contains common configuration fields
type Base struct {
	Token    string
	GuildID  string
	AppID    string
	MySQLDSN string
}

// LoadEnvFiles loads .env style files into the environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("config: load %s: %v", p, err)
		}
	}
}

// LoadBase loads common configuration (discord token, guild ID, MySQL DSN).
// db may be nil, in which case only the environment is consulted.
func LoadBase(db *gorm.DB) Base {
	if db != nil {
		if err := data.LoadSettings(db); err != nil {
			log.Printf("config: settings unavailable, using environment: %v", err)
		}
	}

	token := GetSetting("discord_token", "DISCORD_TOKEN", "")
	if token == "" {
		token = os.Getenv("BOT_TOKEN")
	}

	dsn, err := data.GetMySQLDSN()
	if err != nil && db != nil {
		log.Printf("config: %v", err)
	}

	return Base{
		Token:    token,
		GuildID:  GetSetting("guild_id", "GUILD_ID", ""),
		AppID:    GetSetting("discord_app_id", "DISCORD_APP_ID", ""),
		MySQLDSN: dsn,
	}
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" && envKey != "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

func getBoolSetting(settingKey, envKey string, defaultValue bool) bool {
	return parseBoolDefault(GetSetting(settingKey, envKey, ""), defaultValue)
}

func getIntSetting(settingKey, envKey string, defaultValue int) int {
	v := GetSetting(settingKey, envKey, "")
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", settingKey, v, defaultValue)
		return defaultValue
	}
	return n
}

func getFloatSetting(settingKey, envKey string, defaultValue float64) float64 {
	v := GetSetting(settingKey, envKey, "")
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		log.Printf("config: %s=%q is not a number, using %v", settingKey, v, defaultValue)
		return defaultValue
	}
	return f
}

// getDurationSetting accepts Go durations ("90s") or plain seconds ("90").
func getDurationSetting(settingKey, envKey string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(GetSetting(settingKey, envKey, ""))
	if v == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: %s=%q is not a duration, using %v", settingKey, v, defaultValue)
		return defaultValue
	}
	return d
}

func getListSetting(settingKey, envKey string, defaultValue []string) []string {
	v := GetSetting(settingKey, envKey, "")
	if v == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

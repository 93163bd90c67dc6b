package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Slack     SlackConfig     `yaml:"slack"`
	GitHub    GitHubConfig    `yaml:"github"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Bio       BioConfig       `yaml:"bio"`
	Photo     PhotoConfig     `yaml:"photo"`
	HTTP      HTTPConfig      `yaml:"http"`
	Retention RetentionConfig `yaml:"retention"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// SlackConfig contains chat platform settings
type SlackConfig struct {
	BotToken    string `yaml:"bot_token"`     // xoxb-...
	AppToken    string `yaml:"app_token"`     // xapp-... (socket mode)
	AdminUserID string `yaml:"admin_user_id"` // the single designated approver
	// IntakeChannel is the channel watched for workflow-builder form posts.
	// Optional; empty disables the intake listener.
	IntakeChannel string `yaml:"intake_channel"`
}

// GitHubConfig contains organization management settings
type GitHubConfig struct {
	Token       string `yaml:"token"` // personal access token with admin:org scope
	Org         string `yaml:"org"`
	DefaultTeam string `yaml:"default_team"`
}

// CalendarConfig contains Google Calendar sharing settings.
// The section is optional; an empty credentials file disables calendar sharing.
type CalendarConfig struct {
	CredentialsFile string            `yaml:"credentials_file"` // service account JSON
	Calendars       map[string]string `yaml:"calendars"`        // calendar name -> calendar ID
}

// Enabled reports whether calendar sharing is configured.
func (c CalendarConfig) Enabled() bool {
	return c.CredentialsFile != ""
}

// BioConfig contains bio rewriting settings. Optional; an empty API key disables it.
type BioConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Enabled reports whether bio rewriting is configured.
func (c BioConfig) Enabled() bool {
	return c.APIKey != ""
}

// PhotoConfig contains photo processing settings
type PhotoConfig struct {
	OutputDir   string `yaml:"output_dir"`
	BorderWidth int    `yaml:"border_width"`
}

// HTTPConfig contains the photo/health HTTP server settings
type HTTPConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"` // external URL used in admin messages
}

// RetentionConfig contains store expiry settings
type RetentionConfig struct {
	RequestTTLDays   int `yaml:"request_ttl_days"`   // terminal onboarding requests
	PartialTTLHours  int `yaml:"partial_ttl_hours"`  // uncorrelated partial submissions
	OffboardTTLDays  int `yaml:"offboard_ttl_days"`  // processed offboarding requests
}

// RequestTTL returns the retention window for terminal onboarding requests.
func (c RetentionConfig) RequestTTL() time.Duration {
	return time.Duration(c.RequestTTLDays) * 24 * time.Hour
}

// PartialTTL returns the retention window for partial submissions.
func (c RetentionConfig) PartialTTL() time.Duration {
	return time.Duration(c.PartialTTLHours) * time.Hour
}

// OffboardTTL returns the retention window for offboarding requests.
func (c RetentionConfig) OffboardTTL() time.Duration {
	return time.Duration(c.OffboardTTLDays) * 24 * time.Hour
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	PurgeStalePartials string `yaml:"purge_stale_partials"`
	PurgeStaleRequests string `yaml:"purge_stale_requests"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Slack
	if val := os.Getenv("SLACK_BOT_TOKEN"); val != "" {
		c.Slack.BotToken = val
	}
	if val := os.Getenv("SLACK_APP_TOKEN"); val != "" {
		c.Slack.AppToken = val
	}
	if val := os.Getenv("SLACK_ADMIN_USER_ID"); val != "" {
		c.Slack.AdminUserID = val
	}
	if val := os.Getenv("SLACK_INTAKE_CHANNEL"); val != "" {
		c.Slack.IntakeChannel = val
	}

	// GitHub
	if val := os.Getenv("GITHUB_TOKEN"); val != "" {
		c.GitHub.Token = val
	}
	if val := os.Getenv("GITHUB_ORG"); val != "" {
		c.GitHub.Org = val
	}
	if val := os.Getenv("GITHUB_DEFAULT_TEAM"); val != "" {
		c.GitHub.DefaultTeam = val
	}

	// Calendar
	if val := os.Getenv("GOOGLE_CREDENTIALS_FILE"); val != "" {
		c.Calendar.CredentialsFile = val
	}

	// Bio editing
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.Bio.APIKey = val
	}
	if val := os.Getenv("BIO_MODEL"); val != "" {
		c.Bio.Model = val
	}

	// Photo
	if val := os.Getenv("PHOTO_OUTPUT_DIR"); val != "" {
		c.Photo.OutputDir = val
	}

	// HTTP
	if val := os.Getenv("HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.HTTP.Port)
	}
	if val := os.Getenv("HTTP_BASE_URL"); val != "" {
		c.HTTP.BaseURL = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Slack validation
	if c.Slack.BotToken == "" {
		return fmt.Errorf("slack bot token is required")
	}
	if c.Slack.AppToken == "" {
		return fmt.Errorf("slack app token is required")
	}
	if c.Slack.AdminUserID == "" {
		return fmt.Errorf("slack admin user id is required")
	}

	// GitHub validation
	if c.GitHub.Token == "" {
		return fmt.Errorf("github token is required")
	}
	if c.GitHub.Org == "" {
		c.GitHub.Org = "ContextLab"
	}
	if c.GitHub.DefaultTeam == "" {
		c.GitHub.DefaultTeam = "Lab default"
	}

	// Calendar is optional, but a configured section needs its credentials file
	if c.Calendar.Enabled() {
		if _, err := os.Stat(c.Calendar.CredentialsFile); err != nil {
			return fmt.Errorf("google credentials file not found: %s", c.Calendar.CredentialsFile)
		}
	}

	// Bio model default
	if c.Bio.Enabled() && c.Bio.Model == "" {
		c.Bio.Model = "gpt-4o"
	}

	// Photo defaults
	if c.Photo.OutputDir == "" {
		c.Photo.OutputDir = "./output"
	}
	if c.Photo.BorderWidth == 0 {
		c.Photo.BorderWidth = 8
	}

	// HTTP defaults
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port: %d", c.HTTP.Port)
	}
	if c.HTTP.BaseURL == "" {
		c.HTTP.BaseURL = fmt.Sprintf("http://localhost:%d", c.HTTP.Port)
	}

	// Retention defaults
	if c.Retention.RequestTTLDays == 0 {
		c.Retention.RequestTTLDays = 30
	}
	if c.Retention.PartialTTLHours == 0 {
		c.Retention.PartialTTLHours = 48
	}
	if c.Retention.OffboardTTLDays == 0 {
		c.Retention.OffboardTTLDays = 30
	}

	// Scheduler defaults
	if c.Scheduler.PurgeStalePartials == "" {
		c.Scheduler.PurgeStalePartials = "0 0 * * * *" // hourly
	}
	if c.Scheduler.PurgeStaleRequests == "" {
		c.Scheduler.PurgeStaleRequests = "0 0 4 * * *" // 4 AM UTC
	}

	return nil
}

// GetHTTPAddress returns the photo/health server address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// DefaultCalendarPolicy maps the lab calendars to the permission
// level granted to every new member at approval time.
func DefaultCalendarPolicy() map[string]string {
	return map[string]string{
		"Contextual Dynamics Lab": "reader",
		"Out of lab":              "writer",
		"CDL Resources":           "writer",
	}
}

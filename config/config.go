package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"voice-email/internal/domain"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Audio     AudioConfig     `yaml:"audio"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Drafting  DraftingConfig  `yaml:"drafting"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Sender    SenderConfig    `yaml:"sender"`
	Contacts  ContactsConfig  `yaml:"contacts"`
	Mail      MailConfig      `yaml:"mail"`
	Store     StoreConfig     `yaml:"store"`
	Pushover  PushoverConfig  `yaml:"pushover"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr"`
	AuthToken  string `yaml:"auth_token"`
	RatePerMin int    `yaml:"rate_per_min"`
	TrustProxy bool   `yaml:"trust_proxy"`
}

type AudioConfig struct {
	Source           string `yaml:"source"`
	FileDir          string `yaml:"file_dir"`
	SampleRate       int    `yaml:"sample_rate"`
	ListenTimeout    int    `yaml:"listen_timeout"`
	PhraseLimit      int    `yaml:"phrase_limit"`
	SilenceThreshold int    `yaml:"silence_threshold"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

type DraftingConfig struct {
	Provider string `yaml:"provider"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type SenderConfig struct {
	Name        string `yaml:"name"`
	Placeholder string `yaml:"placeholder"`
}

type ContactsConfig struct {
	Source  string           `yaml:"source"`
	Sheets  SheetsConfig     `yaml:"sheets"`
	Entries []domain.Contact `yaml:"entries"`
}

type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Range           string `yaml:"range"`
	CredentialsFile string `yaml:"credentials_file"`
}

type MailConfig struct {
	Provider string      `yaml:"provider"`
	From     string      `yaml:"from"`
	Gmail    GmailConfig `yaml:"gmail"`
}

type GmailConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	User            string `yaml:"user"`
}

type StoreConfig struct {
	Type       string `yaml:"type"`
	SQLitePath string `yaml:"sqlite_path"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type TelemetryConfig struct {
	Tracing     bool   `yaml:"tracing"`
	ServiceName string `yaml:"service_name"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RatePerMin == 0 {
		c.Server.RatePerMin = 30
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "file"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "en"
	}
	if c.Drafting.Provider == "" {
		c.Drafting.Provider = "anthropic"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Sender.Placeholder == "" {
		c.Sender.Placeholder = "[Your Name]"
	}
	if c.Contacts.Source == "" {
		c.Contacts.Source = "static"
	}
	if c.Contacts.Sheets.Range == "" {
		c.Contacts.Sheets.Range = "Sheet1!A:B"
	}
	if c.Mail.Provider == "" {
		c.Mail.Provider = "log"
	}
	if c.Mail.Gmail.User == "" {
		c.Mail.Gmail.User = "me"
	}
	if c.Mail.Gmail.TokenFile == "" {
		c.Mail.Gmail.TokenFile = "token.json"
	}
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "drafts.db"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "voice-email"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Sender.Name == "" {
		errs = append(errs, errors.New("sender.name is required"))
	} else if strings.Contains(c.Sender.Name, c.Sender.Placeholder) {
		errs = append(errs, fmt.Errorf("sender.name must not contain the placeholder %q", c.Sender.Placeholder))
	}

	switch c.Audio.Source {
	case "file", "microphone":
	default:
		errs = append(errs, fmt.Errorf("audio.source %q: want file or microphone", c.Audio.Source))
	}

	if c.Audio.SilenceThreshold < 0 || c.Audio.SilenceThreshold > math.MaxInt16 {
		errs = append(errs, fmt.Errorf("audio.silence_threshold %d: want 0..%d", c.Audio.SilenceThreshold, math.MaxInt16))
	}

	switch c.Drafting.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			errs = append(errs, errors.New("anthropic.api_key is required for the anthropic provider"))
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("gemini.api_key is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("drafting.provider %q: want anthropic or gemini", c.Drafting.Provider))
	}

	switch c.Contacts.Source {
	case "static":
	case "sheets":
		if c.Contacts.Sheets.SpreadsheetID == "" {
			errs = append(errs, errors.New("contacts.sheets.spreadsheet_id is required for the sheets source"))
		}
	default:
		errs = append(errs, fmt.Errorf("contacts.source %q: want static or sheets", c.Contacts.Source))
	}

	switch c.Mail.Provider {
	case "log":
	case "gmail":
		if c.Mail.Gmail.CredentialsFile == "" {
			errs = append(errs, errors.New("mail.gmail.credentials_file is required for the gmail provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("mail.provider %q: want log or gmail", c.Mail.Provider))
	}

	switch c.Store.Type {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("store.type %q: want memory or sqlite", c.Store.Type))
	}

	if c.Pushover.Enabled && (c.Pushover.Token == "" || c.Pushover.UserKey == "") {
		errs = append(errs, errors.New("pushover.token and pushover.user_key are required when pushover is enabled"))
	}

	return errors.Join(errs...)
}

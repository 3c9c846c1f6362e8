package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the root configuration for daylog, stored in ~/.daylog/config.json.
// The file supports single-line // comments for documentation purposes.
// Every key can be overridden by a DAYLOG_* environment variable, e.g.
// DAYLOG_BASE_DIR or DAYLOG_OUTLOOK_TIMEZONE.
type Config struct {
	// BaseDir is the journal root holding journal_entries/ and work-logs/.
	BaseDir string `mapstructure:"base_dir"`
	// LockTimeout bounds how long a save waits for another writer of the same day.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	Outlook     OutlookConfig `mapstructure:"outlook"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `mapstructure:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `mapstructure:"client_id"`
	// DefaultBlock is the block name used for an event without a subject.
	DefaultBlock string `mapstructure:"default_block"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Berlin"). Empty = UTC.
	Timezone string `mapstructure:"timezone"`
}

const (
	// DefaultBaseDir is the journal root used when none is configured.
	DefaultBaseDir = "~/.daylog"
	// DefaultLockTimeout is the wait for a busy daily record.
	DefaultLockTimeout = 5 * time.Second
	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID.
	// It supports device code flow without a client secret and requires no
	// app registration. Replace with your own registered app ID for
	// organisational or production deployments.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultBlock names imported events that have no subject.
	DefaultBlock = "Meeting"

	envPrefix = "DAYLOG"
)

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// daylog configuration – ~/.daylog/config.json
//
// All settings are optional. Any key can also be set through the environment,
// e.g. DAYLOG_BASE_DIR=/tmp/journal or DAYLOG_OUTLOOK_TIMEZONE=Europe/Berlin.
{
  // Journal root. Snapshots go to <base_dir>/journal_entries, daily records
  // to <base_dir>/work-logs/<year>/daily. "~" is expanded.
  "base_dir": "~/.daylog",

  // How long a save waits while another process writes the same day.
  "lock_timeout": "5s",

  // ── Microsoft Graph / Outlook calendar import ────────────────────────────
  "outlook": {
    // Azure AD tenant ID.
    // • "common"  – personal Microsoft accounts and any organisation (default)
    // • Your organisation's tenant GUID, e.g. "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"
    "tenant_id": "common",

    // Azure application (client) ID used for the OAuth2 device code flow.
    // The built-in value is the public Azure CLI app – no app registration needed.
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",

    // Block name for calendar events without a subject.
    "default_block": "Meeting",

    // IANA timezone for interpreting calendar event times, e.g. "Europe/Berlin".
    // Leave empty to use UTC. Can be overridden with: daylog outlook sync --timezone <tz>
    "timezone": ""
  }
}
`

// FilePath returns the config file location: $DAYLOG_CONFIG when set,
// otherwise ~/.daylog/config.json.
func FilePath() (string, error) {
	if override := os.Getenv(envPrefix + "_CONFIG"); override != "" {
		return homedir.Expand(override)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".daylog", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("base_dir", DefaultBaseDir)
	v.SetDefault("lock_timeout", DefaultLockTimeout.String())
	v.SetDefault("outlook.tenant_id", DefaultTenantID)
	v.SetDefault("outlook.client_id", DefaultClientID)
	v.SetDefault("outlook.default_block", DefaultBlock)
	v.SetDefault("outlook.timezone", "")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at FilePath, creating it with annotated defaults
// on first run.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return decode(newViper())
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path. A missing file is created from the
// annotated template and the built-in defaults are used. Lines starting with
// // are treated as comments and stripped before JSON parsing.
func LoadFrom(path string) (Config, error) {
	v := newViper()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return decode(v)
	}
	if err != nil {
		cfg, _ := decode(v)
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := v.ReadConfig(bytes.NewReader(stripLineComments(data))); err != nil {
		cfg, _ := decode(newViper())
		return cfg, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	return decode(v)
}

// decode unmarshals v and fills zero-value fields with built-in defaults so
// callers always get a usable Config even if the user only partially fills in
// the file.
func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return defaultConfig(), fmt.Errorf("decoding config: %w", err)
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultBaseDir
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.Outlook.TenantID == "" {
		cfg.Outlook.TenantID = DefaultTenantID
	}
	if cfg.Outlook.ClientID == "" {
		cfg.Outlook.ClientID = DefaultClientID
	}
	if cfg.Outlook.DefaultBlock == "" {
		cfg.Outlook.DefaultBlock = DefaultBlock
	}
	expanded, err := homedir.Expand(cfg.BaseDir)
	if err != nil {
		return cfg, fmt.Errorf("expanding base_dir %q: %w", cfg.BaseDir, err)
	}
	cfg.BaseDir = expanded
	return cfg, nil
}

// defaultConfig returns a Config pre-filled with the built-in defaults, with
// the base directory left unexpanded.
func defaultConfig() Config {
	return Config{
		BaseDir:     DefaultBaseDir,
		LockTimeout: DefaultLockTimeout,
		Outlook: OutlookConfig{
			TenantID:     DefaultTenantID,
			ClientID:     DefaultClientID,
			DefaultBlock: DefaultBlock,
		},
	}
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

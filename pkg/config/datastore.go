package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // the lab runs in Europe/Brussels regardless of the host zone

	"github.com/pelletier/go-toml/v2"
)

const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	DefaultFilename = "secrets.toml"
	// EnvFilename overrides the config path when no flag is given.
	EnvFilename = "TPCOLLECT_CONFIG"
)

// ServiceAccount holds the secret fields of the shared Google service account.
type ServiceAccount struct {
	ProjectID         string `toml:"project_id"`
	PrivateKeyID      string `toml:"private_key_id"`
	PrivateKey        string `toml:"private_key"`
	ClientEmail       string `toml:"client_email"`
	ClientID          string `toml:"client_id"`
	AuthURI           string `toml:"auth_uri"`
	TokenURI          string `toml:"token_uri,omitempty"`
	ClientX509CertURL string `toml:"client_x509_cert_url,omitempty"`
}

type Connections struct {
	GSheets ServiceAccount `toml:"gsheets"`
}

// Store is what gets written to and read from the toml file.
type Store struct {
	Title                 string            `toml:"title"`
	ListenAddress         string            `toml:"listen_address"`
	TimeZone              string            `toml:"time_zone"`
	CacheTTLSeconds       int               `toml:"cache_ttl_seconds"`
	RequestTimeoutSeconds *int              `toml:"request_timeout_seconds"`
	Backend               string            `toml:"backend"`
	SQLitePath            string            `toml:"sqlite_path"`
	CheckHeader           bool              `toml:"check_header"`
	Connections           Connections       `toml:"connections"`
	Resources             map[string]string `toml:"resources"`
}

type Config struct {
	Filename string
	Store    Store
}

// Write the current config out to a toml file.
func (c *Config) Save() error {
	b, err := toml.Marshal(c.Store)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Filename, b, 0600)
}

// Load the current config from a toml file.
func (c *Config) Load() error {
	b, err := os.ReadFile(c.Filename)
	if err != nil {
		return err
	}
	return toml.Unmarshal(b, &c.Store)
}

// NewDatastore loads filename, creating it with defaults when it does not
// exist yet.
func NewDatastore(filename string) (*Config, error) {
	if filename == "" {
		filename = os.Getenv(EnvFilename)
	}
	if filename == "" {
		filename = DefaultFilename
	}
	c := &Config{
		Filename: filename,
	}
	if err := c.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", filename, err)
		}
		c.setDefaults()
		if err := c.Save(); err != nil {
			return nil, err
		}
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) setDefaults() {
	s := &c.Store
	if s.Title == "" {
		s.Title = "LBIR1251 - Travaux pratiques : collecte des données"
	}
	if s.ListenAddress == "" {
		s.ListenAddress = ":8080"
	}
	if s.TimeZone == "" {
		s.TimeZone = "Europe/Brussels"
	}
	if s.RequestTimeoutSeconds == nil {
		d := 30
		s.RequestTimeoutSeconds = &d
	}
	if s.Backend == "" {
		s.Backend = BackendSheets
	}
	if s.SQLitePath == "" {
		s.SQLitePath = "tpcollect.sqlite3"
	}
	if s.Resources == nil {
		s.Resources = make(map[string]string)
	}
}

// Validate checks the settings that would otherwise fail later at request time.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSheets, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Store.Backend)
	}
	if c.Store.CacheTTLSeconds < 0 {
		return fmt.Errorf("cache_ttl_seconds must not be negative")
	}
	if t := c.Store.RequestTimeoutSeconds; t != nil && *t < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative")
	}
	if _, err := time.LoadLocation(c.Store.TimeZone); err != nil {
		return fmt.Errorf("time_zone: %w", err)
	}
	return nil
}

// Location returns the configured time zone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Store.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Store.CacheTTLSeconds) * time.Second
}

// RequestTimeout bounds every remote call. An explicit 0 means unbounded.
func (c *Config) RequestTimeout() time.Duration {
	if c.Store.RequestTimeoutSeconds == nil {
		return 0
	}
	return time.Duration(*c.Store.RequestTimeoutSeconds) * time.Second
}

// ResourceURL resolves a logical resource key.
func (c *Config) ResourceURL(key string) (string, bool) {
	u, ok := c.Store.Resources[key]
	return u, ok && u != ""
}

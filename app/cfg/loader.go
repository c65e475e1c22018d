package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./lostfound.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port           string `long:"port" env:"PORT" default:"5000" description:"HTTP server port"`
	BaseUrl        string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://lostfound.example.edu)"`
	UploadDir      string `long:"upload-dir" env:"UPLOAD_DIR" default:"./uploads" description:"Directory for uploaded item images"`
	CategoriesFile string `long:"categories-file" env:"CATEGORIES_FILE" description:"Optional YAML file with item category aliases"`
	JWTSecret      string `long:"jwt-secret" env:"JWT_SECRET" description:"Secret used to sign session tokens (required)" required:"true"`
	EmailDomain    string `long:"email-domain" env:"EMAIL_DOMAIN" default:"carsu.edu.ph" description:"University email domain accepted for registration"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Manila)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:         raw.DBPath,
		Port:           raw.Port,
		BaseUrl:        raw.BaseUrl,
		UploadDir:      raw.UploadDir,
		CategoriesFile: raw.CategoriesFile,
		JWTSecret:      raw.JWTSecret,
		EmailDomain:    raw.EmailDomain,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// SystemConfig holds process-level settings.
type SystemConfig struct {
	Listen     string `yaml:"listen" json:"listen"`
	Location   string `yaml:"location" json:"location"`
	UploadDir  string `yaml:"upload_dir" json:"upload_dir"`
	ApiTimeout int    `yaml:"api_timeout" json:"api_timeout"` // seconds, upstream calls
}

// WhatsAppConfig holds Cloud API credentials and template settings.
type WhatsAppConfig struct {
	VerifyToken   string `yaml:"verify_token" json:"verify_token"`
	Token         string `yaml:"token" json:"token"`
	PhoneNumberID string `yaml:"phone_number_id" json:"phone_number_id"`
	GraphVersion  string `yaml:"graph_version" json:"graph_version"`
	GraphBaseURL  string `yaml:"graph_base_url" json:"graph_base_url"`
	TemplateName  string `yaml:"template_name" json:"template_name"`
	TemplateLang  string `yaml:"template_lang" json:"template_lang"`
}

// AdminConfig holds dashboard Basic Auth credentials.
type AdminConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// RestoreConfig points at the optional external image-restoration service.
type RestoreConfig struct {
	URL string `yaml:"url" json:"url"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type" json:"type"` // sqlite or postgres
	Path     string `yaml:"path" json:"path"` // sqlite file path
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode" json:"mode"` // development or production
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

// AppConfig is the explicit configuration struct passed to the application;
// nothing reads configuration ambiently after startup.
type AppConfig struct {
	System   SystemConfig   `yaml:"system" json:"system"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp" json:"whatsapp"`
	Admin    AdminConfig    `yaml:"admin" json:"admin"`
	Restore  RestoreConfig  `yaml:"restore" json:"restore"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Logger   LoggerConfig   `yaml:"logger" json:"logger"`
}

// DefaultAppConfig returns the built-in defaults; required secrets stay empty.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SystemConfig{
			Listen:     ":8000",
			Location:   "UTC",
			UploadDir:  "/tmp/warelay_images",
			ApiTimeout: 60,
		},
		WhatsApp: WhatsAppConfig{
			GraphVersion: "v21.0",
			GraphBaseURL: "https://graph.facebook.com",
			TemplateName: "send_photo",
			TemplateLang: "en",
		},
		Admin: AdminConfig{
			Username: "admin",
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			Path:    "warelay.db",
			Port:    5432,
			SSLMode: "disable",
		},
		Logger: LoggerConfig{
			Mode:     "development",
			Filename: "warelay.log",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in that order. Environment variables always win.
func Load(file string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", file, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	setString(&c.System.Listen, "WARELAY_LISTEN")
	setString(&c.System.Location, "WARELAY_TZ")
	setString(&c.System.UploadDir, "UPLOAD_DIR")
	setInt(&c.System.ApiTimeout, "API_TIMEOUT")

	setString(&c.WhatsApp.VerifyToken, "VERIFY_TOKEN")
	setString(&c.WhatsApp.Token, "WHATSAPP_TOKEN")
	setString(&c.WhatsApp.PhoneNumberID, "PHONE_NUMBER_ID")
	setString(&c.WhatsApp.GraphVersion, "GRAPH_VERSION")
	setString(&c.WhatsApp.GraphBaseURL, "GRAPH_BASE_URL")
	setString(&c.WhatsApp.TemplateName, "TEMPLATE_NAME")
	setString(&c.WhatsApp.TemplateLang, "TEMPLATE_LANG")

	setString(&c.Admin.Username, "ADMIN_USERNAME")
	setString(&c.Admin.Password, "ADMIN_PASSWORD")

	setString(&c.Restore.URL, "RESTORE_URL")

	setString(&c.Database.Type, "WARELAY_DB_TYPE")
	setString(&c.Database.Path, "WARELAY_DB_PATH")
	setString(&c.Database.Host, "WARELAY_DB_HOST")
	setInt(&c.Database.Port, "WARELAY_DB_PORT")
	setString(&c.Database.Name, "WARELAY_DB_NAME")
	setString(&c.Database.User, "WARELAY_DB_USER")
	setString(&c.Database.Password, "WARELAY_DB_PASSWORD")
	setString(&c.Database.SSLMode, "WARELAY_DB_SSLMODE")

	setString(&c.Logger.Mode, "WARELAY_LOG_MODE")
	setBool(&c.Logger.FileEnable, "WARELAY_LOG_FILE")
	setString(&c.Logger.Filename, "WARELAY_LOG_FILENAME")
}

// Validate reports the first missing required setting.
func (c *AppConfig) Validate() error {
	switch {
	case c.WhatsApp.VerifyToken == "":
		return fmt.Errorf("config: VERIFY_TOKEN is required")
	case c.WhatsApp.Token == "":
		return fmt.Errorf("config: WHATSAPP_TOKEN is required")
	case c.WhatsApp.PhoneNumberID == "":
		return fmt.Errorf("config: PHONE_NUMBER_ID is required")
	case c.Admin.Password == "":
		return fmt.Errorf("config: ADMIN_PASSWORD is required")
	}
	dbType := strings.ToLower(strings.TrimSpace(c.Database.Type))
	if dbType != "sqlite" && dbType != "postgres" {
		return fmt.Errorf("config: unsupported database type %q", c.Database.Type)
	}
	if c.System.ApiTimeout <= 0 {
		return fmt.Errorf("config: API_TIMEOUT must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = cast.ToInt(v)
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = cast.ToBool(v)
	}
}

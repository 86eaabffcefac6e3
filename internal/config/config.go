package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	APIPort int `yaml:"apiPort"`

	Database struct {
		Type            string `yaml:"type"` // "sqlite" (default) or "postgres"
		Path            string `yaml:"path"`
		Host            string `yaml:"host"`
		Port            string `yaml:"port"`
		Name            string `yaml:"name"`
		User            string `yaml:"user"`
		Password        string `yaml:"password"`
		SSLMode         string `yaml:"sslMode"`
		MaxConns        int    `yaml:"maxConns"`
		MaxIdle         int    `yaml:"maxIdle"`
		ConnMaxLifetime string `yaml:"connMaxLifetime"`
	} `yaml:"database"`

	Session struct {
		Secret   string `yaml:"secret"`
		TTLHours int    `yaml:"ttlHours"`
	} `yaml:"session"`

	Bria struct {
		BaseURL string `yaml:"baseUrl"`
		APIKey  string `yaml:"apiKey"`
	} `yaml:"bria"`

	SMTP struct {
		Server   string `yaml:"server"`
		Port     int    `yaml:"port"`
		Sender   string `yaml:"sender"`
		Password string `yaml:"password"`
		BaseURL  string `yaml:"baseUrl"` // base URL embedded in reset links
	} `yaml:"smtp"`

	S3 struct {
		Endpoint        string `yaml:"endpoint"`
		Region          string `yaml:"region"`
		Bucket          string `yaml:"bucket"`
		AccessKeyID     string `yaml:"accessKeyId"`
		SecretAccessKey string `yaml:"secretAccessKey"`
	} `yaml:"s3"`
}

// ArchiveEnabled reports whether generated images should be copied to object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.S3.Bucket != "" && c.S3.AccessKeyID != ""
}

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, err
		}
		log.Printf("Warning: Could not read config file: %s. Using defaults or environment variables.", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIPort == 0 {
		cfg.APIPort = 8081
		log.Println("APIPort not specified, using default 8081")
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/adsnap.db"
		log.Println("Database path not specified, using default data/adsnap.db")
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.Session.Secret == "" {
		cfg.Session.Secret = v.GetString("ADSNAP_SESSION_SECRET")
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = 24
	}

	if cfg.Bria.BaseURL == "" {
		cfg.Bria.BaseURL = "https://engine.prod.bria-api.com/v1"
	}
	if cfg.Bria.APIKey == "" {
		cfg.Bria.APIKey = v.GetString("BRIA_API_KEY")
	}

	if cfg.SMTP.Server == "" {
		cfg.SMTP.Server = "smtp.gmail.com"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.BaseURL == "" {
		cfg.SMTP.BaseURL = "http://localhost:8081"
	}

	log.Printf("Configuration loaded for port %d (database: %s)", cfg.APIPort, cfg.Database.Type)
	return &cfg, nil
}

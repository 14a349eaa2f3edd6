package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Rooms struct {
		TTLMinutes int    `yaml:"ttl_minutes"`
		JoinURL    string `yaml:"join_url"`
	} `yaml:"rooms"`

	Recording struct {
		BaseURL          string `yaml:"base_url"`
		APIKey           string `yaml:"api_key"`
		APISecret        string `yaml:"api_secret"`
		ListRetries      int    `yaml:"list_retries"`
		ListDelaySeconds int    `yaml:"list_delay_seconds"`
	} `yaml:"recording"`

	Whisper struct {
		Mode   string `yaml:"mode"` // "local" or "api"
		Model  string `yaml:"model"`
		APIKey string `yaml:"api_key"`
		APIURL string `yaml:"api_url"`
	} `yaml:"whisper"`

	Diarization struct {
		SilenceThreshold float64 `yaml:"silence_threshold"`
	} `yaml:"diarization"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Storage struct {
		TempDir       string `yaml:"temp_dir"`
		RecordingsDir string `yaml:"recordings_dir"`
		Database      string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`
}

// Load reads the YAML config file and overlays secrets from the
// environment. A .env file is honored when present.
func Load(path string) (*Config, error) {
	// Secrets come from the environment, optionally seeded by .env.
	// A missing .env is fine, real deployments use plain env vars.
	_ = godotenv.Load()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Rooms.TTLMinutes == 0 {
		cfg.Rooms.TTLMinutes = 60
	}
	if cfg.Recording.ListRetries == 0 {
		cfg.Recording.ListRetries = 4
	}
	if cfg.Recording.ListDelaySeconds == 0 {
		cfg.Recording.ListDelaySeconds = 6
	}
	if cfg.Diarization.SilenceThreshold == 0 {
		cfg.Diarization.SilenceThreshold = 0.5
	}
	if cfg.Workers.Count == 0 {
		cfg.Workers.Count = 2
	}
	if cfg.Storage.TempDir == "" {
		cfg.Storage.TempDir = "temp"
	}
	if cfg.Storage.RecordingsDir == "" {
		cfg.Storage.RecordingsDir = "recordings"
	}
	if cfg.Storage.Database == "" {
		cfg.Storage.Database = "transcripts.db"
	}
	if cfg.Cleanup.IntervalMinutes == 0 {
		cfg.Cleanup.IntervalMinutes = 30
	}
	if cfg.Cleanup.MaxAgeHours == 0 {
		cfg.Cleanup.MaxAgeHours = 24
	}
	if cfg.Whisper.Mode == "" {
		cfg.Whisper.Mode = "local"
	}
	if cfg.Whisper.Model == "" {
		cfg.Whisper.Model = "small"
	}
}

// applyEnv overlays credentials so they never need to live in the yaml file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("RECORDING_API_KEY"); v != "" {
		cfg.Recording.APIKey = v
	}
	if v := os.Getenv("RECORDING_API_SECRET"); v != "" {
		cfg.Recording.APISecret = v
	}
	if v := os.Getenv("RECORDING_BASE_URL"); v != "" {
		cfg.Recording.BaseURL = v
	}
	if v := os.Getenv("WHISPER_API_KEY"); v != "" {
		cfg.Whisper.APIKey = v
	}
}

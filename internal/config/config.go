// Package config provides configuration management for the avatar driver
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Theme     string          `mapstructure:"theme"`
	Avatar    AvatarConfig    `mapstructure:"avatar"`
	Animation AnimationConfig `mapstructure:"animation"`
	Nav       NavConfig       `mapstructure:"nav"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
	Gen       GenConfig       `mapstructure:"gen"`
}

// AvatarConfig configures the avatar's appearance
type AvatarConfig struct {
	ModelPath string  `mapstructure:"model_path"`
	Style     string  `mapstructure:"style"` // cyber, street, gold, stealth
	Scale     float64 `mapstructure:"scale"` // clamped to [0.5, 2.0]
	Tint      string  `mapstructure:"tint"`  // explicit user tint, hex; empty = none
	ArtStyle  string  `mapstructure:"art_style"`
}

// AnimationConfig configures the blender and life scheduler
type AnimationConfig struct {
	FadeDuration    time.Duration `mapstructure:"fade_duration"`
	LifeMinInterval time.Duration `mapstructure:"life_min_interval"`
	LifeMaxInterval time.Duration `mapstructure:"life_max_interval"`
}

// NavConfig configures pointer-driven locomotion
type NavConfig struct {
	WalkSpeed     float64 `mapstructure:"walk_speed"`   // world units/s
	RunSpeed      float64 `mapstructure:"run_speed"`    // world units/s
	RunDistance   float64 `mapstructure:"run_distance"` // switch to run beyond this
	ArriveEpsilon float64 `mapstructure:"arrive_epsilon"`
}

// AudioConfig configures audio capture/playback
type AudioConfig struct {
	InputSampleRate  int `mapstructure:"input_sample_rate"`
	OutputSampleRate int `mapstructure:"output_sample_rate"`
	Channels         int `mapstructure:"channels"`
	FrameSize        int `mapstructure:"frame_size"` // samples per capture frame
}

// RealtimeConfig configures the live session transport
type RealtimeConfig struct {
	ServerURL         string        `mapstructure:"server_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Voice             string        `mapstructure:"voice"`
	SystemInstruction string        `mapstructure:"system_instruction"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout"`
	VideoFrameRate    float64       `mapstructure:"video_frame_rate"` // frames/s in visual mode
	CameraDevice      string        `mapstructure:"camera_device"`
	VideoMaxDim       int           `mapstructure:"video_max_dim"` // longest JPEG edge sent upstream
}

// GenConfig configures the text/image generation backend
type GenConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Theme: "cyberpunk",
		Avatar: AvatarConfig{
			ModelPath: "assets/models/robot.glb",
			Style:     "stealth",
			Scale:     1.0,
			Tint:      "",
			ArtStyle:  "street",
		},
		Animation: AnimationConfig{
			FadeDuration:    300 * time.Millisecond,
			LifeMinInterval: 8 * time.Second,
			LifeMaxInterval: 18 * time.Second,
		},
		Nav: NavConfig{
			WalkSpeed:     1.2,
			RunSpeed:      3.0,
			RunDistance:   4.0,
			ArriveEpsilon: 0.1,
		},
		Audio: AudioConfig{
			InputSampleRate:  16000,
			OutputSampleRate: 24000,
			Channels:         1,
			FrameSize:        4096,
		},
		Realtime: RealtimeConfig{
			ServerURL:        "wss://localhost:8443/v1/live",
			Model:            "native-audio-live",
			Voice:            "charon",
			HandshakeTimeout: 10 * time.Second,
			VideoFrameRate:   1.0,
			CameraDevice:     "/dev/video0",
			VideoMaxDim:      640,
		},
		Gen: GenConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configDir, err := GetConfigDir()
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("GBOT")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the configuration to file
func Save(cfg *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("theme", cfg.Theme)
	viper.Set("avatar", cfg.Avatar)
	viper.Set("animation", cfg.Animation)
	viper.Set("nav", cfg.Nav)
	viper.Set("audio", cfg.Audio)
	viper.Set("realtime", cfg.Realtime)
	viper.Set("gen", cfg.Gen)

	return viper.WriteConfigAs(filepath.Join(configDir, "config.yaml"))
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".gbot"), nil
}

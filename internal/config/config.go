package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultHost = "0.0.0.0"
	DefaultPort = "3001"
)

type DailyConfig struct {
	APIKey   string
	APIURL   string
	DomainId string
}

type LiveKitConfig struct {
	URL       string
	APIKey    string
	APISecret string
}

type Config struct {
	ServerAddr     string
	AllowedOrigins []string
	StaticDir      string
	Daily          DailyConfig
	LiveKit        LiveKitConfig
}

// LoadDotEnv loads variables from the given files, or .env when none are
// given. Variables already set in the environment win. A missing file is not
// an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Getenv returns the value of key, or def when it is unset or empty.
func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// AddrFromEnv joins BACKEND_HOST and BACKEND_PORT.
func AddrFromEnv() string {
	return net.JoinHostPort(Getenv("BACKEND_HOST", DefaultHost), Getenv("BACKEND_PORT", DefaultPort))
}

func DailyFromEnv() DailyConfig {
	return DailyConfig{
		APIKey:   os.Getenv("DAILY_API_KEY"),
		APIURL:   os.Getenv("DAILY_API_URL"),
		DomainId: os.Getenv("DAILY_DOMAIN_ID"),
	}
}

func LiveKitFromEnv() LiveKitConfig {
	return LiveKitConfig{
		URL:       os.Getenv("LIVEKIT_URL"),
		APIKey:    os.Getenv("LIVEKIT_API_KEY"),
		APISecret: os.Getenv("LIVEKIT_API_SECRET"),
	}
}

// SplitOrigins parses a comma-separated origin list, dropping blanks.
func SplitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func NewConfig(serverAddr string, allowedOrigins []string, staticDir string, daily DailyConfig, livekit LiveKitConfig) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if _, _, err := net.SplitHostPort(serverAddr); err != nil {
		return nil, fmt.Errorf("invalid server address: %w", err)
	}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	if staticDir != "" {
		info, err := os.Stat(staticDir)
		if err != nil {
			return nil, fmt.Errorf("static dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("static dir %q is not a directory", staticDir)
		}
	}

	set := 0
	for _, v := range []string{livekit.URL, livekit.APIKey, livekit.APISecret} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return nil, fmt.Errorf("livekit requires LIVEKIT_URL, LIVEKIT_API_KEY and LIVEKIT_API_SECRET together")
	}

	return &Config{
		ServerAddr:     serverAddr,
		AllowedOrigins: allowedOrigins,
		StaticDir:      staticDir,
		Daily:          daily,
		LiveKit:        livekit,
	}, nil
}

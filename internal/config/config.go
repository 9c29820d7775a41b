// BYZRA ⸻ internal/config/config.go
// config loading & management

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"morphra/internal/formats"
)

// durations are written as strings in TOML ("2s", "150ms")
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Convert struct {
		Target      string   `toml:"target"`
		Recurse     bool     `toml:"recurse"`
		JPEGQuality int      `toml:"jpeg_quality"`
		AutoOrient  bool     `toml:"auto_orient"`
		Pace        Duration `toml:"pace"`
	} `toml:"convert"`
	Tools struct {
		DWebP   string `toml:"dwebp"`
		AVIFDec string `toml:"avifdec"`
		CWebP   string `toml:"cwebp"`
		AVIFEnc string `toml:"avifenc"`
	} `toml:"tools"`
	Watch struct {
		Paths       []string `toml:"paths"`
		Recursive   bool     `toml:"recursive"`
		MinFileAge  Duration `toml:"min_file_age"`
		ExcludeDirs []string `toml:"exclude_dirs"`
	} `toml:"watch"`
	Log struct {
		Path    string `toml:"path"`
		Verbose bool   `toml:"verbose"`
		MaxSize int64  `toml:"max_size"`
	} `toml:"log"`

	// file the values came from, empty for defaults
	Source string `toml:"-"`
}

// ~/.morphra
func HomeDir() string {
	return filepath.Join(os.Getenv("HOME"), ".morphra")
}

// search order when no explicit path is given
func SearchPaths() []string {
	return []string{
		"config/morphra.toml",
		"./morphra.toml",
		filepath.Join(HomeDir(), "config", "morphra.toml"),
	}
}

// returns default config values
func GetDefaultConfig() *Config {
	config := &Config{}
	config.Convert.Target = "png"
	config.Convert.JPEGQuality = formats.DefaultJPEGQuality

	config.Tools.DWebP = "dwebp"
	config.Tools.AVIFDec = "avifdec"
	config.Tools.CWebP = "cwebp"
	config.Tools.AVIFEnc = "avifenc"

	config.Watch.Paths = []string{
		filepath.Join(os.Getenv("HOME"), "Downloads"),
	}
	config.Watch.MinFileAge = Duration{2 * time.Second}
	config.Watch.ExcludeDirs = []string{".git", "node_modules"}

	config.Log.Path = filepath.Join(HomeDir(), "logs", "morphra.log")
	config.Log.MaxSize = 10 << 20

	return config
}

// loads the config from path, or the first file found in the search paths,
// or the defaults when there is none
func LoadConfig(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		for _, candidate := range SearchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
	}

	config := GetDefaultConfig()
	if configPath == "" {
		return config, nil
	}

	// decode over the defaults so missing keys keep them
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.Source = configPath

	// filter out commented paths
	var activePaths []string
	for _, p := range config.Watch.Paths {
		if len(p) > 0 && p[0] != '#' {
			activePaths = append(activePaths, expandHome(p))
		}
	}
	config.Watch.Paths = activePaths
	config.Log.Path = expandHome(config.Log.Path)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if _, err := formats.ParseTarget(c.Convert.Target); err != nil {
		return fmt.Errorf("invalid convert.target: %w", err)
	}
	if c.Convert.JPEGQuality < 1 || c.Convert.JPEGQuality > 100 {
		return fmt.Errorf("invalid convert.jpeg_quality %d: must be 1-100", c.Convert.JPEGQuality)
	}
	if c.Convert.Pace.Duration < 0 {
		return fmt.Errorf("invalid convert.pace: negative duration")
	}
	return nil
}

// overrides [convert] values with a profile table
func (c *Config) ApplyProfile(profile map[string]string) error {
	for key, value := range profile {
		switch strings.ToLower(key) {
		case "target":
			c.Convert.Target = value
		case "recurse":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("profile field recurse: %w", err)
			}
			c.Convert.Recurse = b
		case "jpeg_quality":
			q, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("profile field jpeg_quality: %w", err)
			}
			c.Convert.JPEGQuality = q
		case "auto_orient":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("profile field auto_orient: %w", err)
			}
			c.Convert.AutoOrient = b
		}
	}
	return c.Validate()
}

// saves the current configuration to a file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Open file for writing
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(config)
}

func expandHome(path string) string {
	if path == "~" {
		return os.Getenv("HOME")
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(os.Getenv("HOME"), path[2:])
	}
	return path
}

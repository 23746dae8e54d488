package dashboard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Config customizes the look of the dashboard.
type Config struct {
	AppTitle            string `yaml:"app_title"`
	ThemeColor          string `yaml:"theme_color"`
	ThemeColorSecondary string `yaml:"theme_color_secondary"`
}

// DefaultConfig returns the configuration used when there is no config file.
func DefaultConfig() Config {
	return Config{
		AppTitle:            "Portfolio Optimization",
		ThemeColor:          "#2d4376",
		ThemeColorSecondary: "#074C91",
	}
}

// LoadConfig reads a YAML config file. Missing keys keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	return cfg, nil
}

// ThemeFile is the name of the generated theme stylesheet.
const ThemeFile = "custom_00_theme.css"

// ThemeCSS returns the stylesheet defining the theme colors as css variables.
func (c Config) ThemeCSS() string {
	return fmt.Sprintf(`/* Automatically generated theme settings css file, see dashboard/config.go */
:root {
    --theme: %s;
    --theme-secondary: %s;
}
`, c.ThemeColor, c.ThemeColorSecondary)
}

// WriteThemeCSS writes the theme stylesheet in the directory 'dir'.
func (c Config) WriteThemeCSS(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ThemeFile), []byte(c.ThemeCSS()), 0o644)
}

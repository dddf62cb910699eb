package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGenAI()
	c.normalizeSerializer()
	c.normalizeSheetLog()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AssetsDir) == "" {
		c.Paths.AssetsDir = defaultAssetsDir
	}
	if c.Paths.AssetsDir, err = expandPath(c.Paths.AssetsDir); err != nil {
		return fmt.Errorf("paths.assets_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeGenAI() {
	c.GenAI.APIKey = strings.TrimSpace(c.GenAI.APIKey)
	if c.GenAI.APIKey == "" {
		if value, ok := os.LookupEnv("REELSMITH_API_KEY"); ok {
			c.GenAI.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.GenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.GenAI.BaseURL = strings.TrimSpace(c.GenAI.BaseURL)
	if c.GenAI.BaseURL == "" {
		c.GenAI.BaseURL = defaultGenAIBaseURL
	}
	c.GenAI.Model = strings.TrimSpace(c.GenAI.Model)
	if c.GenAI.Model == "" {
		c.GenAI.Model = defaultGenAIModel
	}
	c.GenAI.ImageModel = strings.TrimSpace(c.GenAI.ImageModel)
	if c.GenAI.ImageModel == "" {
		c.GenAI.ImageModel = defaultGenAIImageModel
	}
	c.GenAI.Referer = strings.TrimSpace(c.GenAI.Referer)
	if c.GenAI.Referer == "" {
		c.GenAI.Referer = defaultGenAIReferer
	}
	c.GenAI.Title = strings.TrimSpace(c.GenAI.Title)
	if c.GenAI.Title == "" {
		c.GenAI.Title = defaultGenAITitle
	}
	if c.GenAI.TimeoutSeconds <= 0 {
		c.GenAI.TimeoutSeconds = defaultGenAITimeout
	}
}

func (c *Config) normalizeSerializer() {
	if c.Serializer.CooldownSeconds <= 0 {
		c.Serializer.CooldownSeconds = defaultCooldownSeconds
	}
}

func (c *Config) normalizeSheetLog() {
	c.SheetLog.WebhookURL = strings.TrimSpace(c.SheetLog.WebhookURL)
	if c.SheetLog.WebhookURL == "" {
		if value, ok := os.LookupEnv("REELSMITH_SHEET_WEBHOOK"); ok {
			c.SheetLog.WebhookURL = strings.TrimSpace(value)
		}
	}
	if c.SheetLog.RequestTimeout <= 0 {
		c.SheetLog.RequestTimeout = defaultSheetLogTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

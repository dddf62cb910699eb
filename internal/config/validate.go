package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGenAI(); err != nil {
		return err
	}
	if err := c.validateSerializer(); err != nil {
		return err
	}
	if err := c.validateSheetLog(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGenAI() error {
	if c.GenAI.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelsmith/config.toml"
		}
		return fmt.Errorf("genai.api_key is required. Set REELSMITH_API_KEY env var or edit %s (create with 'reelsmith config init')", defaultPath)
	}
	if err := requireHTTPURL("genai.base_url", c.GenAI.BaseURL); err != nil {
		return err
	}
	if c.GenAI.Model == "" {
		return errors.New("genai.model must be set")
	}
	if c.GenAI.TimeoutSeconds <= 0 {
		return errors.New("genai.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSerializer() error {
	if c.Serializer.CooldownSeconds <= 0 {
		return errors.New("serializer.cooldown_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSheetLog() error {
	if strings.TrimSpace(c.SheetLog.WebhookURL) == "" {
		return nil
	}
	if err := requireHTTPURL("sheetlog.webhook_url", c.SheetLog.WebhookURL); err != nil {
		return err
	}
	if c.SheetLog.RequestTimeout <= 0 {
		return errors.New("sheetlog.request_timeout must be positive (seconds)")
	}
	return nil
}

func requireHTTPURL(key, value string) error {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", key)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}

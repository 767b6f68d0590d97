package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := validateHTTPURL(c.Pipeline.BaseURL); err != nil {
		return fmt.Errorf("pipeline.base_url: %w", err)
	}
	if err := validateWebsocketURL(c.Stream.URL); err != nil {
		return fmt.Errorf("stream.url: %w", err)
	}
	if c.Pipeline.Timeout <= 0 {
		return fmt.Errorf("pipeline.timeout must be > 0 (got %v)", c.Pipeline.Timeout)
	}
	if c.Store.Capacity <= 0 {
		return fmt.Errorf("store.capacity must be > 0 (got %d)", c.Store.Capacity)
	}
	if c.Store.TTL <= 0 {
		return fmt.Errorf("store.ttl must be > 0 (got %v)", c.Store.TTL)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func validateWebsocketURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("scheme must be ws or wss (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

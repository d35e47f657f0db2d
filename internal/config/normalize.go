package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOrganize()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SourceRoot, err = expandPath(c.Paths.SourceRoot); err != nil {
		return fmt.Errorf("paths.source_root: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOrganize() {
	c.Organize.Mode = strings.ToLower(strings.TrimSpace(c.Organize.Mode))
	if c.Organize.Mode == "" {
		c.Organize.Mode = defaultMode
	}
	c.Organize.FallbackBucket = strings.TrimSpace(c.Organize.FallbackBucket)
	if c.Organize.FallbackBucket == "" {
		c.Organize.FallbackBucket = defaultFallbackBucket
	}
	c.Organize.DateFormat = strings.TrimSpace(c.Organize.DateFormat)
	if c.Organize.DateFormat == "" {
		c.Organize.DateFormat = defaultDateFormat
	}
	c.Organize.Timezone = strings.TrimSpace(c.Organize.Timezone)
	if c.Organize.CollisionSuffixCap <= 0 {
		c.Organize.CollisionSuffixCap = defaultCollisionSuffixCap
	}
	if len(c.Organize.Rules) == 0 {
		c.Organize.Rules = DefaultRules()
	}
	for i := range c.Organize.Rules {
		rule := &c.Organize.Rules[i]
		rule.Destination = strings.TrimSpace(rule.Destination)
		for j, ext := range rule.Extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext != "" && !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			rule.Extensions[j] = ext
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

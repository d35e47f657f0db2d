package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SourceRoot) == "" {
		return errors.New("paths.source_root must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateOrganize() error {
	switch c.Organize.Mode {
	case ModeType, ModeDate:
	default:
		return fmt.Errorf("organize.mode must be %q or %q, got %q", ModeType, ModeDate, c.Organize.Mode)
	}
	if c.Organize.CollisionSuffixCap <= 0 {
		return errors.New("organize.collision_suffix_cap must be positive")
	}
	if c.Organize.Timezone != "" {
		if _, err := time.LoadLocation(c.Organize.Timezone); err != nil {
			return fmt.Errorf("organize.timezone: %w", err)
		}
	}
	if c.Organize.Mode == ModeDate {
		if strings.TrimSpace(c.Organize.DateFormat) == "" {
			return errors.New("organize.date_format must be set in date mode")
		}
		// Date buckets must be single folder names, otherwise the planner
		// cannot recognize its own output on the next pass.
		if rendered := time.Now().Format(c.Organize.DateFormat); strings.ContainsAny(rendered, `/\`) {
			return fmt.Errorf("organize.date_format must render a bare folder name, got %q", rendered)
		}
	}
	seen := make(map[string]struct{})
	for i, rule := range c.Organize.Rules {
		if rule.Destination == "" {
			return fmt.Errorf("organize.rules[%d].destination must be set", i)
		}
		if strings.ContainsAny(rule.Destination, `/\`) {
			return fmt.Errorf("organize.rules[%d].destination must be a bare folder name, got %q", i, rule.Destination)
		}
		if len(rule.Extensions) == 0 {
			return fmt.Errorf("organize.rules[%d].extensions must not be empty", i)
		}
		for _, ext := range rule.Extensions {
			if ext == "" || ext == "." {
				return fmt.Errorf("organize.rules[%d] contains an empty extension", i)
			}
			if _, dup := seen[ext]; dup {
				return fmt.Errorf("extension %q appears in more than one rule", ext)
			}
			seen[ext] = struct{}{}
		}
	}
	if strings.ContainsAny(c.Organize.FallbackBucket, `/\`) {
		return fmt.Errorf("organize.fallback_bucket must be a bare folder name, got %q", c.Organize.FallbackBucket)
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.FlushIntervalSeconds <= 0 {
		return errors.New("watch.flush_interval_seconds must be positive")
	}
	if c.Watch.QuietPeriodSeconds <= 0 {
		return errors.New("watch.quiet_period_seconds must be positive")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.Enabled && c.Scheduler.IntervalMinutes <= 0 {
		return errors.New("scheduler.interval_minutes must be positive when scheduler.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

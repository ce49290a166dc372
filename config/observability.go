package config

import (
	"strings"
	"time"
)

const defaultObservabilityName = "berana"

// ObservabilityConfig groups configuration that controls metrics emission
// and broadcast failure alerting.
type ObservabilityConfig struct {
	Metrics ObservabilityMetricsConfig
	Alerts  ObservabilityAlertsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Alerts.Sanitize()
}

// ObservabilityMetricsConfig controls emission of metrics to a StatsD sink.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityAlertsConfig controls outbound broadcast failure alerts.
type ObservabilityAlertsConfig struct {
	Enabled    bool                 `env:"OBSERVABILITY_ALERTS_ENABLED"     envDefault:"false"`
	Timeout    time.Duration        `env:"OBSERVABILITY_ALERTS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int                  `env:"OBSERVABILITY_ALERTS_RETRY_LIMIT" envDefault:"3"`
	Slack      SlackAlertConfig     `                                                        envPrefix:"OBSERVABILITY_ALERTS_SLACK_"`
	PagerDuty  PagerDutyAlertConfig `                                                        envPrefix:"OBSERVABILITY_ALERTS_PAGERDUTY_"`
}

// Sanitize normalises alert configuration values.
func (c *ObservabilityAlertsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}

	c.Slack.sanitize()
	c.PagerDuty.sanitize()

	if !c.Enabled {
		c.Slack.Enabled = false
		c.PagerDuty.Enabled = false
		return
	}

	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		c.Slack.Enabled = false
	}
	if c.PagerDuty.Enabled && c.PagerDuty.RoutingKey == "" {
		c.PagerDuty.Enabled = false
	}
}

// SlackAlertConfig controls Slack webhook fan-out.
type SlackAlertConfig struct {
	Enabled        bool   `env:"ENABLED"          envDefault:"false"`
	WebhookURL     string `env:"WEBHOOK_URL"`
	Channel        string `env:"CHANNEL"`
	Username       string `env:"USERNAME"         envDefault:"berana"`
	IssueURLPrefix string `env:"ISSUE_URL_PREFIX"`
}

func (c *SlackAlertConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	c.IssueURLPrefix = strings.TrimSpace(c.IssueURLPrefix)
	if c.Username = strings.TrimSpace(c.Username); c.Username == "" {
		c.Username = defaultObservabilityName
	}
}

// PagerDutyAlertConfig controls PagerDuty Events API v2 fan-out.
type PagerDutyAlertConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	RoutingKey string `env:"ROUTING_KEY"`
	Source     string `env:"SOURCE"      envDefault:"berana"`
	Component  string `env:"COMPONENT"   envDefault:"berana"`
}

func (c *PagerDutyAlertConfig) sanitize() {
	c.RoutingKey = strings.TrimSpace(c.RoutingKey)
	if c.Source = strings.TrimSpace(c.Source); c.Source == "" {
		c.Source = defaultObservabilityName
	}
	if c.Component = strings.TrimSpace(c.Component); c.Component == "" {
		c.Component = defaultObservabilityName
	}
}

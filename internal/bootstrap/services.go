package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/beranamag/berana/config"
	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/observability/notify/pagerduty"
	"github.com/beranamag/berana/internal/observability/notify/slack"
	"github.com/beranamag/berana/internal/observability/statsd"
	"github.com/beranamag/berana/internal/service"
	"github.com/beranamag/berana/internal/service/alerter"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthService
	Articles      *service.ArticleService
	Poems         *service.PoemService
	Issues        *service.IssueService
	Submissions   *service.SubmissionService
	Newsletter    *service.NewsletterService
	Notifications *service.NotificationService
	Users         *service.UserService

	// Metrics is nil when OBSERVABILITY_METRICS_ENABLED is off or the
	// statsd socket could not be opened; callers must tolerate nil.
	Metrics *statsd.Client
	Alerter *alerter.Service
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing the service layer.
type serviceRepositories struct {
	Users       *data.UserRepo
	Articles    *data.ArticleRepo
	Poems       *data.PoemRepo
	Issues      *data.IssueRepo
	Submissions *data.SubmissionRepo
	Subscribers *data.SubscriberRepo
	Cache       *data.RedisCacheRepo
}

func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	repos := &serviceRepositories{
		Users:       data.NewUserRepo(db),
		Articles:    data.NewArticleRepo(db),
		Poems:       data.NewPoemRepo(db),
		Issues:      data.NewIssueRepo(db),
		Submissions: data.NewSubmissionRepo(db),
		Subscribers: data.NewSubscriberRepo(db),
	}
	if redisClient != nil {
		repos.Cache = data.NewRedisCacheRepo(redisClient)
	}
	return repos
}

// NewServices wires repositories into the service container.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.DB == nil {
		return ServiceContainer{}, fmt.Errorf("config and database are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB, deps.RedisClient)
	cfg := deps.Config

	authService, err := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		BaseURL:     cfg.HTTP.BaseURL,
		Users:       repos.Users,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}

	issueService := service.NewIssueService(repos.Issues)

	metricsClient := buildMetrics(logger, cfg.Observability.Metrics)
	alertService := buildAlerter(logger, cfg.Observability.Alerts)

	var guard service.BroadcastGuard
	var feedCache service.FeedCache
	if repos.Cache != nil {
		guard = repos.Cache
		feedCache = repos.Cache
	}

	var metricsSink statsd.Sink
	if metricsClient != nil {
		metricsSink = metricsClient
	}

	newsletterService := service.NewNewsletterService(service.NewsletterServiceOptions{
		Subscribers: repos.Subscribers,
		Issues:      repos.Issues,
		Guard:       guard,
		Concurrency: cfg.Newsletter.BroadcastConcurrency,
		Metrics:     metricsSink,
		Alerts:      alertService,
	})

	notificationService := service.NewNotificationService(service.NotificationServiceOptions{
		Submissions: repos.Submissions,
		Subscribers: repos.Subscribers,
		Cache:       feedCache,
	})

	return ServiceContainer{
		Auth:          authService,
		Articles:      service.NewArticleService(repos.Articles),
		Poems:         service.NewPoemService(repos.Poems),
		Issues:        issueService,
		Submissions:   service.NewSubmissionService(repos.Submissions),
		Newsletter:    newsletterService,
		Notifications: notificationService,
		Users:         service.NewUserService(repos.Users),
		Metrics:       metricsClient,
		Alerter:       alertService,
	}, nil
}

// buildMetrics opens the statsd client when metrics are enabled. A dial
// failure is logged and metrics are skipped; the app still starts.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  "berana",
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

func buildAlerter(logger *slog.Logger, cfg config.ObservabilityAlertsConfig) *alerter.Service {
	alertLogger := logger.With("component", "alerter")
	if !cfg.Enabled {
		return alerter.NewService(alerter.Options{Logger: alertLogger})
	}

	sinks := make([]alerter.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:     cfg.Slack.WebhookURL,
			Channel:        cfg.Slack.Channel,
			Username:       cfg.Slack.Username,
			Timeout:        cfg.Timeout,
			RetryLimit:     cfg.RetryLimit,
			IssueURLPrefix: cfg.Slack.IssueURLPrefix,
		})
		if err != nil {
			logger.Error("failed to initialise slack alert sink", "error", err)
		} else {
			sinks = append(sinks, alerter.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise pagerduty alert sink", "error", err)
		} else {
			sinks = append(sinks, alerter.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return alerter.NewService(alerter.Options{Logger: alertLogger, Sinks: sinks})
}

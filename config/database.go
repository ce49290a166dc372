package config

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"berana"`
	Password string `env:"PASSWORD" envDefault:"berana"`
	Name     string `env:"NAME"     envDefault:"berana"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// NewsletterConfig contains newsletter broadcast configuration.
type NewsletterConfig struct {
	// BroadcastConcurrency bounds the errgroup fan-out when announcing
	// a new issue to subscribers.
	BroadcastConcurrency int `env:"BROADCAST_CONCURRENCY" envDefault:"8"`
}

// Sanitize applies guardrails to newsletter configuration values.
func (n *NewsletterConfig) Sanitize() {
	if n.BroadcastConcurrency < 1 {
		n.BroadcastConcurrency = 8
	}
	if n.BroadcastConcurrency > 64 {
		n.BroadcastConcurrency = 64
	}
}

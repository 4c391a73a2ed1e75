package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type CampaignConfig struct {
	Env          string `yaml:"env"`
	MetricsPort  string `yaml:"metrics_port" env-default:"9090"`
	HTTPServer   `yaml:"http_server"`
	CampaignDB   `yaml:"campaign_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	BinomAPI     `yaml:"binom-api"`
	Distribution `yaml:"distribution"`
}

type HTTPServer struct {
	Host string `yaml:"host" env-default:"0.0.0.0"`
	Port string `yaml:"port" env-default:"8080"`
}

type CampaignDB struct {
	Dsn            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
}

type KafkaService struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	OrderReadyTopic string `yaml:"order_ready_topic" env-default:"order-ready-events"`
	AssignmentTopic string `yaml:"assignment_topic" env-default:"assignment-events"`
	DeadLetterTopic string `yaml:"dead_letter_topic" env-default:"dead-letter-events"`
	ConsumerGroupID string `yaml:"consumer_group_id" env-default:"campaign-distribution"`
}

type BinomAPI struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key" env:"BINOM_API_KEY"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

type Distribution struct {
	DefaultCoefficient float64       `yaml:"default_coefficient" env-default:"3.0"`
	MaxRetries         int           `yaml:"max_retries" env-default:"3"`
	RetryInitialDelay  time.Duration `yaml:"retry_initial_delay" env-default:"5m"`
	RetryMaxDelay      time.Duration `yaml:"retry_max_delay" env-default:"24h"`
	RetryBackoffFactor float64       `yaml:"retry_backoff_factor" env-default:"2.0"`
	GatewayMaxAttempts int           `yaml:"gateway_max_attempts" env-default:"3"`
	GatewayRetryDelay  time.Duration `yaml:"gateway_retry_delay" env-default:"500ms"`
	BreakerThreshold   int           `yaml:"breaker_threshold" env-default:"5"`
	BreakerCooldown    time.Duration `yaml:"breaker_cooldown" env-default:"30s"`
	WorkerPoolSize     int           `yaml:"worker_pool_size" env-default:"8"`
	AssignmentTimeout  time.Duration `yaml:"assignment_timeout" env-default:"2m"`
	RetryScanInterval  time.Duration `yaml:"retry_scan_interval" env-default:"1m"`
	StatsSyncInterval  time.Duration `yaml:"stats_sync_interval" env-default:"5m"`
}

func MustLoad() *CampaignConfig {

	// Processing env config variable and file
	configPath := os.Getenv("CAMPAIGN_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("CAMPAIGN_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg CampaignConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}

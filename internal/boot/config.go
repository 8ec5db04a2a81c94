package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env     string `env:"ENV,default=dev"`
	DataDir string `env:"DATA_DIR,default=./data"`
	Server  struct {
		Port        string `env:"PORT,default=8080"`
		MetricsPort string `env:"METRICS_PORT,default=8081"`
		Origins     string `env:"ALLOWED_ORIGINS,default=*"`
	}
	Threads struct {
		BaseURL     string `env:"THREADS_API_BASE_URL,default=https://graph.threads.net/v1.0"`
		AccessToken string `env:"THREADS_ACCESS_TOKEN"`
		UserID      string `env:"THREADS_USER_ID"`
	}
	Publish struct {
		// ProcessingWait is how long to wait after container creation for the
		// platform to finish processing media before the publish call.
		ProcessingWait    time.Duration `env:"PUBLISH_PROCESSING_WAIT,default=30s"`
		CarouselItemPause time.Duration `env:"PUBLISH_CAROUSEL_ITEM_PAUSE,default=2s"`
		PostPause         time.Duration `env:"PUBLISH_POST_PAUSE,default=10s"`
		BatchLimit        int           `env:"PUBLISH_BATCH_LIMIT,default=10"`
	}
}

func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(context.Background(), config); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}

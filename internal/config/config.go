package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port          int    `env:"PORT"            envDefault:"8080"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" envDefault:"104857600"`
	UploadDir     string `env:"UPLOAD_DIR"      envDefault:"./uploads"`

	DBType     string `env:"DB_TYPE"     envDefault:"sqlite"`
	DBHost     string `env:"DB_HOST"     envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT"     envDefault:"5432"`
	DBUser     string `env:"DB_USER"     envDefault:"framecast"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"framecast_dev"`
	DBName     string `env:"DB_NAME"     envDefault:"framecast"`
	SQLitePath string `env:"DB_PATH"     envDefault:"./framecast.db"`

	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`

	ExtractWorkers int `env:"EXTRACT_WORKERS" envDefault:"2"`
	JPEGQuality    int `env:"JPEG_QUALITY"    envDefault:"90"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

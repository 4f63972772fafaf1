package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	StorageDriverRedis = "redis"
	StorageDriverFile  = "file"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	Storage  StorageConfig
	Reminder ReminderConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"127.0.0.1"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" env-default:"file"`
	Redis  RedisConfig
	File   FileStorageConfig
}

type RedisConfig struct {
	Host           string        `env:"REDIS_HOST" env-default:"localhost"`
	Port           int           `env:"REDIS_PORT" env-default:"6379"`
	Database       int           `env:"REDIS_DATABASE" env-default:"0"`
	Password       string        `env:"REDIS_PASSWORD" env-default:""`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"REDIS_PING_TIMEOUT" env-default:"10s"`
}

type FileStorageConfig struct {
	DataDir string `env:"FILE_STORAGE_DATA_DIR" env-default:"data"`
}

type ReminderConfig struct {
	// PermissionGranted mirrors the OS notification permission prompt.
	// When false, reminder scheduling degrades to a silent no-op.
	PermissionGranted bool `env:"REMINDER_PERMISSION_GRANTED" env-default:"true"`
}

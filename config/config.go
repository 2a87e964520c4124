package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Storage: "mongo" or "memory".
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DatabaseName  string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisLockDB      int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB     int    `mapstructure:"REDIS_QUEUE_DB"`
	DistributedLocks bool   `mapstructure:"DISTRIBUTED_LOCKS"`
	TaskQueueEnabled bool   `mapstructure:"TASK_QUEUE_ENABLED"`

	// Push fallback. Empty disables FCM.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	RealtimeSendTimeout         time.Duration `mapstructure:"REALTIME_SEND_TIMEOUT"`
	NotificationPersistAttempts int           `mapstructure:"NOTIFICATION_PERSIST_ATTEMPTS"`
	ShutdownTimeout             time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("STORAGE_DRIVER", "mongo")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "joservice")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_LOCK_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DISTRIBUTED_LOCKS", false)
	viper.SetDefault("TASK_QUEUE_ENABLED", false)
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("REALTIME_SEND_TIMEOUT", "2s")
	viper.SetDefault("NOTIFICATION_PERSIST_ATTEMPTS", 3)
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// UsesMemoryStore reports whether repositories should be backed by process memory.
func UsesMemoryStore() bool {
	return AppConfig.StorageDriver == "memory"
}

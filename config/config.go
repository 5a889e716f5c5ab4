package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 存储配置
	StorageType      string `mapstructure:"storage_type"`
	LocalStoragePath string `mapstructure:"local_storage_path"`

	MinioEndpoint        string `mapstructure:"minio_endpoint"`
	MinioAccessKeyID     string `mapstructure:"minio_access_key_id"`
	MinioSecretAccessKey string `mapstructure:"minio_secret_access_key"`
	MinioBucketName      string `mapstructure:"minio_bucket_name"`
	MinioUseSSL          bool   `mapstructure:"minio_use_ssl"`
	MinioMaxIdleConns    int    `mapstructure:"minio_max_idle_conns"`

	// 上传配置
	UploadMaxSizeMB      int `mapstructure:"upload_max_size_mb"`
	PresignExpiryMinutes int `mapstructure:"presign_expiry_minutes"`

	// 缓存配置
	CacheType          string        `mapstructure:"cache_type"`
	CacheRedisAddr     string        `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string        `mapstructure:"cache_redis_password"`
	CacheRedisDB       int           `mapstructure:"cache_redis_db"`
	StatsCacheTTL      time.Duration `mapstructure:"stats_cache_ttl"`

	// 限流配置
	RateLimitApiRPS    float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst  int           `mapstructure:"rate_limit_api_burst"`
	RateLimitAuthRPS   float64       `mapstructure:"rate_limit_auth_rps"`
	RateLimitAuthBurst int           `mapstructure:"rate_limit_auth_burst"`

	// JWT 配置
	JWTSecret           string        `mapstructure:"jwt_secret"`
	JWTExpiresIn        time.Duration `mapstructure:"jwt_expires_in"`
	JWTRefreshExpiresIn time.Duration `mapstructure:"jwt_refresh_expires_in"`
}

// Addr 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MaxUploadBytes 上传大小上限（字节）
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.UploadMaxSizeMB) * 1024 * 1024
}

// PresignExpiry 预签名 URL 有效期
func (c *Config) PresignExpiry() time.Duration {
	return time.Duration(c.PresignExpiryMinutes) * time.Minute
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Info: .env file not found, using defaults and environment variables")
	} else {
		fmt.Fprintln(os.Stderr, "Info: Loaded configuration from .env file")
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器配置默认值
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "30s")
	viper.SetDefault("server_write_timeout", "30s")
	viper.SetDefault("server_idle_timeout", "120s")

	// 数据库配置默认值
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_file_path", "./data/gallery.db")
	viper.SetDefault("db_max_open_conns", 100)
	viper.SetDefault("db_max_idle_conns", 10)
	viper.SetDefault("db_conn_max_lifetime", 3600)

	// 存储配置默认值
	viper.SetDefault("storage_type", "minio")
	viper.SetDefault("local_storage_path", "")
	viper.SetDefault("minio_bucket_name", "gallery")
	viper.SetDefault("minio_use_ssl", false)

	// 上传配置默认值
	viper.SetDefault("upload_max_size_mb", 5)
	viper.SetDefault("presign_expiry_minutes", 30)

	// 缓存配置默认值
	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_db", 0)
	viper.SetDefault("stats_cache_ttl", "60s")

	// 限流配置默认值
	viper.SetDefault("rate_limit_api_rps", 50.0)
	viper.SetDefault("rate_limit_api_burst", 100)
	viper.SetDefault("rate_limit_auth_rps", 5.0)
	viper.SetDefault("rate_limit_auth_burst", 10)

	// JWT 配置默认值
	viper.SetDefault("jwt_expires_in", "15m")
	viper.SetDefault("jwt_refresh_expires_in", "168h")
}

package config

import (
	"fmt"
	"strings"

	"github.com/lumina-verify/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server          ServerConfig     `mapstructure:"server"`
	Log             LogConfig        `mapstructure:"log"`
	Database        DatabaseConfig   `mapstructure:"database"`
	AdminJWT        JWTConfig        `mapstructure:"admin_jwt"`
	ManufacturerJWT JWTConfig        `mapstructure:"manufacturer_jwt"`
	Redis           RedisConfig      `mapstructure:"redis"`
	Queue           QueueConfig      `mapstructure:"queue"`
	CORS            CORSConfig       `mapstructure:"cors"`
	Security        SecurityConfig   `mapstructure:"security"`
	Quota           QuotaConfig      `mapstructure:"quota"`
	Forensics       ForensicsConfig  `mapstructure:"forensics"`
	RiskOracle      RiskOracleConfig `mapstructure:"risk_oracle"`
	Hotspot         HotspotConfig    `mapstructure:"hotspot"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
	MaxRetry    int            `mapstructure:"max_retry"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit  RateLimitConfig `mapstructure:"login_rate_limit"`
	VerifyRateLimit RateLimitConfig `mapstructure:"verify_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
}

// QuotaConfig 每日发码配额配置：套餐 → 日上限，0 或负数视为不限量
type QuotaConfig struct {
	PlanLimits map[string]int64 `mapstructure:"plan_limits"`
}

// LimitFor 查询套餐日配额；未知套餐回落到 basic 限额
func (c QuotaConfig) LimitFor(plan string) (int64, bool) {
	normalized := strings.ToLower(strings.TrimSpace(plan))
	if limit, ok := c.PlanLimits[normalized]; ok {
		return limit, limit > 0
	}
	if limit, ok := c.PlanLimits["basic"]; ok {
		return limit, limit > 0
	}
	return 50, true
}

// ForensicsConfig 证书鉴伪配置
type ForensicsConfig struct {
	TamperURL        string  `mapstructure:"tamper_url"`   // 图像篡改检测服务地址
	TextractURL      string  `mapstructure:"textract_url"` // 文字提取服务地址
	TimeoutMS        int     `mapstructure:"timeout_ms"`   // 单次 oracle 调用超时
	TamperHigh       float64 `mapstructure:"tamper_high"`  // 高置信阈值
	TamperModerate   float64 `mapstructure:"tamper_moderate"`
	MinTextLength    int     `mapstructure:"min_text_length"`
	FakeThreshold    float64 `mapstructure:"fake_threshold"`
	SuspectThreshold float64 `mapstructure:"suspect_threshold"`
}

// RiskOracleConfig 风险推理服务配置
type RiskOracleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// HotspotConfig 热点聚合配置
type HotspotConfig struct {
	WindowDays             int `mapstructure:"window_days"`
	MaxSample              int `mapstructure:"max_sample"`
	RefreshIntervalMinutes int `mapstructure:"refresh_interval_minutes"`
	CacheTTLMinutes        int `mapstructure:"cache_ttl_minutes"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "lumina.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/lumina.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("admin_jwt.secret", "change-me-in-production")
	viper.SetDefault("admin_jwt.expire_hours", 24)
	viper.SetDefault("manufacturer_jwt.secret", "mfr-change-me-in-production")
	viper.SetDefault("manufacturer_jwt.expire_hours", 24)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "lum")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.max_retry", 5)
	viper.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.login_rate_limit.window_seconds", 300)
	viper.SetDefault("security.login_rate_limit.max_attempts", 5)
	viper.SetDefault("security.verify_rate_limit.window_seconds", 60)
	viper.SetDefault("security.verify_rate_limit.max_attempts", 30)
	viper.SetDefault("quota.plan_limits", map[string]int64{
		"basic":   50,
		"premium": 0, // 不限量
	})
	viper.SetDefault("forensics.tamper_url", "")
	viper.SetDefault("forensics.textract_url", "")
	viper.SetDefault("forensics.timeout_ms", 10000)
	viper.SetDefault("forensics.tamper_high", 20)
	viper.SetDefault("forensics.tamper_moderate", 10)
	viper.SetDefault("forensics.min_text_length", 20)
	viper.SetDefault("forensics.fake_threshold", 0.7)
	viper.SetDefault("forensics.suspect_threshold", 0.25)
	viper.SetDefault("risk_oracle.enabled", false)
	viper.SetDefault("risk_oracle.api_key", "")
	viper.SetDefault("risk_oracle.model", "gemini-2.0-flash")
	viper.SetDefault("hotspot.window_days", 7)
	viper.SetDefault("hotspot.max_sample", 200)
	viper.SetDefault("hotspot.refresh_interval_minutes", 30)
	viper.SetDefault("hotspot.cache_ttl_minutes", 60)

	// 环境变量支持：server.port -> SERVER_PORT
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// SessionConfig 定义管理后台的会话 Cookie 配置
type SessionConfig struct {
	Secret string // Cookie 签名密钥，生产环境必须至少 32 字符
	MaxAge int    // 会话有效期（秒），默认 8 小时
	Secure bool   // 仅通过 HTTPS 发送 Cookie
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空时使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// JWTConfig 定义 JSON API 的令牌配置
type JWTConfig struct {
	Secret string        // 签名密钥
	Issuer string        // 签发者标识，默认 "koemail-admin"
	Expiry time.Duration // 令牌有效期，默认 1 小时
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 彩色输出和详细堆栈
	File        string // 日志文件路径，留空时只输出到 stdout
}

// CORSConfig 定义 JSON API 的跨域配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// ThrottleConfig 定义登录接口的限流配置
type ThrottleConfig struct {
	PerMinute int // 每个 IP 每分钟允许的登录尝试数，默认 10
	Burst     int // 突发额度，默认 5
}

// Config 系统核心配置的根结构体
type Config struct {
	Server   ServerConfig
	Session  SessionConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Throttle ThrottleConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: KOEMAIL_
// 例如: KOEMAIL_SERVER_PORT, KOEMAIL_DATABASE_DSN
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetEnvPrefix("koemail")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("session.secret", "change-me-in-production")
	viper.SetDefault("session.max_age", 8*60*60)
	viper.SetDefault("session.secure", false)
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.issuer", "koemail-admin")
	viper.SetDefault("jwt.expiry", "1h")
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("throttle.per_minute", 10)
	viper.SetDefault("throttle.burst", 5)

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		return nil, fmt.Errorf("invalid database.conn_max_lifetime: %w", err)
	}

	jwtExpiry, err := time.ParseDuration(viper.GetString("jwt.expiry"))
	if err != nil {
		return nil, fmt.Errorf("invalid jwt.expiry: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Session: SessionConfig{
			Secret: viper.GetString("session.secret"),
			MaxAge: viper.GetInt("session.max_age"),
			Secure: viper.GetBool("session.secure"),
		},
		Database: DatabaseConfig{
			Type:            viper.GetString("database.type"),
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
			Issuer: viper.GetString("jwt.issuer"),
			Expiry: jwtExpiry,
		},
		CORS: CORSConfig{
			AllowedOrigins: parseList(viper.GetString("cors.allowed_origins")),
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
		Throttle: ThrottleConfig{
			PerMinute: viper.GetInt("throttle.per_minute"),
			Burst:     viper.GetInt("throttle.burst"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate 校验配置合法性
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Database.Type != "" && c.Database.Type != "mysql" && c.Database.Type != "postgres" {
		return fmt.Errorf("invalid database.type: %s (supported: mysql, postgres)", c.Database.Type)
	}
	if c.Database.Type != "" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when database.type is set")
	}
	if c.Throttle.PerMinute <= 0 {
		return fmt.Errorf("throttle.per_minute must be positive")
	}
	return nil
}

// parseList 按逗号拆分并去除空白项
func parseList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// loadEnvFile 尝试加载 .env 文件（可选，静默失败）
func loadEnvFile() {
	candidates := []string{".env", filepath.Join("..", ".env")}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

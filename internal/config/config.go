// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码、密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 凭据单一数据源：密码/密钥只存在 .env 中，YAML 不存储任何密码。
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server ServerConfig `yaml:"server"`
	Mongo  MongoConfig  `yaml:"mongo"`
	Redis  RedisConfig  `yaml:"redis"`
	MinIO  MinIOConfig  `yaml:"minio"`
	SMTP   SMTPConfig   `yaml:"smtp"`
	Auth   AuthConfig   `yaml:"auth"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// MongoConfig MongoDB 配置
// URI 优先从 MONGO_CONNECTION_STRING 环境变量读取（含凭据）
type MongoConfig struct {
	URI  string `yaml:"uri"`
	Name string `yaml:"name"`
}

// RedisConfig Redis 会话存储配置；URL 为空时回落到内存会话
type RedisConfig struct {
	URL string `yaml:"url"`
}

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"` // 例如 localhost:9000
	AccessKey string `yaml:"-"`        // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`        // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// SMTPConfig 邮件通知配置；Host 为空时禁用通知
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Username string `yaml:"-"` // 只从 SMTP_USERNAME 环境变量读取
	Password string `yaml:"-"` // 只从 SMTP_PASSWORD 环境变量读取
}

// AuthConfig 认证配置
// 注意：JWTSecret 只从 JWT_SECRET 环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret     string        `yaml:"-"`
	TokenTTL      time.Duration `yaml:"token_ttl"` // 默认 24h，会话与令牌同步过期
	SecureCookies bool          `yaml:"-"`         // prod 环境强制开启
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env      Environment
	MongoURI string
	MongoDB  string
	RedisURL string
	APIPort  string
	MinIO    MinIOConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
//
// 缺失的凭据只告警不中止启动，对应端点在首次使用时报错。
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	cfg := &Config{
		Env:      env,
		MongoURI: getEnv("MONGO_CONNECTION_STRING", yamlCfg.Mongo.URI),
		MongoDB:  getEnv("MONGO_DB_NAME", yamlCfg.Mongo.Name),
		RedisURL: getEnv("REDIS_URL", yamlCfg.Redis.URL),
		APIPort:  getEnv("PORT", yamlCfg.Server.Port),
		MinIO:    yamlCfg.MinIO,
		SMTP:     yamlCfg.SMTP,
		Auth:     yamlCfg.Auth,
	}

	// 敏感信息只从环境变量读取
	cfg.MinIO.AccessKey = os.Getenv("MINIO_ROOT_USER")
	cfg.MinIO.SecretKey = os.Getenv("MINIO_ROOT_PASSWORD")
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.SecureCookies = env == EnvProduction
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}

	cfg.warnMissing()

	return cfg
}

// warnMissing 对缺失的必需配置告警（不中止启动）
func (c *Config) warnMissing() {
	if c.MongoURI == "" {
		log.Println("WARNING: MONGO_CONNECTION_STRING not set")
	}
	if c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "" {
		log.Println("WARNING: MINIO_ROOT_USER / MINIO_ROOT_PASSWORD not set")
	}
	if c.Auth.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET not set, signed token cookies disabled")
	}
	if c.SMTP.Host == "" {
		log.Println("WARNING: smtp host not set, mail notifications disabled")
	}
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server: ServerConfig{Port: "3000"},
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017", Name: "edms"},
		MinIO:  MinIOConfig{Endpoint: "localhost:9000", Bucket: "edms"},
		SMTP:   SMTPConfig{Port: 587},
		Auth:   AuthConfig{TokenTTL: 24 * time.Hour},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Mongo: %s/%s, Redis: %s, MinIO: %s}",
		c.Env, maskPassword(c.MongoURI), c.MongoDB, c.RedisURL, c.MinIO.Endpoint)
}

// maskPassword 隐藏连接串中的密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Enrollment EnrollmentConfig `mapstructure:"enrollment"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Mail       MailConfig       `mapstructure:"mail"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// 支持的数据库驱动
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig 数据库配置（PostgreSQL 为生产驱动，SQLite 用于本地开发）
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"sslmode"`
	Timezone     string `mapstructure:"timezone"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（可选）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// 报名状态流转策略
const (
	// TransitionPermissive 不校验已完成/已放弃之间的互相改写
	TransitionPermissive = "permissive"
	// TransitionStrict 禁止完成已放弃的报名、放弃已完成的报名
	TransitionStrict = "strict"
)

// EnrollmentConfig 报名业务规则配置
type EnrollmentConfig struct {
	EmailDomain      string  `mapstructure:"email_domain"`      // 学生邮箱必须以此后缀结尾
	MaxCapacity      int     `mapstructure:"max_capacity"`      // 单门课程最大报名人数
	GradeMin         float64 `mapstructure:"grade_min"`         // 成绩下限
	GradeMax         float64 `mapstructure:"grade_max"`         // 成绩上限
	PassMark         float64 `mapstructure:"pass_mark"`         // 及格线（含）
	TransitionPolicy string  `mapstructure:"transition_policy"` // permissive | strict
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	EnrollPerMinute int `mapstructure:"enroll_per_minute"`
}

// MailConfig SMTP 邮件配置，SMTPHost 为空时不发送邮件
type MailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Enabled 是否配置了 SMTP
func (c *MailConfig) Enabled() bool { return c.SMTPHost != "" }

// TracingConfig OpenTelemetry 链路追踪配置
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"` // stdout | otlp
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("GC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "gestion_cours")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Europe/Paris")
	v.SetDefault("db.sqlite_path", "gestion_cours.db")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "24h")

	d := DefaultEnrollmentConfig()
	v.SetDefault("enrollment.email_domain", d.EmailDomain)
	v.SetDefault("enrollment.max_capacity", d.MaxCapacity)
	v.SetDefault("enrollment.grade_min", d.GradeMin)
	v.SetDefault("enrollment.grade_max", d.GradeMax)
	v.SetDefault("enrollment.pass_mark", d.PassMark)
	v.SetDefault("enrollment.transition_policy", d.TransitionPolicy)

	v.SetDefault("rate_limit.enroll_per_minute", 10)

	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.from", "no-reply@student.edu")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "gestion-cours")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// DefaultEnrollmentConfig 返回默认报名规则：@student.edu 域名、30 人上限、0-20 分制、10 分及格
func DefaultEnrollmentConfig() EnrollmentConfig {
	return EnrollmentConfig{
		EmailDomain:      "@student.edu",
		MaxCapacity:      30,
		GradeMin:         0,
		GradeMax:         20,
		PassMark:         10,
		TransitionPolicy: TransitionPermissive,
	}
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Database.Driver != DriverPostgres && c.Database.Driver != DriverSQLite {
		return fmt.Errorf("配置校验失败: db.driver 仅支持 postgres 或 sqlite，当前为 %q", c.Database.Driver)
	}
	return c.Enrollment.Validate()
}

// Validate 校验报名规则配置
func (c *EnrollmentConfig) Validate() error {
	if c.EmailDomain == "" {
		return fmt.Errorf("配置校验失败: enrollment.email_domain 不能为空")
	}
	// 后缀匹配要求以 @ 开头，否则 "student.edu" 会放行 "x@evilstudent.edu"
	if !strings.HasPrefix(c.EmailDomain, "@") || len(c.EmailDomain) < 2 {
		return fmt.Errorf("配置校验失败: enrollment.email_domain 必须以 @ 开头，当前为 %q", c.EmailDomain)
	}
	if c.MaxCapacity <= 0 {
		return fmt.Errorf("配置校验失败: enrollment.max_capacity 必须大于 0")
	}
	if c.GradeMin >= c.GradeMax {
		return fmt.Errorf("配置校验失败: enrollment.grade_min 必须小于 grade_max")
	}
	if c.PassMark < c.GradeMin || c.PassMark > c.GradeMax {
		return fmt.Errorf("配置校验失败: enrollment.pass_mark 必须位于成绩区间内")
	}
	switch c.TransitionPolicy {
	case TransitionPermissive, TransitionStrict:
	default:
		return fmt.Errorf("配置校验失败: enrollment.transition_policy 仅支持 permissive 或 strict")
	}
	return nil
}

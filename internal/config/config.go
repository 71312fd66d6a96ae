package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig      `json:"app"`
	MySQL    MySQLConfig    `json:"mysql"`
	Redis    RedisConfig    `json:"redis"`
	Email    EmailConfig    `json:"email"`
	ML       MLConfig       `json:"ml"`
	Security SecurityConfig `json:"security"`
}

// AppConfig holds basic runtime settings.
type AppConfig struct {
	Env               string        `json:"env"`                 // runtime env: local / prod
	LogLevel          string        `json:"log_level"`           // debug / info / warn / error
	HTTPAddr          string        `json:"http_addr"`           // API listen address
	RateLimit         float64       `json:"rate_limit"`          // curhat submissions per second per client
	RateBurst         float64       `json:"rate_burst"`          // token bucket capacity
	ResetCodeTTL      time.Duration `json:"reset_code_ttl"`      // reset code validity window
	ResetCodeCooldown time.Duration `json:"reset_code_cooldown"` // min gap between code requests per email
	DashboardWindow   int           `json:"dashboard_window"`    // default summary window in days
}

// MySQLConfig holds the database connection settings.
type MySQLConfig struct {
	DSN string `json:"dsn"`
}

// RedisConfig holds the cache connection settings.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
}

// EmailConfig holds SMTP settings for reset-code delivery.
type EmailConfig struct {
	SMTPHost  string `json:"smtp_host"`
	SMTPPort  int    `json:"smtp_port"`
	SMTPUser  string `json:"smtp_user"`
	SMTPPass  string `json:"smtp_pass"`
	FromEmail string `json:"from_email"`
}

// MLConfig holds the external analysis service settings.
type MLConfig struct {
	Endpoint string        `json:"endpoint"`
	APIKey   string        `json:"api_key"`
	Timeout  time.Duration `json:"timeout"`
}

// SecurityConfig holds auth settings.
type SecurityConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// Load reads configuration from a JSON file, applies defaults for unset
// fields, then lets environment variables override secrets.
func Load(configPath ...string) (*Config, error) {
	path := "configs/config.json"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:               "local",
			LogLevel:          "info",
			HTTPAddr:          ":8080",
			RateLimit:         1,
			RateBurst:         3,
			ResetCodeTTL:      10 * time.Minute,
			ResetCodeCooldown: 60 * time.Second,
			DashboardWindow:   7,
		},
		MySQL: MySQLConfig{
			DSN: "root:password@tcp(localhost:3306)/curhat?parseTime=true&loc=Local",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
		},
		Email: EmailConfig{
			SMTPHost:  "smtp.gmail.com",
			SMTPPort:  587,
			SMTPUser:  "",
			SMTPPass:  "",
			FromEmail: "",
		},
		ML: MLConfig{
			Endpoint: "http://localhost:8000/predict",
			Timeout:  120 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret: "dev_secret_change_me",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.App.Env == "" {
		cfg.App.Env = defaults.App.Env
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = defaults.App.HTTPAddr
	}
	if cfg.App.RateLimit == 0 {
		cfg.App.RateLimit = defaults.App.RateLimit
	}
	if cfg.App.RateBurst == 0 {
		cfg.App.RateBurst = defaults.App.RateBurst
	}
	if cfg.App.ResetCodeTTL == 0 {
		cfg.App.ResetCodeTTL = defaults.App.ResetCodeTTL
	}
	if cfg.App.ResetCodeCooldown == 0 {
		cfg.App.ResetCodeCooldown = defaults.App.ResetCodeCooldown
	}
	if cfg.App.DashboardWindow == 0 {
		cfg.App.DashboardWindow = defaults.App.DashboardWindow
	}
	if cfg.MySQL.DSN == "" {
		cfg.MySQL.DSN = defaults.MySQL.DSN
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaults.Redis.Addr
	}
	if cfg.Email.SMTPHost == "" {
		cfg.Email.SMTPHost = defaults.Email.SMTPHost
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = defaults.Email.SMTPPort
	}
	if cfg.ML.Endpoint == "" {
		cfg.ML.Endpoint = defaults.ML.Endpoint
	}
	if cfg.ML.Timeout == 0 {
		cfg.ML.Timeout = defaults.ML.Timeout
	}
	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = defaults.Security.JWTSecret
	}
}

func applyEnvOverrides(cfg *Config) {
	viper.AutomaticEnv()

	_ = viper.BindEnv("mysql_dsn", "MYSQL_DSN")
	_ = viper.BindEnv("redis_addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = viper.BindEnv("smtp_user", "SMTP_USER")
	_ = viper.BindEnv("smtp_pass", "SMTP_PASS")
	_ = viper.BindEnv("from_email", "FROM_EMAIL")
	_ = viper.BindEnv("ml_endpoint", "ML_ENDPOINT")
	_ = viper.BindEnv("ml_api_key", "ML_API_KEY")
	_ = viper.BindEnv("jwt_secret", "JWT_SECRET")
	_ = viper.BindEnv("app_env", "APP_ENV")

	if v := viper.GetString("mysql_dsn"); v != "" {
		cfg.MySQL.DSN = v
	}
	if v := viper.GetString("redis_addr"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := viper.GetString("redis_password"); v != "" {
		cfg.Redis.Password = v
	}
	if v := viper.GetString("smtp_user"); v != "" {
		cfg.Email.SMTPUser = v
	}
	if v := viper.GetString("smtp_pass"); v != "" {
		cfg.Email.SMTPPass = v
	}
	if v := viper.GetString("from_email"); v != "" {
		cfg.Email.FromEmail = v
	}
	if v := viper.GetString("ml_endpoint"); v != "" {
		cfg.ML.Endpoint = v
	}
	if v := viper.GetString("ml_api_key"); v != "" {
		cfg.ML.APIKey = v
	}
	if v := viper.GetString("jwt_secret"); v != "" {
		cfg.Security.JWTSecret = v
	}
	if v := viper.GetString("app_env"); v != "" {
		cfg.App.Env = v
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig         `mapstructure:"server"`
	Database     DatabaseConfig       `mapstructure:"database"`
	Redis        RedisConfig          `mapstructure:"redis"`
	JWT          JWTConfig            `mapstructure:"jwt"`
	Email        EmailConfig          `mapstructure:"email"`
	Queue        QueueConfig          `mapstructure:"queue"`
	CORS         CORSConfig           `mapstructure:"cors"`
	Settlement   SettlementConfig     `mapstructure:"settlement"`
	Play         PlayValidationConfig `mapstructure:"play"`
	Subscription SubscriptionConfig   `mapstructure:"subscription"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type QueueConfig struct {
	NotifyQueue string `mapstructure:"notify_queue"`
	MaxWorkers  int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// SettlementConfig 月度结算参数，全部可配置以便调整分成策略
type SettlementConfig struct {
	RevenueShare    float64 `mapstructure:"revenue_share"`     // 讲师分成比例
	PlayPointWeight float64 `mapstructure:"play_point_weight"` // 单次播放积分权重
	DownloadPoints  float64 `mapstructure:"download_points"`   // 单次下载积分
	LiveClassPoints float64 `mapstructure:"live_class_points"` // 单次直播出席积分
	MinWatchRatio   float64 `mapstructure:"min_watch_ratio"`   // 计分的最低观看比例
	MaxWatchRatio   float64 `mapstructure:"max_watch_ratio"`   // 容忍的最大观看比例（时钟偏差）
}

// PlayValidationConfig 播放验证参数
type PlayValidationConfig struct {
	MinDurationSeconds   float64 `mapstructure:"min_duration_seconds"`    // 最短观看时长
	DuplicateWindowMins  int     `mapstructure:"duplicate_window_mins"`   // 同媒体去重窗口（分钟）
	DailyPlayLimit       int     `mapstructure:"daily_play_limit"`        // 单用户每日播放上限
	IPBurstLimit         int     `mapstructure:"ip_burst_limit"`          // 同 IP 突发上限
	IPBurstWindowSeconds int     `mapstructure:"ip_burst_window_seconds"` // 突发窗口（秒）
}

type SubscriptionConfig struct {
	GraceDays int                   `mapstructure:"grace_days"` // 到期后宽限天数
	Plans     map[string]PlanConfig `mapstructure:"plans"`
}

type PlanConfig struct {
	Price  float64 `mapstructure:"price"`
	Months int     `mapstructure:"months"` // 0 表示终身
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	// 检查 config.local.yaml 是否存在
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults 填充未配置的结算参数，保证零配置也能跑通
func applyDefaults(cfg *Config) {
	if cfg.Settlement.RevenueShare == 0 {
		cfg.Settlement = DefaultSettlement()
	}
	if cfg.Play.DailyPlayLimit == 0 {
		cfg.Play = DefaultPlayValidation()
	}
	if cfg.Subscription.GraceDays == 0 {
		cfg.Subscription.GraceDays = 7
	}
	if cfg.Subscription.Plans == nil {
		cfg.Subscription.Plans = map[string]PlanConfig{
			"monthly":  {Price: 30, Months: 1},
			"yearly":   {Price: 288, Months: 12},
			"lifetime": {Price: 998, Months: 0},
		}
	}
	if cfg.Queue.NotifyQueue == "" {
		cfg.Queue.NotifyQueue = "notify_queue"
	}
	if cfg.Queue.MaxWorkers == 0 {
		cfg.Queue.MaxWorkers = 3
	}
}

// DefaultSettlement 结算参数默认值
func DefaultSettlement() SettlementConfig {
	return SettlementConfig{
		RevenueShare:    0.7,
		PlayPointWeight: 0.2,
		DownloadPoints:  3,
		LiveClassPoints: 5,
		MinWatchRatio:   0.3,
		MaxWatchRatio:   1.1,
	}
}

// DefaultPlayValidation 播放验证参数默认值
func DefaultPlayValidation() PlayValidationConfig {
	return PlayValidationConfig{
		MinDurationSeconds:   10,
		DuplicateWindowMins:  5,
		DailyPlayLimit:       50,
		IPBurstLimit:         3,
		IPBurstWindowSeconds: 60,
	}
}

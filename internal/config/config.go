package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`       // 服务器配置
	Database     DatabaseConfig     `mapstructure:"database"`     // PostgreSQL配置
	Analysis     AnalysisConfig     `mapstructure:"analysis"`     // 内容分析服务配置
	Fraud        FraudConfig        `mapstructure:"fraud"`        // 欺诈信号阈值配置
	Gamification GamificationConfig `mapstructure:"gamification"` // 积分规则配置
	Backfill     BackfillConfig     `mapstructure:"backfill"`     // 评分补偿任务配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// AnalysisConfig 内容分析服务（外部能力）配置
type AnalysisConfig struct {
	BaseURL    string `mapstructure:"base_url"`    // API基础地址
	Timeout    int    `mapstructure:"timeout"`     // 请求超时（秒）
	RetryCount int    `mapstructure:"retry_count"` // 重试次数
	AuthToken  string `mapstructure:"auth_token"`  // 认证Token
	Proxy      string `mapstructure:"proxy"`       // 代理地址
}

// FraudConfig 欺诈信号阈值配置
type FraudConfig struct {
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"` // 近重复判定阈值
	MaxTypingWPM        float64       `mapstructure:"max_typing_wpm"`       // 人类输入速度上限（WPM）
	RapidWindow         time.Duration `mapstructure:"rapid_window"`         // 快速连发统计窗口
	RapidMaxCount       int           `mapstructure:"rapid_max_count"`      // 窗口内最大提交数
	IPWindow            time.Duration `mapstructure:"ip_window"`            // IP复用统计窗口
	IPMaxUsers          int           `mapstructure:"ip_max_users"`         // 窗口内同IP最大账号数
	RecentCorpusSize    int           `mapstructure:"recent_corpus_size"`   // 查重语料条数上限
}

// GamificationConfig 积分规则配置（外部策略的默认取值）
type GamificationConfig struct {
	PointsPerApproved int `mapstructure:"points_per_approved"` // 评价通过奖励积分
	PointsPerHelpful  int `mapstructure:"points_per_helpful"`  // 有用标记奖励积分
	ContestBonus      int `mapstructure:"contest_bonus"`       // 赛事期内额外积分
}

// BackfillConfig 评分补偿任务配置
type BackfillConfig struct {
	Cron      string `mapstructure:"cron"`       // 补偿任务Cron表达式
	BatchSize int    `mapstructure:"batch_size"` // 每次补偿的评价条数
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("ANALYSIS_AUTH_TOKEN"); v != "" {
		cfg.Analysis.AuthToken = v
	}
	if v := os.Getenv("ANALYSIS_PROXY"); v != "" {
		cfg.Analysis.Proxy = v
	}
}

// applyDefaults 关键阈值缺省兜底，避免 0 值导致所有提交被误判
func applyDefaults(cfg *Config) {
	if cfg.Fraud.SimilarityThreshold <= 0 {
		cfg.Fraud.SimilarityThreshold = 0.8
	}
	if cfg.Fraud.MaxTypingWPM <= 0 {
		cfg.Fraud.MaxTypingWPM = 200
	}
	if cfg.Fraud.RapidWindow <= 0 {
		cfg.Fraud.RapidWindow = 10 * time.Minute
	}
	if cfg.Fraud.RapidMaxCount <= 0 {
		cfg.Fraud.RapidMaxCount = 3
	}
	if cfg.Fraud.IPWindow <= 0 {
		cfg.Fraud.IPWindow = 24 * time.Hour
	}
	if cfg.Fraud.IPMaxUsers <= 0 {
		cfg.Fraud.IPMaxUsers = 3
	}
	if cfg.Fraud.RecentCorpusSize <= 0 {
		cfg.Fraud.RecentCorpusSize = 50
	}
	if cfg.Gamification.PointsPerApproved <= 0 {
		cfg.Gamification.PointsPerApproved = 10
	}
	if cfg.Gamification.PointsPerHelpful <= 0 {
		cfg.Gamification.PointsPerHelpful = 2
	}
	if cfg.Gamification.ContestBonus <= 0 {
		cfg.Gamification.ContestBonus = 5
	}
	if cfg.Backfill.BatchSize <= 0 {
		cfg.Backfill.BatchSize = 100
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 SECTORWAR_LISTEN、SECTORWAR_MATCH_TURNINTERVAL
const EnvPrefix = "SECTORWAR"

// LogConfig 日志输出设置
type LogConfig struct {
	File    string `json:"file" mapstructure:"file"`
	Level   string `json:"level" mapstructure:"level"`
	Console bool   `json:"console" mapstructure:"console"`
}

// RelayConfig 客户端连接中继的地址
type RelayConfig struct {
	URL string `json:"url" mapstructure:"url"`
}

// MatchConfig 对局节奏
type MatchConfig struct {
	TurnInterval   int `json:"turnInterval" mapstructure:"turnInterval"`
	TicksPerSecond int `json:"ticksPerSecond" mapstructure:"ticksPerSecond"`
}

// LimitsConfig 中继的接入限制
type LimitsConfig struct {
	JoinPerSecond float64 `json:"joinPerSecond" mapstructure:"joinPerSecond"`
	JoinBurst     int     `json:"joinBurst" mapstructure:"joinBurst"`
	MaxRooms      int     `json:"maxRooms" mapstructure:"maxRooms"`
}

// Config 中继与客户端共用的配置
type Config struct {
	Listen string       `json:"listen" mapstructure:"listen"`
	Log    LogConfig    `json:"log" mapstructure:"log"`
	Relay  RelayConfig  `json:"relay" mapstructure:"relay"`
	Match  MatchConfig  `json:"match" mapstructure:"match"`
	Limits LimitsConfig `json:"limits" mapstructure:"limits"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")

	v.SetDefault("log.file", "relay.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)

	v.SetDefault("relay.url", "ws://localhost:8080/ws")

	v.SetDefault("match.turnInterval", 5)
	v.SetDefault("match.ticksPerSecond", 30)

	v.SetDefault("limits.joinPerSecond", 2.0)
	v.SetDefault("limits.joinBurst", 5)
	v.SetDefault("limits.maxRooms", 1000)
}

// Load 读取配置：默认值 → 配置文件（path 为空则跳过）→ 环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查会导致对局无法推进的取值
func (c *Config) Validate() error {
	var errs []error
	if c.Match.TurnInterval < 1 {
		errs = append(errs, fmt.Errorf("match.turnInterval must be >= 1, got %d", c.Match.TurnInterval))
	}
	if c.Match.TicksPerSecond < 1 {
		errs = append(errs, fmt.Errorf("match.ticksPerSecond must be >= 1, got %d", c.Match.TicksPerSecond))
	}
	if c.Limits.JoinPerSecond <= 0 || c.Limits.JoinBurst < 1 {
		errs = append(errs, fmt.Errorf("limits.joinPerSecond and limits.joinBurst must be positive"))
	}
	if c.Limits.MaxRooms < 1 {
		errs = append(errs, fmt.Errorf("limits.maxRooms must be >= 1, got %d", c.Limits.MaxRooms))
	}
	return errors.Join(errs...)
}

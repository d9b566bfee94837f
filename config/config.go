package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/BerniceZTT/territory_end/analytics"
	"github.com/BerniceZTT/territory_end/models"
)

// Config 应用配置
type Config struct {
	Port     int
	MongoURI string
	MongoDB  string
	JWTKey   string
	Debug    bool
	// 允许跨域的前端地址，逗号分隔
	CORSOrigins []string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	CacheTTL      time.Duration

	// 定时重算，空字符串表示关闭
	RecomputeCron   string
	AnalyticsConfig string
}

// LoadConfig 从 .env 和环境变量加载配置
func LoadConfig() *Config {
	// .env 不存在时直接使用环境变量
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		port = 8080
	}
	ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "10m"))
	if err != nil {
		ttl = 10 * time.Minute
	}

	return &Config{
		Port:            port,
		MongoURI:        getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:         getEnv("MONGO_DB", "territory"),
		JWTKey:          getEnv("JWT_KEY", "your-secret-key"), // 实际环境应替换为安全密钥
		Debug:           getEnv("GIN_MODE", "debug") == "debug",
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "")),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CacheTTL:        ttl,
		RecomputeCron:   getEnv("RECOMPUTE_CRON", "0 3 * * *"),
		AnalyticsConfig: getEnv("ANALYTICS_CONFIG", "analytics.yaml"),
	}
}

// AnalyticsConfig 分析阈值配置
type AnalyticsConfig struct {
	Anomaly  analytics.AnomalyConfig `yaml:"anomaly"`
	Churn    analytics.ChurnConfig   `yaml:"churn"`
	Actions  analytics.ActionConfig  `yaml:"actions"`
	Match    analytics.MatchWeights  `yaml:"match"`
	Planning models.PlanningContext  `yaml:"planning"`
	// 区域增长对比的月数
	GrowthMonths int `yaml:"growth_months"`
}

// DefaultAnalyticsConfig 默认分析配置
func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		Anomaly: analytics.DefaultAnomalyConfig(),
		Churn:   analytics.DefaultChurnConfig(),
		Actions: analytics.DefaultActionConfig(),
		Match:   analytics.DefaultMatchWeights(),
		Planning: models.PlanningContext{
			BaseRate:  10,
			RiskLevel: models.RiskLevelMedium,
		},
		GrowthMonths: 3,
	}
}

// LoadAnalyticsConfig 读取 YAML 分析配置，文件中缺省的键保留默认值。
// 文件不存在时返回默认配置。
func LoadAnalyticsConfig(path string) (AnalyticsConfig, error) {
	cfg := DefaultAnalyticsConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("读取分析配置失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析分析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate 校验阈值
func (c AnalyticsConfig) Validate() error {
	if c.Anomaly.Threshold <= 0 || c.Anomaly.ExtremeThreshold < c.Anomaly.Threshold {
		return fmt.Errorf("异常阈值无效: threshold=%v extreme=%v", c.Anomaly.Threshold, c.Anomaly.ExtremeThreshold)
	}
	if c.Churn.WindowDays <= 0 {
		return fmt.Errorf("流失窗口必须大于0")
	}
	if !(c.Churn.MediumThreshold <= c.Churn.HighThreshold && c.Churn.HighThreshold <= c.Churn.CriticalThreshold) {
		return fmt.Errorf("流失等级阈值必须递增")
	}
	if c.Match.Volume < 0 || c.Match.Potential < 0 || c.Match.Growth < 0 {
		return fmt.Errorf("匹配权重不能为负")
	}
	if c.Planning.RiskLevel != "" && !c.Planning.RiskLevel.Valid() {
		return fmt.Errorf("无效的风险偏好: %s", c.Planning.RiskLevel)
	}
	if c.GrowthMonths <= 0 {
		return fmt.Errorf("growth_months 必须大于0")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

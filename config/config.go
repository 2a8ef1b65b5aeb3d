package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JWTConfig struct {
	Secret       string `mapstructure:"secret"`
	ExpireHours  int    `mapstructure:"expire_hours"`
	RefreshHours int    `mapstructure:"refresh_hours"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type SchedulerConfig struct {
	// DailyHour/DailyMinute position the daily analytics job within the day.
	DailyHour   int `mapstructure:"daily_hour"`
	DailyMinute int `mapstructure:"daily_minute"`
	// IntervalMinutes > 0 additionally schedules a fixed-interval run.
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

// AnalyticsConfig carries the full weight set for the scoring formulas.
// Every field has a production default; a config file only needs to name
// the weights it overrides.
type AnalyticsConfig struct {
	ActiveMembersWeight          float64 `mapstructure:"active_members_weight"`
	SocialEngagementWeight       float64 `mapstructure:"social_engagement_weight"`
	EventParticipationWeight     float64 `mapstructure:"event_participation_weight"`
	AnnouncementFrequencyWeight  float64 `mapstructure:"announcement_frequency_weight"`
	EventFrequencyWeight         float64 `mapstructure:"event_frequency_weight"`
	SocialTaskFrequencyWeight    float64 `mapstructure:"social_task_frequency_weight"`
	EaseOfEarningPointsWeight    float64 `mapstructure:"ease_of_earning_points_weight"`
	StoreUpdateFrequencyWeight   float64 `mapstructure:"store_update_frequency_weight"`
	AuctionUpdateFrequencyWeight float64 `mapstructure:"auction_update_frequency_weight"`

	CommunitySizeWeight float64 `mapstructure:"community_size_weight"`
	CommunityAgeWeight  float64 `mapstructure:"community_age_weight"`

	CommunityPointsFromSaleWeight  float64 `mapstructure:"community_points_from_sale_weight"`
	HPBPFromSaleWeight             float64 `mapstructure:"hpbp_from_sale_weight"`
	HPBPFromExchangeWeight         float64 `mapstructure:"hpbp_from_exchange_weight"`
	CommunityPointsFromVaultWeight float64 `mapstructure:"community_points_from_vault_weight"`

	CommunityActivityWeight float64 `mapstructure:"community_activity_weight"`
	CommunityHealthWeight   float64 `mapstructure:"community_health_weight"`
	ExchangeActivityWeight  float64 `mapstructure:"exchange_activity_weight"`

	MinRate   float64 `mapstructure:"min_rate"`
	MaxRate   float64 `mapstructure:"max_rate"`
	Steepness float64 `mapstructure:"steepness"`
	Center    float64 `mapstructure:"center"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 9000)
	v.SetDefault("server.mode", "release")

	v.SetDefault("postgres.max_idle_conns", 10)
	v.SetDefault("postgres.max_open_conns", 100)

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("scheduler.daily_hour", 0)
	v.SetDefault("scheduler.daily_minute", 0)
	v.SetDefault("scheduler.interval_minutes", 0)

	v.SetDefault("analytics.active_members_weight", 0.3)
	v.SetDefault("analytics.social_engagement_weight", 0.2)
	v.SetDefault("analytics.event_participation_weight", 0.2)
	v.SetDefault("analytics.announcement_frequency_weight", 0.05)
	v.SetDefault("analytics.event_frequency_weight", 0.1)
	v.SetDefault("analytics.social_task_frequency_weight", 0.05)
	v.SetDefault("analytics.ease_of_earning_points_weight", 0.1)
	v.SetDefault("analytics.store_update_frequency_weight", 0.05)
	v.SetDefault("analytics.auction_update_frequency_weight", 0.05)

	v.SetDefault("analytics.community_size_weight", 0.6)
	v.SetDefault("analytics.community_age_weight", 0.4)

	v.SetDefault("analytics.community_points_from_sale_weight", 0.3)
	v.SetDefault("analytics.hpbp_from_sale_weight", 0.3)
	v.SetDefault("analytics.hpbp_from_exchange_weight", 0.3)
	v.SetDefault("analytics.community_points_from_vault_weight", 0.1)

	v.SetDefault("analytics.community_activity_weight", 0.5)
	v.SetDefault("analytics.community_health_weight", 0.3)
	v.SetDefault("analytics.exchange_activity_weight", 0.2)

	v.SetDefault("analytics.min_rate", 0.01)
	v.SetDefault("analytics.max_rate", 0.1)
	v.SetDefault("analytics.steepness", 5.0)
	v.SetDefault("analytics.center", 50.0)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

// DefaultConfig returns a config populated with defaults only, without
// touching the filesystem. Used by tests and by the analytics CLI.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		// Defaults always unmarshal into the typed config.
		panic(err)
	}
	return &config
}

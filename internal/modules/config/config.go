package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// ChannelRoute — откуда читаем сигналы и куда шлём уведомления.
type ChannelRoute struct {
	Source      int64 `yaml:"source"`
	Destination int64 `yaml:"destination"`
}

// Config ...
type Config struct {
	Telegram struct {
		Token string `yaml:"token"`
		// Чат, откуда принимаются админ-команды (/active, /summary и т.д.)
		AdminChatID int64 `yaml:"admin_chat_id"`
		// Куда постить плановые отчёты; 0 => в admin_chat_id
		ReportChatID int64 `yaml:"report_chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	// Маппинг источник -> канал назначения
	Channels []ChannelRoute `yaml:"channels"`

	Reports struct {
		Daily   bool `yaml:"daily"`
		Weekly  bool `yaml:"weekly"`
		Monthly bool `yaml:"monthly"`
	} `yaml:"reports"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	// Интервал тика эвалюатора
	TickInterval time.Duration
	// Пауза между вызовами к оракулу цен внутри одного тика (rate limit)
	PriceCallDelay time.Duration

	// Бэкафилл: период догоняющего прохода и лимит сообщений за проход
	BackfillInterval time.Duration
	BackfillLimit    int
	// Глубина кольца истории на чат
	HistoryDepth int
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		TickInterval:   durationFromEnv("TICK_INTERVAL", "60s"),
		PriceCallDelay: durationFromEnv("PRICE_CALL_DELAY", "250ms"),

		BackfillInterval: durationFromEnv("BACKFILL_INTERVAL", "6h"),
		BackfillLimit:    intFromEnv("BACKFILL_LIMIT", 200),
		HistoryDepth:     intFromEnv("HISTORY_DEPTH", 500),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	return &config, nil
}

// DestinationFor возвращает канал назначения для чата-источника.
func (c *Config) DestinationFor(sourceChatID int64) (int64, bool) {
	for _, r := range c.Channels {
		if r.Source == sourceChatID {
			return r.Destination, true
		}
	}
	return 0, false
}

func getenvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("env %s is required", key))
	}
	return v
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}

package config

import (
	"github.com/IBM/sarama"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"quizzy"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"QUIZZY_ADDRESS" default:":8001"`
	BaseUrl         string `envconfig:"QUIZZY_BASE_URL" default:"http://localhost:8001"`
	WebhookBaseUrl  string `envconfig:"QUIZZY_WEBHOOK_BASE_URL" default:"http://localhost:8001"`
	LogLevel        string `envconfig:"QUIZZY_LOG_LEVEL" default:"info"`
	MigrationFolder string `envconfig:"QUIZZY_MIGRATIONS_FOLDER" default:""`
	Queue           queueConfig
	OpenAI          openAIConfig
	Pinecone        pineconeConfig
	Kafka           kafkaConfig
	Auth            Auth
}

type queueConfig struct {
	// One job at a time per queue. Throughput scales by running more worker
	// processes, not by raising this.
	MaxWorkers        int `envconfig:"QUIZZY_QUEUE_MAX_WORKERS" default:"1"`
	FetchCooldownMs   int `envconfig:"QUIZZY_QUEUE_FETCH_COOLDOWN_MS" default:"50"`
	FetchPollMs       int `envconfig:"QUIZZY_QUEUE_FETCH_POLL_MS" default:"100"`
	JobTimeoutMinutes int `envconfig:"QUIZZY_QUEUE_JOB_TIMEOUT_MINUTES" default:"30"`
}

type openAIConfig struct {
	APIKey         string `envconfig:"OPENAI_API_KEY" default:""`
	ChatModel      string `envconfig:"QUIZZY_CHAT_MODEL" default:"gpt-4o-mini"`
	EmbeddingModel string `envconfig:"QUIZZY_EMBEDDING_MODEL" default:"text-embedding-3-small"`
}

type pineconeConfig struct {
	APIKey    string `envconfig:"PINECONE_API_KEY" default:""`
	IndexName string `envconfig:"QUIZZY_PINECONE_INDEX" default:"quizzy-pdf-index"`
}

type kafkaConfig struct {
	Brokers  []string            `envconfig:"QUIZZY_KAFKA_BROKERS" default:""`
	Topic    string              `envconfig:"QUIZZY_KAFKA_TOPIC" default:""`
	Version  sarama.KafkaVersion `envconfig:"QUIZZY_KAFKA_VERSION" default:""`
	ClientID string              `envconfig:"QUIZZY_KAFKA_CLIENT_ID" default:""`

	SaramaConfig *sarama.Config
}

type Auth struct {
	AuthenticationType string `envconfig:"QUIZZY_AUTH" default:""`
	LocalPrivateKey    string `envconfig:"QUIZZY_PRIVATE_KEY" default:""`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a configuration built only from defaults and the current
// environment, bypassing the singleton. Used by tests.
func NewDefault() *Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}
	return cfg
}

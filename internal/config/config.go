// internal/config/config.go
package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Store    StoreConfig    `mapstructure:"store"`
	S3       S3Config       `mapstructure:"s3"`
	GCS      GCSConfig      `mapstructure:"gcs"`
	Azure    AzureConfig    `mapstructure:"azure"`
	FS       FSConfig       `mapstructure:"fs"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	BasePath       string        `mapstructure:"base_path"` // 例: API Gateway のステージ "/prod"
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// StoreConfig はドキュメントの保存先と書き込みポリシーの設定です。
type StoreConfig struct {
	// s3 | gcs | azure | database | fs | memory
	Backend string `mapstructure:"backend"`
	// last_write_wins | optimistic
	WritePolicy string `mapstructure:"write_policy"`
	// optimistic で競合したときに読み込みからやり直す回数
	ConflictRetries  int    `mapstructure:"conflict_retries"`
	ReviewDocument   string `mapstructure:"review_document"`
	ProgressDocument string `mapstructure:"progress_document"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // MinIO などS3互換サービス用
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	AuthType        string `mapstructure:"auth_type"` // static_credentials | iam_role
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
}

type AzureConfig struct {
	Container        string `mapstructure:"container"`
	ConnectionString string `mapstructure:"connection_string"`
	AccountURL       string `mapstructure:"account_url"` // connection_string が空のときは DefaultAzureCredential で接続
}

type FSConfig struct {
	Dir string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres | sqlite
	URL    string `mapstructure:"url"`
}

var Cfg Config

// LoadConfig は設定を読み込み、パッケージ変数 Cfg に格納します。
func LoadConfig(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	Cfg = *cfg
	return nil
}

// Load は path (と カレントディレクトリ) の config.yaml と環境変数から設定を読み込みます。
// 設定ファイルが無い場合は既定値と環境変数だけで動作します。
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	setDefaults(v)

	// 環境変数 (例: APP_STORE_BACKEND -> store.backend)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Lambda 時代から使っている環境変数名もそのまま受け付ける
	v.BindEnv("s3.bucket", "APP_S3_BUCKET", "S3_BUCKET_NAME")
	v.BindEnv("s3.region", "APP_S3_REGION", "AWS_REGION")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return nil, err
	}

	if cfg.Store.ConflictRetries < 0 {
		log.Println("Store conflict retries is negative, using 0")
		cfg.Store.ConflictRetries = 0
	}
	cfg.Server.BasePath = strings.TrimRight(cfg.Server.BasePath, "/")

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", cfg.Server.Port)
	log.Printf("Store Backend: %s (write policy: %s)", cfg.Store.Backend, cfg.Store.WritePolicy)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.base_path", "")
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.idle_timeout", DefaultIdleTimeout)
	v.SetDefault("server.request_timeout", DefaultRequestTimeout)

	v.SetDefault("log.level", DefaultLogLevel)

	v.SetDefault("cors.allowed_origins", DefaultCORSAllowedOrigins)
	v.SetDefault("cors.allowed_methods", DefaultCORSAllowedMethods)
	v.SetDefault("cors.allowed_headers", DefaultCORSAllowedHeaders)
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("store.backend", DefaultStoreBackend)
	v.SetDefault("store.write_policy", DefaultWritePolicy)
	v.SetDefault("store.conflict_retries", DefaultConflictRetries)
	v.SetDefault("store.review_document", "review.json")
	v.SetDefault("store.progress_document", "progress.json")

	v.SetDefault("s3.bucket", DefaultS3Bucket)
	v.SetDefault("s3.region", DefaultAWSRegion)
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.auth_type", DefaultS3AuthType)
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")

	v.SetDefault("gcs.bucket", "")
	v.SetDefault("gcs.credentials_file", "")
	v.SetDefault("gcs.endpoint", "")

	v.SetDefault("azure.container", "")
	v.SetDefault("azure.connection_string", "")
	v.SetDefault("azure.account_url", "")

	v.SetDefault("fs.dir", DefaultFSDir)

	v.SetDefault("database.driver", DefaultDatabaseDriver)
	v.SetDefault("database.url", "")
}

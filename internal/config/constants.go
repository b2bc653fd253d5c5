// internal/config/constants.go
package config

import "time"

// アプリケーション情報
const (
	AppName    = "ReviewKeep"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort      = ":8080"
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultLogLevel        = "info"
	DefaultStoreBackend    = "s3"
	DefaultWritePolicy     = "last_write_wins"
	DefaultConflictRetries = 3
	DefaultS3Bucket        = "sakuraqa-review-results"
	DefaultAWSRegion       = "ap-northeast-1"
	DefaultS3AuthType      = "iam_role"
	DefaultFSDir           = "./data"
	DefaultDatabaseDriver  = "postgres"
)

// CORS の既定値 (API Gateway 配下で動いていた頃のヘッダーに合わせる)
var (
	DefaultCORSAllowedOrigins = []string{"*"}
	DefaultCORSAllowedMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	DefaultCORSAllowedHeaders = []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key", "X-Amz-Security-Token"}
)

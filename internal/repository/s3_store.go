// internal/repository/s3_store.go
package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go_4_review_keep/internal/config"
	"go_4_review_keep/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// s3API は S3Store が使う S3 クライアントのメソッドです (テストではモックに差し替えます)。
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store はS3バケットのオブジェクトとしてドキュメントを保存する BlobStore です。
// 版には ETag を使い、前提条件は If-Match / If-None-Match で送ります。
type S3Store struct {
	client s3API
	bucket string
	logger *slog.Logger
}

// NewS3Store は設定に応じて認証方法を切り替えてS3クライアントを生成します。
func NewS3Store(ctx context.Context, cfg *config.S3Config, logger *slog.Logger) (*S3Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	var awsCfgOpts []func(*awsconfig.LoadOptions) error
	awsCfgOpts = append(awsCfgOpts, awsconfig.WithRegion(cfg.Region))

	switch cfg.AuthType {
	case "static_credentials":
		logger.Info("Configuring S3 with static credentials.")
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, errors.New("s3: auth_type is 'static_credentials' but access_key_id or secret_access_key is missing")
		}
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		awsCfgOpts = append(awsCfgOpts, awsconfig.WithCredentialsProvider(creds))
	case "iam_role", "":
		// SDK の既定の認証情報チェーン (Lambda / ECS のロール、環境変数など) に任せる
		logger.Info("Configuring S3 with IAM Role credentials.")
	default:
		logger.Warn("Unknown S3 auth_type specified, defaulting to IAM Role.", "type", cfg.AuthType)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsCfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3StoreWithClient(client, cfg.Bucket, logger), nil
}

func newS3StoreWithClient(client s3API, bucket string, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Store{client: client, bucket: bucket, logger: logger}
}

func (s *S3Store) Get(ctx context.Context, name string) (*Blob, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var nk *types.NoSuchKey
		if errors.As(err, &nk) {
			s.logger.DebugContext(ctx, "S3 object does not exist yet", "bucket", s.bucket, "key", name)
			return nil, model.ErrNotFound
		}
		var nb *types.NoSuchBucket
		if errors.As(err, &nb) {
			return nil, fmt.Errorf("s3 bucket %q does not exist: %w", s.bucket, err)
		}
		return nil, err
	}
	defer out.Body.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("read s3 object %s: %w", name, err)
	}

	return &Blob{
		Data:     buf.Bytes(),
		Version:  Version(aws.ToString(out.ETag)),
		Metadata: out.Metadata,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, name string, data []byte, opts PutOptions) (Version, error) {
	contentType := opts.ContentType
	if contentType == "" {
		contentType = contentTypeJSON
	}
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		Metadata:      opts.Metadata,
	}
	if opts.IfAbsent {
		in.IfNoneMatch = aws.String("*")
	}
	if opts.IfMatch != "" {
		in.IfMatch = aws.String(string(opts.IfMatch))
	}

	out, err := s.client.PutObject(ctx, in)
	if err != nil {
		if isS3PreconditionFailure(err) {
			return "", fmt.Errorf("s3 put %s: %w", name, model.ErrConflict)
		}
		return "", err
	}
	return Version(aws.ToString(out.ETag)), nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

// isS3PreconditionFailure は条件付き書き込みが拒否されたかどうかを判定します。
// 412 PreconditionFailed のほか、同時書き込み中に返る 409 ConditionalRequestConflict も競合とみなします。
func isS3PreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch strings.TrimSpace(apiErr.ErrorCode()) {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

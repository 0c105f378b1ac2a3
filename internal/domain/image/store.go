package image

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"plant-diagnosis-server/internal/platform/config"
	"plant-diagnosis-server/internal/platform/errors"
	"plant-diagnosis-server/internal/platform/logging"
)

// ObjectStore is the slice of object storage the fetcher needs: a direct
// authenticated download, a short-lived signed URL, and a listing probe for
// connection tests.
type ObjectStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
	PresignGet(ctx context.Context, path string, ttl time.Duration) (string, error)
	List(ctx context.Context, prefix string, max int32) ([]string, error)
}

// S3Store talks to an S3-compatible managed storage service.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	logger  *logging.Logger
}

// NewS3Store builds a client against the configured endpoint with static
// credentials and path-style addressing.
func NewS3Store(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (*S3Store, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
				Source:            aws.EndpointSourceCustom,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.new", "load storage credentials", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		logger:  logger,
	}, nil
}

func (s *S3Store) Download(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.download", "get object", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.download", "read object body", err)
	}
	return data, nil
}

func (s *S3Store) PresignGet(ctx context.Context, path string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", errors.Wrap(errors.KindStorage, "store.presign", "presign get object", err)
	}
	return req.URL, nil
}

func (s *S3Store) List(ctx context.Context, prefix string, max int32) ([]string, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(max),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.list", "list objects", err)
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}

// Package s3 provides an artifact store backed by Amazon S3, with a
// DynamoDB-backed run registry for tracking the latest report per pipeline.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbdebugger/graphsim/artifact"
)

// Client is the part of the S3 API the store uses. The manager uploader
// needs the multipart surface for large reports.
type Client interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store implements artifact.Store for S3.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewStore creates an S3 artifact store.
// rootPrefix is prepended to all keys (e.g. "graphsim/").
func NewStore(client Client, bucket, rootPrefix string) *Store {
	return &Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   rootPrefix,
	}
}

// NewStoreFromDefaultConfig creates a store using the default AWS
// configuration chain (environment, shared config, instance role).
func NewStoreFromDefaultConfig(ctx context.Context, bucket, rootPrefix string, optFns ...func(*awsconfig.LoadOptions) error) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewStore(s3.NewFromConfig(cfg), bucket, rootPrefix), nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("upload artifact: %w", err)
	}
	return nil
}

// Get downloads the data under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, artifact.ErrNotFound
		}
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, artifact.ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

package keys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the part of *s3.Client the repository uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Options struct {
	Region   string
	User     string
	Password string
	Endpoint string
}

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Client builds a client for an S3-compatible store with static
// credentials. A non-empty Endpoint switches to path-style addressing, which
// is what MinIO expects.
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.User, o.Password, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	}), nil
}

// S3Repository stores each entry as one object named prefix + escaped id.
type S3Repository struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Repository(client S3API, bucket, prefix string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket, prefix: prefix}
}

func (r *S3Repository) objectKey(id string) string {
	return r.prefix + url.PathEscape(id)
}

func (r *S3Repository) Save(ctx context.Context, id string, sealed []byte) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.objectKey(id)),
		Body:        bytes.NewReader(sealed),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("failed to save key %q: %w", id, err)
	}
	return nil
}

// SaveAll writes every entry and then removes stored ids that are not in
// entries. S3 has no transactions, so a failure can leave a mix of old and
// new objects.
func (r *S3Repository) SaveAll(ctx context.Context, entries map[string][]byte) error {
	for id, sealed := range entries {
		if err := r.Save(ctx, id, sealed); err != nil {
			return err
		}
	}

	stored, err := r.ids(ctx)
	if err != nil {
		return err
	}
	for _, id := range stored {
		if _, ok := entries[id]; ok {
			continue
		}
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *S3Repository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectKey(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", id, err)
	}
	return nil
}

func (r *S3Repository) List(ctx context.Context) (map[string][]byte, error) {
	ids, err := r.ids(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(ids))
	for _, id := range ids {
		sealed, err := r.get(ctx, id)
		if err != nil {
			var nsk *types.NoSuchKey
			if errors.As(err, &nsk) {
				// deleted between list and get
				continue
			}
			return nil, fmt.Errorf("failed to get key %q: %w", id, err)
		}
		result[id] = sealed
	}
	return result, nil
}

func (r *S3Repository) get(ctx context.Context, id string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectKey(id)),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (r *S3Repository) ids(ctx context.Context) ([]string, error) {
	var ids []string
	p := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), r.prefix)
			id, err := url.PathUnescape(name)
			if err != nil || strings.Contains(name, "/") {
				// not written by this repository
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Package s3store implements catalog.ContentStore on AWS S3 or any
// S3-compatible object store, one JSON object per record.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/dyluth/classify/pkg/catalog"
)

const objectExt = ".json"

// API is the subset of the S3 client the store uses.
type API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Options configures the S3 connection. Profile takes precedence over static
// keys; with neither, the default AWS credential chain applies.
type Options struct {
	Bucket    string
	Prefix    string
	Region    string
	Profile   string
	AccessKey string
	SecretKey string
	// Endpoint points the client at an S3-compatible service (MinIO, LocalStack).
	// Path-style addressing is used when it is set.
	Endpoint string
}

// Store keeps each record at <prefix><id>.json in a bucket.
type Store struct {
	api    API
	bucket string
	prefix string
}

var _ catalog.ContentStore = (*Store)(nil)

// New loads AWS configuration, builds a client and verifies the bucket is reachable.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket cannot be empty")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	switch {
	case opts.Profile != "":
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	case opts.AccessKey != "" && opts.SecretKey != "":
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	store := NewWithClient(client, opts.Bucket, opts.Prefix)
	if err := store.Ping(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// NewWithClient wraps an existing client. A non-empty prefix is normalised to
// end with "/".
func NewWithClient(api API, bucket, prefix string) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{api: api, bucket: bucket, prefix: prefix}
}

// Ping checks that the bucket exists and is accessible.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return catalog.BackendError("head_bucket", s.bucket, err)
	}
	return nil
}

func (s *Store) key(id string) string {
	return s.prefix + id + objectExt
}

// Put uploads rec as a single object. S3 PUTs are atomic per object.
func (s *Store) Put(ctx context.Context, rec *catalog.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	data, err := catalog.EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(rec.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return catalog.BackendError("put", rec.ID, err)
	}
	return nil
}

// Get downloads and decodes the record object. NoSuchKey reads as absent.
func (s *Store) Get(ctx context.Context, id string) (*catalog.Record, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, catalog.BackendError("get", id, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, catalog.BackendError("get", id, err)
	}

	rec, err := catalog.DecodeRecord(data)
	if err != nil {
		return nil, catalog.CorruptError("get", id, err)
	}
	return rec, nil
}

// Delete removes the object. S3 treats deleting a missing key as success.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil && !isNotFound(err) {
		return catalog.BackendError("delete", id, err)
	}
	return nil
}

// GetBody downloads the record and returns its body.
func (s *Store) GetBody(ctx context.Context, id string) (string, bool, error) {
	rec, err := s.Get(ctx, id)
	if err != nil || rec == nil {
		return "", false, err
	}
	return rec.Content, true, nil
}

// List pages through every object under the prefix.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, catalog.BackendError("list", s.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasPrefix(key, s.prefix) || !strings.HasSuffix(key, objectExt) {
				continue
			}
			id := strings.TrimSuffix(strings.TrimPrefix(key, s.prefix), objectExt)
			if id == "" || strings.Contains(id, "/") {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// FindByHash downloads records one by one until the hash matches. Object
// stores have no secondary index; corrupt objects are skipped.
func (s *Store) FindByHash(ctx context.Context, hash string) (*catalog.Record, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if catalog.IsCorrupt(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec != nil && rec.ContentHash == hash {
			return rec, nil
		}
	}
	return nil, nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

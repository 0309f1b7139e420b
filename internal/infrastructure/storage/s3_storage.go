package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"guestbook-server/internal/config"
)

var errS3Disabled = errors.New("s3 storage backend is not configured; set GUESTBOOK_S3_* to enable")

// s3Client is the subset of the S3 API the backend uses; tests substitute a
// fake.
type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// s3Presigner matches s3.PresignClient.
type s3Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Backend stores media in an S3 bucket configured for public read.
type S3Backend struct {
	bucket         string
	region         string
	publicEndpoint string
	metadataKey    string
	client         s3Client
	raw            *s3.Client
	presigner      s3Presigner
	log            zerolog.Logger
	disabled       bool
}

// NewS3Backend creates the S3 storage backend. When the bucket or the
// credentials are missing the backend is constructed in a disabled state so
// the service can still run on local storage.
func NewS3Backend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Backend, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	backend := &S3Backend{
		bucket:         cfg.S3Bucket,
		region:         cfg.S3Region,
		publicEndpoint: strings.TrimSuffix(cfg.S3PublicEndpoint, "/"),
		metadataKey:    cfg.MetadataKey,
		log:            logger,
	}

	if backend.bucket == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretKey == "" {
		logger.Warn().Msg("GUESTBOOK_S3_BUCKET or credentials are not set; s3 storage will be disabled until configured")
		backend.disabled = true
		return backend, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	backend.client = client
	backend.raw = client
	backend.presigner = s3.NewPresignClient(client)
	return backend, nil
}

func (s *S3Backend) ensureEnabled() error {
	if s.disabled {
		return errS3Disabled
	}
	return nil
}

func (s *S3Backend) Name() string { return "s3" }

// Client exposes the underlying S3 client for collaborators that share the
// bucket, like the metadata document.
func (s *S3Backend) Client() (*s3.Client, bool) {
	if s.disabled {
		return nil, false
	}
	return s.raw, true
}

func (s *S3Backend) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if err := s.ensureEnabled(); err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}

// PresignPut issues a short-lived write URL bound to key and contentType for
// a direct client-to-bucket transfer.
func (s *S3Backend) PresignPut(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error) {
	if err := s.ensureEnabled(); err != nil {
		return "", err
	}
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(o *s3.PresignOptions) {
		o.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

func (s *S3Backend) SupportsPresignedUploads() bool { return !s.disabled }

// PublicURL returns the permanent publicly readable address for a key. The
// bucket is expected to allow public reads; expiring view URLs are
// deliberately not used here.
func (s *S3Backend) PublicURL(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.publicEndpoint != "" {
		return s.publicEndpoint + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func (s *S3Backend) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if err := s.ensureEnabled(); err != nil {
		return ObjectInfo{}, err
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, fmt.Errorf("head object: %w", err)
	}
	info := ObjectInfo{Key: key}
	if out.ContentLength != nil {
		info.Size = *out.ContentLength
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	return info, nil
}

// ReadRange fetches the inclusive byte range [start, end] of the object.
func (s *S3Backend) ReadRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get object range: %w", err)
	}
	return out.Body, nil
}

// List paginates through every object in the bucket. A provider error after
// the first page degrades to a partial listing rather than failing the whole
// enumeration.
func (s *S3Backend) List(ctx context.Context) (Listing, error) {
	if err := s.ensureEnabled(); err != nil {
		return Listing{}, err
	}

	listing := Listing{Complete: true}
	var continuationToken *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			if len(listing.Objects) == 0 {
				return Listing{}, fmt.Errorf("list objects: %w", err)
			}
			s.log.Warn().Err(err).Msg("s3 listing stopped early, returning partial result")
			listing.Complete = false
			return listing, nil
		}

		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			key := *obj.Key
			if key == s.metadataKey || strings.HasPrefix(key, "metadata/") {
				continue
			}
			info := ObjectInfo{Key: key}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			listing.Objects = append(listing.Objects, info)
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			return listing, nil
		}
		continuationToken = out.NextContinuationToken
	}
}

func (s *S3Backend) Delete(ctx context.Context, key string) error {
	if err := s.ensureEnabled(); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Health performs a simple HeadBucket request.
func (s *S3Backend) Health(ctx context.Context) error {
	if s.disabled {
		return nil
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

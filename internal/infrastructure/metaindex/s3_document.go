package metaindex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ObjectAPI is the slice of the S3 API the document needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Document stores the index at a well-known key in the media bucket. The
// revision is the object ETag; writes are conditional PutObjects (If-Match,
// or If-None-Match: * for the first write) so racing writers get
// ErrRevisionMismatch instead of silently clobbering each other.
type S3Document struct {
	client ObjectAPI
	bucket string
	key    string
}

// NewS3Document creates an S3-backed metadata document.
func NewS3Document(client ObjectAPI, bucket, key string) *S3Document {
	return &S3Document{client: client, bucket: bucket, key: key}
}

// Read fetches the document and its ETag; a missing object is an absent
// document, not an error.
func (d *S3Document) Read(ctx context.Context) ([]byte, string, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("read metadata document: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read metadata document body: %w", err)
	}
	revision := ""
	if out.ETag != nil {
		revision = *out.ETag
	}
	return data, revision, nil
}

// Write stores data conditioned on the revision still matching.
func (d *S3Document) Write(ctx context.Context, data []byte, revision string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if revision == "" {
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(revision)
	}

	if _, err := d.client.PutObject(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return ErrRevisionMismatch
			}
		}
		return fmt.Errorf("write metadata document: %w", err)
	}
	return nil
}

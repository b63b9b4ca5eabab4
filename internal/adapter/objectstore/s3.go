package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/genefryaustin-source/cui-inspector/internal/config"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// s3API is the subset of *s3.Client used by S3.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 stores objects in an S3-compatible bucket (AWS S3, MinIO).
// Keys are <prefix><relpath>.
type S3 struct {
	client s3API
	bucket string
	prefix string
}

var _ Store = (*S3)(nil)

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewS3 builds an S3 store from static credentials and an optional custom endpoint.
func NewS3(ctx context.Context, cfg config.ObjectStoreConfig) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})
	return newS3WithClient(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func newS3WithClient(client s3API, bucket, prefix string) *S3 {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) key(relPath string) string { return s.prefix + relPath }

// Put uploads data with If-None-Match: *, so only the first writer of a
// digest creates the object and later writers observe a precondition failure.
func (s *S3) Put(ctx context.Context, data []byte) (PutResult, error) {
	digest := Digest(data)
	rel := RelPath(digest)
	res := PutResult{Digest: digest, RelPath: rel, Size: int64(len(data))}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(rel)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
		IfNoneMatch:   aws.String("*"),
		Metadata:      map[string]string{"sha256": digest},
	})
	if err != nil {
		if alreadyExists(err) {
			return res, nil
		}
		return PutResult{}, &domain.StorageError{Op: "put", Path: rel, Err: err}
	}

	res.Created = true
	return res, nil
}

// Get downloads an object.
func (s *S3) Get(ctx context.Context, relPath string) ([]byte, error) {
	body, err := s.open(ctx, "get", relPath)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Path: relPath, Err: err}
	}
	return data, nil
}

// Exists issues a HEAD request for the object.
func (s *S3) Exists(ctx context.Context, relPath string) (bool, error) {
	if err := validateRelPath(relPath); err != nil {
		return false, &domain.StorageError{Op: "stat", Path: relPath, Err: err}
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(relPath)),
	})
	if err != nil {
		if notFound(err) {
			return false, nil
		}
		return false, &domain.StorageError{Op: "stat", Path: relPath, Err: err}
	}
	return true, nil
}

// Verify streams the object through SHA-256 and compares digests.
func (s *S3) Verify(ctx context.Context, relPath, expectedDigest string) (bool, string, error) {
	body, err := s.open(ctx, "verify", relPath)
	if err != nil {
		return false, "", err
	}
	defer body.Close()

	actual, err := DigestReader(body)
	if err != nil {
		return false, "", &domain.StorageError{Op: "verify", Path: relPath, Err: fmt.Errorf("hash: %w", err)}
	}
	return actual == expectedDigest, actual, nil
}

func (s *S3) open(ctx context.Context, op, relPath string) (io.ReadCloser, error) {
	if err := validateRelPath(relPath); err != nil {
		return nil, &domain.StorageError{Op: op, Path: relPath, Err: err}
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(relPath)),
	})
	if err != nil {
		if notFound(err) {
			return nil, missing(op, relPath)
		}
		return nil, &domain.StorageError{Op: op, Path: relPath, Err: err}
	}
	return out.Body, nil
}

func notFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return httpStatus(err) == http.StatusNotFound
}

// alreadyExists recognizes the conditional-write rejections S3 returns when
// another writer already created the key.
func alreadyExists(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	status := httpStatus(err)
	return status == http.StatusPreconditionFailed || status == http.StatusConflict
}

func httpStatus(err error) int {
	var re interface{ HTTPStatusCode() int }
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

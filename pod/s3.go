package pod

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bertrandchenal/lakota/lkerr"
)

// s3Client is the subset of *s3.Client lakota depends on, so tests can
// substitute a fake without talking to AWS.
type s3Client interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Pod is a Pod backed by an S3-compatible bucket, addressed under an
// optional key prefix.
type S3Pod struct {
	client s3Client
	bucket string
	prefix string
}

var _ Pod = (*S3Pod)(nil)

// NewS3 builds an S3Pod for bucket/prefix using the default AWS
// credential chain (environment, shared config, IAM role).
func NewS3(ctx context.Context, bucket, prefix string) (*S3Pod, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, &lkerr.BackendError{Op: "load aws config", Err: err}
	}
	return &S3Pod{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: normalizePrefix(prefix)}, nil
}

// NewS3WithClient builds an S3Pod from an already-configured client,
// primarily for tests.
func NewS3WithClient(client s3Client, bucket, prefix string) *S3Pod {
	return &S3Pod{client: client, bucket: bucket, prefix: normalizePrefix(prefix)}
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	return p
}

func (s *S3Pod) absKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.prefix == "" {
		return key
	}
	if key == "" {
		return s.prefix
	}
	return s.prefix + "/" + key
}

func (s *S3Pod) Read(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.absKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, &lkerr.NotFound{Key: key}
		}
		return nil, &lkerr.BackendError{Op: "s3 get " + key, Err: err}
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &lkerr.BackendError{Op: "s3 read body " + key, Err: err}
	}
	return data, nil
}

func (s *S3Pod) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.absKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return &lkerr.BackendError{Op: "s3 put " + key, Err: err}
	}
	return nil
}

func (s *S3Pod) Ls(ctx context.Context, prefix string) ([]string, error) {
	absPrefix := s.absKey(prefix)
	if absPrefix != "" && !strings.HasSuffix(absPrefix, "/") {
		absPrefix += "/"
	}
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(absPrefix),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, &lkerr.BackendError{Op: "s3 list " + prefix, Err: err}
	}
	var keys []string
	for _, cp := range out.CommonPrefixes {
		keys = append(keys, childOf(absPrefix, aws.ToString(cp.Prefix)))
	}
	for _, obj := range out.Contents {
		keys = append(keys, childOf(absPrefix, aws.ToString(obj.Key)))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *S3Pod) Walk(ctx context.Context, prefix string) ([]string, error) {
	absPrefix := s.absKey(prefix)
	if absPrefix != "" && !strings.HasSuffix(absPrefix, "/") {
		absPrefix += "/"
	}
	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(absPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, &lkerr.BackendError{Op: "s3 walk " + prefix, Err: err}
		}
		for _, obj := range out.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), absPrefix))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *S3Pod) Rm(ctx context.Context, key string) error {
	// S3 deletes are idempotent, so check presence first to report an
	// absent key as *lkerr.NotFound like the other backends.
	if _, err := s.Read(ctx, key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.absKey(key)),
	})
	if err != nil {
		return &lkerr.BackendError{Op: "s3 delete " + key, Err: err}
	}
	return nil
}

func childOf(prefix, full string) string {
	rel := strings.TrimPrefix(full, prefix)
	rel = strings.TrimSuffix(rel, "/")
	return rel
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}

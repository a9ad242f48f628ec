package datalake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/secret"
)

// S3Store is an ObjectStore backed by an S3-compatible bucket (spec.md
// §4.5's "S3-compatible" storage backend), grounded on the same
// aws-sdk-go-v2 client construction the pack's object-store adapters use.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store resolves credentials in the order spec.md §4.5 requires —
// (1) cfg fields, (2) Secret Oracle keys AWS_ACCESS_KEY_ID/
// AWS_SECRET_ACCESS_KEY, (3) process environment (covered by the Oracle's
// own env fallback) — and fails fast rather than falling back to the
// SDK's default instance-metadata credential chain.
func NewS3Store(ctx context.Context, cfg config.S3Config, oracle secret.Oracle) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, core.NewError(errors.New("s3 storage requires a bucket"), core.CodeConfiguration, nil)
	}
	accessKey, secretKey, err := resolveS3Credentials(ctx, cfg, oracle)
	if err != nil {
		return nil, err
	}

	awsOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	}
	if cfg.Region != "" {
		awsOpts = append(awsOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("loading aws config: %w", err), core.CodeStorage, nil)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: strings.TrimSuffix(cfg.Prefix, "/")}, nil
}

func resolveS3Credentials(ctx context.Context, cfg config.S3Config, oracle secret.Oracle) (string, string, error) {
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		if oracle == nil {
			return "", "", core.NewError(
				errors.New("s3 credentials not found: no config values and no secret oracle configured"),
				core.CodeAuthentication,
				nil,
			)
		}
		if accessKey == "" {
			v, ok, err := oracle.Lookup(ctx, "AWS_ACCESS_KEY_ID")
			if err != nil {
				return "", "", core.NewError(fmt.Errorf("resolving AWS_ACCESS_KEY_ID: %w", err), core.CodeAuthentication, nil)
			}
			if !ok {
				return "", "", core.NewError(
					errors.New(
						"s3 access_key_id not found in config, secret oracle, or AWS_ACCESS_KEY_ID environment variable",
					),
					core.CodeAuthentication,
					nil,
				)
			}
			accessKey = v
		}
		if secretKey == "" {
			v, ok, err := oracle.Lookup(ctx, "AWS_SECRET_ACCESS_KEY")
			if err != nil {
				return "", "", core.NewError(fmt.Errorf("resolving AWS_SECRET_ACCESS_KEY: %w", err), core.CodeAuthentication, nil)
			}
			if !ok {
				return "", "", core.NewError(
					errors.New(
						"s3 secret_access_key not found in config, secret oracle, or AWS_SECRET_ACCESS_KEY environment variable",
					),
					core.CodeAuthentication,
					nil,
				)
			}
			secretKey = v
		}
	}
	return accessKey, secretKey, nil
}

func (s *S3Store) fullKey(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

func (s *S3Store) stripPrefix(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, s.prefix+"/")
}

func (s *S3Store) Put(ctx context.Context, path string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(path)),
		Body:   strings.NewReader(string(data)),
	})
	if err != nil {
		return core.NewError(fmt.Errorf("s3 put %q: %w", path, err), core.CodeStorage, nil)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(path)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, core.NewError(fmt.Errorf("object %q not found", path), core.CodeNotFound, nil)
		}
		return nil, core.NewError(fmt.Errorf("s3 get %q: %w", path, err), core.CodeStorage, nil)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("reading s3 object %q: %w", path, err), core.CodeStorage, nil)
	}
	return data, nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	var token *string
	for {
		resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.fullKey(prefix)),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, core.NewError(fmt.Errorf("s3 list %q: %w", prefix, err), core.CodeStorage, nil)
		}
		for _, obj := range resp.Contents {
			out = append(out, ObjectInfo{
				Path:         s.stripPrefix(aws.ToString(obj.Key)),
				SizeBytes:    aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified).UTC(),
			})
		}
		if !aws.ToBool(resp.IsTruncated) {
			break
		}
		token = resp.NextContinuationToken
	}
	return out, nil
}

func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(path)),
	})
	if err != nil && !isNoSuchKey(err) {
		return core.NewError(fmt.Errorf("s3 delete %q: %w", path, err), core.CodeStorage, nil)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound) || strings.Contains(err.Error(), "NotFound")
}

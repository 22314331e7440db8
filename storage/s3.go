package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/infieles/reportes/config"
	errs "github.com/infieles/reportes/errors"
	"github.com/infieles/reportes/logger"
)

// s3API is the part of *s3.Client the store needs.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store uploads evidence to a bucket with a public-read ACL.
type S3Store struct {
	base
	client        s3API
	bucket        string
	prefix        string
	publicBaseURL string
}

func NewS3Store(ctx context.Context, c *config.Config, log logger.LoggerService) (*S3Store, error) {
	client, err := createS3Client(ctx, c)
	if err != nil {
		return nil, err
	}
	return newS3Store(client, c, OptionsFromConfig(c), log), nil
}

func newS3Store(client s3API, c *config.Config, opts Options, log logger.LoggerService) *S3Store {
	prefix := strings.Trim(c.S3Prefix, "/")
	publicBase := c.S3PublicBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.AWSBucket, c.AWSRegion)
		if prefix != "" {
			publicBase += "/" + prefix
		}
	}
	return &S3Store{
		base:          newBase(opts, log.Named("s3")),
		client:        client,
		bucket:        c.AWSBucket,
		prefix:        prefix,
		publicBaseURL: publicBase,
	}
}

func createS3Client(ctx context.Context, c *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.AWSRegion)}
	if c.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AWSAccessKeyID,
			c.AWSSecretAccessKey,
			"",
		)))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.Storage(err, "unable to load SDK config")
	}
	return s3.NewFromConfig(cfg), nil
}

func (s *S3Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *S3Store) Save(ctx context.Context, r io.Reader, originalName string) (string, error) {
	name, body, err := s.prepare(r, originalName)
	if err != nil {
		return "", err
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return "", errs.Storage(err, "failed to read file content")
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(http.DetectContentType(content)),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", errs.Storage(err, "failed to upload file to S3")
	}

	s.log.Debug("uploaded %s to s3://%s/%s", originalName, s.bucket, s.key(name))
	return s.publicBaseURL + "/" + name, nil
}

func (s *S3Store) Delete(ctx context.Context, ref string) {
	name := refName(ref)
	if name == "" {
		s.log.Warn("ignoring delete of unusable reference %q", ref)
		return
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		s.log.Warn("could not remove s3://%s/%s: %v", s.bucket, s.key(name), err)
		return
	}
	s.log.Debug("removed s3://%s/%s", s.bucket, s.key(name))
}

// Package publish uploads built incentive artifacts to an S3-compatible
// bucket.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"incentives/internal/build"
	"incentives/internal/config"
	"incentives/internal/logging"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Publisher struct {
	Client ObjectPutter
	Bucket string
	Prefix string
	Root   string
	Logger *slog.Logger
}

// Upload is one object written by Publish.
type Upload struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// NewS3Client builds an S3 client for cfg. A non-empty endpoint switches to
// path-style addressing for R2, MinIO and similar stores.
func NewS3Client(ctx context.Context, cfg config.PublishConfig) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, opts...), nil
}

var artifacts = []struct {
	file        string
	contentType string
	required    bool
}{
	{"content.pdf", "application/pdf", true},
	{"assets.zip", "application/zip", false},
}

// Publish uploads the built PDF and, if present, the asset bundle of one
// incentive under <prefix>/<name>/.
func (p *Publisher) Publish(ctx context.Context, name string) ([]Upload, error) {
	if p.Bucket == "" {
		return nil, fmt.Errorf("publish.bucket is not configured")
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	dist := build.DistDir(p.Root, name)
	var uploads []Upload
	for _, a := range artifacts {
		data, err := os.ReadFile(filepath.Join(dist, a.file))
		if err != nil {
			if os.IsNotExist(err) {
				if a.required {
					return uploads, fmt.Errorf("%s has no %s; run inc build %s first", name, a.file, name)
				}
				continue
			}
			return uploads, err
		}
		key := path.Join(p.Prefix, name, a.file)
		if _, err := p.Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(a.contentType),
		}); err != nil {
			return uploads, fmt.Errorf("s3 put object %s: %w", key, err)
		}
		logger.Info("uploaded", "bucket", p.Bucket, "key", key, "bytes", len(data))
		uploads = append(uploads, Upload{Key: key, Size: int64(len(data))})
	}
	return uploads, nil
}

// PublishAll publishes every buildable incentive under Root.
func (p *Publisher) PublishAll(ctx context.Context) ([]Upload, error) {
	names, err := build.List(p.Root)
	if err != nil {
		return nil, err
	}
	var all []Upload
	for _, name := range names {
		ups, err := p.Publish(ctx, name)
		all = append(all, ups...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

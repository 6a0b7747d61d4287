package backup

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3MirrorConfig mirrors completed FULL backup archives to an
// S3-compatible bucket for off-box durability.
type S3MirrorConfig struct {
	Enable          bool
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// s3Mirror uploads completed archives to S3; adapted from the teacher's
// CheckpointStore (internal/storage/s3.go), minus its local-NVMe-cache
// machinery, which has no counterpart for off-box backup durability.
type s3Mirror struct {
	client *s3.Client
	bucket string
}

func newS3Mirror(cfg S3MirrorConfig) (*s3Mirror, error) {
	if !cfg.Enable {
		return nil, nil
	}

	var client *s3.Client
	if cfg.AccessKeyID != "" {
		opts := []func(*s3.Options){
			func(o *s3.Options) {
				o.Region = cfg.Region
				o.Credentials = credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID, cfg.SecretAccessKey, "",
				)
				if cfg.ForcePathStyle {
					o.UsePathStyle = true
				}
				if cfg.Endpoint != "" {
					o.BaseEndpoint = aws.String(cfg.Endpoint)
				}
			},
		}
		client = s3.New(s3.Options{}, opts...)
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config for s3 mirror: %w", err)
		}
		var s3Opts []func(*s3.Options)
		if cfg.ForcePathStyle {
			s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
		}
		if cfg.Endpoint != "" {
			s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(cfg.Endpoint) })
		}
		client = s3.NewFromConfig(awsCfg, s3Opts...)
	}

	return &s3Mirror{client: client, bucket: cfg.Bucket}, nil
}

// upload ships localPath to the mirror bucket under key. Failures are the
// caller's to log-and-ignore — a mirror outage must never fail the local
// backup that already succeeded.
func (m *s3Mirror) upload(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open archive for mirror upload: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive for mirror upload: %w", err)
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
	})
	if err != nil {
		return fmt.Errorf("upload archive to s3 mirror: %w", err)
	}
	return nil
}

package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/pkg/config"
)

// putObjectAPI parte do *s3.Client usada aqui; fake nos testes.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive grava no bucket com a mesma chave do arquivo em disco.
type S3Archive struct {
	client putObjectAPI
	bucket string
}

var _ manifest.XMLArchive = (*S3Archive)(nil)

// NewS3Archive com S3Endpoint definido usa path-style (MinIO, LocalStack).
func NewS3Archive(ctx context.Context, cfg config.ArchiveConfig) (*S3Archive, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("archive: S3_BUCKET não configurado")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3KeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3KeyID, cfg.S3Secret, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: carregar configuração AWS: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Archive(client, cfg.S3Bucket), nil
}

func newS3Archive(client putObjectAPI, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket}
}

func (a *S3Archive) Save(ctx context.Context, e manifest.ArchiveEntry) error {
	if err := validate(e); err != nil {
		return err
	}
	key := ObjectKey(e)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(e.Content),
		ContentType: aws.String("application/xml"),
		Metadata: map[string]string{
			"access-key": e.AccessKey,
			"kind":       string(e.Kind),
		},
	})
	if err != nil {
		return fmt.Errorf("archive: enviar s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}

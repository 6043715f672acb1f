package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Config locates the bucket documents are stored in.
type S3Config struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// objectAPI is the part of *s3.Client the repository uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Repository keeps each document as a JSON object named <path>.json.
// Merge writes read, merge and write back under a mutex, so they are only
// atomic within one server process.
type S3Repository struct {
	client objectAPI
	bucket string
	mu     sync.Mutex
}

var _ Repository = (*S3Repository)(nil)

// NewS3Repository builds an S3 client for an S3-compatible endpoint such
// as MinIO, using static credentials and path-style addressing.
func NewS3Repository(ctx context.Context, c S3Config) (*S3Repository, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.User,     // MINIO_ROOT_USER
			c.Password, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &S3Repository{client: client, bucket: c.Bucket}, nil
}

func objectKey(path string) string {
	return path + ".json"
}

func (r *S3Repository) Get(ctx context.Context, path string) (docstore.Fields, bool, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, false, err
	}
	return r.get(ctx, path)
}

func (r *S3Repository) get(ctx context.Context, path string) (docstore.Fields, bool, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectKey(path)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get object %s: %w", path, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read object %s: %w", path, err)
	}

	var fields docstore.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false, fmt.Errorf("decode document %s: %w", path, err)
	}
	if fields == nil {
		fields = docstore.Fields{}
	}
	return fields, true, nil
}

func (r *S3Repository) Set(ctx context.Context, path string, fields docstore.Fields, opts docstore.SetOptions) error {
	if err := docstore.ValidatePath(path); err != nil {
		return err
	}
	in, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if opts.Merge {
		existing, ok, err := r.get(ctx, path)
		if err != nil {
			return err
		}
		if ok {
			in = docstore.Merge(existing, in)
		}
	}
	if in == nil {
		in = docstore.Fields{}
	}

	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(objectKey(path)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", path, err)
	}
	return nil
}

package gateway

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"herd-census/internal/domain"
)

// S3API is the part of the S3 client the invoice store uses.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds the bucket connection settings.
type S3Config struct {
	Region    string
	Bucket    string
	Prefix    string
	Endpoint  string // optional; S3-compatible endpoint such as MinIO
	PathStyle bool
}

// NewS3Client builds an S3 client from the default credential chain.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// S3InvoiceStore implements the InvoiceStore interface over JSON invoice
// documents kept in a bucket.
type S3InvoiceStore struct {
	client S3API
	bucket string
	prefix string
}

// NewS3InvoiceStore creates a store reading every *.json object under prefix.
func NewS3InvoiceStore(client S3API, bucket, prefix string) (*S3InvoiceStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	return &S3InvoiceStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// ListInvoices decodes every JSON object under the prefix in key order.
func (s *S3InvoiceStore) ListInvoices(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.RawInvoice, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}

	var invoices []domain.RawInvoice
	for _, key := range keys {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: aws.String(key)})
		if err != nil {
			return nil, fmt.Errorf("get object %s: %w", key, err)
		}
		data, err := io.ReadAll(out.Body)
		_ = out.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read object %s: %w", key, err)
		}
		invoices = append(invoices, decodeDocument(key, data)...)
	}
	return invoices, nil
}

func (s *S3InvoiceStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &s.prefix, ContinuationToken: token})
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(strings.ToLower(key), ".json") {
				keys = append(keys, key)
			}
		}
		if out.IsTruncated != nil && *out.IsTruncated && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Strings(keys)
	return keys, nil
}

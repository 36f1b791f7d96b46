package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const immutableCacheControl = "public,max-age=31536000,immutable"

// S3Options configures the presigner. Empty keys fall back to the default AWS credential chain.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBase      string
}

// S3Presigner signs client-direct uploads and downloads. It never transfers object data itself.
type S3Presigner struct {
	client     *s3.S3
	bucket     string
	region     string
	publicBase string
}

func NewS3Presigner(opts S3Options) (*S3Presigner, error) {
	cfg := &aws.Config{Region: aws.String(opts.Region)}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if opts.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretAccessKey, "")
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &S3Presigner{
		client:     s3.New(sess),
		bucket:     opts.Bucket,
		region:     opts.Region,
		publicBase: strings.TrimRight(opts.PublicBase, "/"),
	}, nil
}

func (p *S3Presigner) Bucket() string { return p.bucket }
func (p *S3Presigner) Region() string { return p.region }

// PresignPut returns a URL the client can PUT the object to. Images get a long-lived immutable cache header.
func (p *S3Presigner) PresignPut(key, contentType string, ttl time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	if strings.HasPrefix(contentType, "image/") {
		input.CacheControl = aws.String(immutableCacheControl)
	}
	req, _ := p.client.PutObjectRequest(input)
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return url, nil
}

func (p *S3Presigner) PresignGet(key string, ttl time.Duration) (string, error) {
	req, _ := p.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return url, nil
}

// PublicURL is where the object is served from once uploaded.
func (p *S3Presigner) PublicURL(key string) string {
	if p.publicBase != "" {
		return p.publicBase + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}

package constancia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignExpiry is how long a redirect URL stays valid.
const PresignExpiry = 15 * time.Minute

type S3Config struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string // set for S3-compatible stores such as MinIO
	AccessKey string // empty uses the default AWS credential chain
	SecretKey string
}

type presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Source redirects to a short-lived presigned GET of the PDF object.
type S3Source struct {
	bucket    string
	key       string
	presigner presigner
}

func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, errors.New("constancia: s3 bucket and key are required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3Source(awsCfg, cfg), nil
}

func newS3Source(awsCfg aws.Config, cfg S3Config) *S3Source {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Source{
		bucket:    cfg.Bucket,
		key:       cfg.Key,
		presigner: s3.NewPresignClient(client),
	}
}

// PresignedURL returns a GET URL for the PDF valid for PresignExpiry.
func (s *S3Source) PresignedURL(ctx context.Context) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(s.key),
		ResponseContentType:        aws.String("application/pdf"),
		ResponseContentDisposition: aws.String(`inline; filename="constancia-situacion-fiscal.pdf"`),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign constancia: %w", err)
	}
	return req.URL, nil
}

func (s *S3Source) Serve(w http.ResponseWriter, r *http.Request) error {
	u, err := s.PresignedURL(r.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, u, http.StatusFound)
	return nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "github.com/AdSnap-Studio/adsnap/internal/config"
)

// Archive copies produced images into S3-compatible object storage. The
// image engine's result URLs expire; archived copies do not.
type Archive struct {
	client     *s3.Client
	bucket     string
	httpClient *http.Client
}

// NewArchive creates an archive client for the configured bucket. Works
// against AWS S3 and S3-compatible endpoints such as DigitalOcean Spaces.
func NewArchive(cfg *appconfig.Config) (*Archive, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.S3.Endpoint != "" && service == s3.ServiceID {
			return aws.Endpoint{
				URL:           cfg.S3.Endpoint,
				SigningRegion: region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
		awsconfig.WithRegion(cfg.S3.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3.Endpoint != ""
	})

	return &Archive{
		client: client,
		bucket: cfg.S3.Bucket,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// ArchiveImage fetches the image behind sourceURL and stores it under the
// account's prefix. Returns the object key.
func (a *Archive) ArchiveImage(ctx context.Context, accountUUID, imageID, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image for archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image fetch returned %s", resp.Status)
	}

	key := imageKey(accountUUID, imageID, sourceURL)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	if err := a.upload(ctx, key, resp.Body, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (a *Archive) upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	return nil
}

// PresignedURL creates a time-limited download URL for an archived image.
func (a *Archive) PresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(a.client)

	url, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiration
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.URL, nil
}

// ListAccountImages lists the archived object keys for an account.
func (a *Archive) ListAccountImages(ctx context.Context, accountUUID string) ([]string, error) {
	prefix := fmt.Sprintf("accounts/%s/images/", accountUUID)

	result, err := a.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	var keys []string
	for _, obj := range result.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}

// imageKey builds the object key, keeping the source file extension when it
// has one.
func imageKey(accountUUID, imageID, sourceURL string) string {
	ext := ".png"
	if u, err := url.Parse(sourceURL); err == nil {
		if e := filepath.Ext(path.Base(u.Path)); e != "" && len(e) <= 5 {
			ext = e
		}
	}
	return fmt.Sprintf("accounts/%s/images/%s%s", accountUUID, imageID, ext)
}

package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSStore puts objects into an Aliyun OSS bucket.
type OSSStore struct {
	bucket  *oss.Bucket
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	// PublicBaseURL overrides the https://<bucket>.<endpoint> URL form.
	PublicBaseURL string
	Timeout       time.Duration
}

func NewOSSStore(cfg OSSConfig) (*OSSStore, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret, oss.Timeout(10, 120))
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %q: %w", cfg.Bucket, err)
	}
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
		base = fmt.Sprintf("https://%s.%s", cfg.Bucket, host)
	}
	return &OSSStore{bucket: bucket, baseURL: base, timeout: cfg.Timeout, now: time.Now}, nil
}

func (s *OSSStore) Upload(ctx context.Context, u Upload) (Object, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	key := u.Key(s.now())
	err := s.bucket.PutObject(key, bytes.NewReader(u.Data),
		oss.ContentType(u.ContentType),
		oss.WithContext(ctx),
	)
	if err != nil {
		return Object{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return Object{
		URL:      s.baseURL + "/" + key,
		PublicID: key,
		MimeType: u.ContentType,
		Bytes:    int64(len(u.Data)),
	}, nil
}

func (s *OSSStore) Destroy(ctx context.Context, publicID string) error {
	if err := s.bucket.DeleteObject(publicID, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}

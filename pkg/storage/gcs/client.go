// Package gcs stores product images in a Google Cloud Storage bucket through
// the JSON API.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/angelmondragon/petfood-backend/pkg/config"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/storage"
)

const (
	defaultAPIBase = "https://storage.googleapis.com"
	requestTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
	errBodyLimit   = 2048
)

var errNotInitialized = errors.New("gcs client not initialized")

// Client implements storage.ImageStore for one bucket.
type Client struct {
	httpClient  *http.Client
	bucket      string
	publicHost  string
	apiBase     string
	tokenSource *tokenSource
}

// NewClient picks credentials from inline JSON, then a key file, then the
// metadata server, and checks bucket access before returning.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	bucket := strings.TrimSpace(cfg.BucketName)
	if bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	hc := &http.Client{Timeout: requestTimeout}

	var (
		ts  *tokenSource
		err error
	)
	switch {
	case gcp.CredentialsJSON != "":
		ts, err = serviceAccountSource(hc, []byte(gcp.CredentialsJSON))
	case gcp.ApplicationCredentials != "":
		raw, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("read gcp credentials: %w", readErr)
		}
		ts, err = serviceAccountSource(hc, raw)
	default:
		ts = metadataSource(hc)
	}
	if err != nil {
		return nil, err
	}

	host := strings.TrimRight(strings.TrimSpace(cfg.PublicHost), "/")
	if host == "" {
		host = defaultAPIBase
	}
	c := &Client{httpClient: hc, bucket: bucket, publicHost: host, apiBase: defaultAPIBase, tokenSource: ts}
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs bucket %q unreachable: %w", bucket, err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", bucket), "storage.gcs.ready")
	}
	return c, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

func (c *Client) Close() error { return nil }

// Ping lists at most one object, which needs storage.objects.list.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokenSource == nil || c.bucket == "" {
		return errNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, c.objectsURL("")+"?maxResults=1", nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return statusError("gcs list", resp)
	}
	return nil
}

// Upload writes body with a single media request and returns the public URL.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (storage.Object, error) {
	key, err := c.prepare(key)
	if err != nil {
		return storage.Object{}, err
	}

	q := url.Values{"uploadType": {"media"}, "name": {key}}
	target := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?%s", c.apiBase, url.PathEscape(c.bucket), q.Encode())
	resp, err := c.do(ctx, http.MethodPost, target, body, func(req *http.Request) {
		req.Header.Set("Content-Type", contentType)
		if size > 0 {
			req.ContentLength = size
		}
	})
	if err != nil {
		return storage.Object{}, fmt.Errorf("gcs upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return storage.Object{}, statusError("gcs upload", resp)
	}
	return storage.Object{Key: key, URL: c.PublicURL(key)}, nil
}

// Delete removes the object. A 404 counts as success.
func (c *Client) Delete(ctx context.Context, key string) error {
	key, err := c.prepare(key)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodDelete, c.objectsURL(key), nil, nil)
	if err != nil {
		return fmt.Errorf("gcs delete: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return statusError("gcs delete", resp)
}

// PublicURL is <host>/<bucket>/<key> with each key segment escaped.
func (c *Client) PublicURL(key string) string {
	parts := strings.Split(key, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return c.publicHost + "/" + c.bucket + "/" + strings.Join(parts, "/")
}

func (c *Client) prepare(key string) (string, error) {
	if c == nil || c.tokenSource == nil {
		return "", errNotInitialized
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("object key is required")
	}
	return key, nil
}

func (c *Client) objectsURL(key string) string {
	u := fmt.Sprintf("%s/storage/v1/b/%s/o", c.apiBase, url.PathEscape(c.bucket))
	if key != "" {
		u += "/" + url.PathEscape(key)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader, decorate func(*http.Request)) (*http.Response, error) {
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if decorate != nil {
		decorate(req)
	}
	return c.httpClient.Do(req)
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
	if msg := strings.TrimSpace(string(b)); msg != "" {
		return fmt.Errorf("%s: %s: %s", op, resp.Status, msg)
	}
	return fmt.Errorf("%s: %s", op, resp.Status)
}

package restore

import (
	"context"
	"time"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
	"github.com/warelay/warelay/config"
)

// Client forwards images to an external face-restoration service and
// returns the enhanced JPEG. Like the Cloud API client it is
// synchronous with a fixed timeout and no retry.
type Client struct {
	url     string
	timeout time.Duration
}

func NewClient(cfg *config.AppConfig) *Client {
	return &Client{
		url:     cfg.Restore.URL,
		timeout: time.Duration(cfg.System.ApiTimeout) * time.Second,
	}
}

// Enabled reports whether a restoration backend is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Enhance posts the image file at path to the restoration service and
// returns the enhanced image bytes.
func (c *Client) Enhance(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	var code int
	err := gout.POST(c.url).
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetForm(gout.H{"image": gout.FormFile(path)}).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "restore: enhance request")
	}
	if code < 200 || code >= 300 {
		return nil, errors.Errorf("restore: enhance failed: status %d", code)
	}
	return body, nil
}

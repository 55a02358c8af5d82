package cloudapi

import (
	"context"
	"fmt"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/warelay/warelay/config"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SendResult carries the vendor send response: the wamid extracted for
// bookkeeping plus the raw body, returned verbatim to API callers.
type SendResult struct {
	WamID string
	Raw   []byte
}

// Client talks to the Cloud API (Graph API) for one phone number.
// Calls are synchronous with a fixed timeout and no retry; a failure
// surfaces immediately to the caller.
type Client struct {
	baseURL       string
	version       string
	phoneNumberID string
	token         string
	templateName  string
	templateLang  string
	timeout       time.Duration
}

func NewClient(cfg *config.AppConfig) *Client {
	return &Client{
		baseURL:       cfg.WhatsApp.GraphBaseURL,
		version:       cfg.WhatsApp.GraphVersion,
		phoneNumberID: cfg.WhatsApp.PhoneNumberID,
		token:         cfg.WhatsApp.Token,
		templateName:  cfg.WhatsApp.TemplateName,
		templateLang:  cfg.WhatsApp.TemplateLang,
		timeout:       time.Duration(cfg.System.ApiTimeout) * time.Second,
	}
}

func (c *Client) mediaURL() string {
	return fmt.Sprintf("%s/%s/%s/media", c.baseURL, c.version, c.phoneNumberID)
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.version, c.phoneNumberID)
}

// UploadMedia uploads the file at path and returns the vendor media id.
func (c *Client) UploadMedia(ctx context.Context, path string) (string, error) {
	var body string
	var code int
	err := gout.POST(c.mediaURL()).
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(gout.H{"Authorization": "Bearer " + c.token}).
		SetForm(gout.H{
			"messaging_product": "whatsapp",
			"file":              gout.FormFile(path),
		}).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return "", errors.Wrap(err, "cloudapi: media upload")
	}
	zap.L().Info("cloudapi: media upload response", zap.Int("status", code))
	if code < 200 || code >= 300 {
		return "", errors.Errorf("cloudapi: media upload failed: status %d: %s", code, body)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil || resp.ID == "" {
		return "", errors.New("cloudapi: media upload: no media id in response")
	}
	return resp.ID, nil
}

// SendTemplate sends the approved template to the recipient with the
// uploaded image as the header parameter and name as the body parameter.
func (c *Client) SendTemplate(ctx context.Context, to, mediaID, name string) (*SendResult, error) {
	if name == "" {
		name = "User"
	}
	payload := gout.H{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": gout.H{
			"name":     c.templateName,
			"language": gout.H{"code": c.templateLang},
			"components": []gout.H{
				{
					"type": "header",
					"parameters": []gout.H{
						{"type": "image", "image": gout.H{"id": mediaID}},
					},
				},
				{
					"type": "body",
					"parameters": []gout.H{
						{"type": "text", "text": name},
					},
				},
			},
		},
	}

	var body string
	var code int
	err := gout.POST(c.messagesURL()).
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(gout.H{"Authorization": "Bearer " + c.token}).
		SetJSON(payload).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "cloudapi: template send")
	}
	zap.L().Info("cloudapi: send response", zap.Int("status", code), zap.String("to", to))
	if code < 200 || code >= 300 {
		return nil, errors.Errorf("cloudapi: template send failed: status %d: %s", code, body)
	}

	var resp struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	result := &SendResult{Raw: []byte(body)}
	if err := json.Unmarshal([]byte(body), &resp); err == nil && len(resp.Messages) > 0 {
		result.WamID = resp.Messages[0].ID
	}
	return result, nil
}

// package-level client instance (set once at startup)
var globalClient *Client

func Init(cfg *config.AppConfig) {
	globalClient = NewClient(cfg)
}

// Get returns the configured client or nil if not initialized.
func Get() *Client {
	return globalClient
}

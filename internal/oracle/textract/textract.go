package textract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("textract oracle config invalid")
	ErrRequestFailed   = errors.New("textract oracle request failed")
	ErrResponseInvalid = errors.New("textract oracle response invalid")
)

// Config 文字提取（OCR）服务配置
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client 文字提取客户端
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient 创建文字提取客户端
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrConfigInvalid)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Extract 提取证书图像中的文字
func (c *Client) Extract(ctx context.Context, certificatePath string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrConfigInvalid
	}
	if strings.TrimSpace(certificatePath) == "" {
		return "", fmt.Errorf("%w: certificate path is required", ErrConfigInvalid)
	}

	body, err := json.Marshal(map[string]interface{}{
		"image_path": certificatePath,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return parsed.Text, nil
}

package tamper

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
	ErrConfigInvalid   = errors.New("tamper oracle config invalid")
	ErrRequestFailed   = errors.New("tamper oracle request failed")
	ErrResponseInvalid = errors.New("tamper oracle response invalid")
)

// Config 图像篡改检测服务配置
type Config struct {
	Endpoint string        // 检测服务地址
	Timeout  time.Duration // 单次调用超时
}

// Detection 篡改检测读数
// Confidence 为服务返回的篡改置信分，量纲由检测服务定义。
type Detection struct {
	Confidence float64 `json:"confidence"`
	Regions    int     `json:"regions"` // 可疑区域数量
}

// Client 篡改检测客户端
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient 创建篡改检测客户端
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

// Detect 检测证书图像的像素篡改迹象
func (c *Client) Detect(ctx context.Context, certificatePath string) (*Detection, error) {
	if c == nil || c.client == nil {
		return nil, ErrConfigInvalid
	}
	if strings.TrimSpace(certificatePath) == "" {
		return nil, fmt.Errorf("%w: certificate path is required", ErrConfigInvalid)
	}

	body, err := json.Marshal(map[string]interface{}{
		"image_path": certificatePath,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var detection Detection
	if err := json.Unmarshal(respBytes, &detection); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if detection.Confidence < 0 {
		return nil, fmt.Errorf("%w: negative confidence", ErrResponseInvalid)
	}
	return &detection, nil
}

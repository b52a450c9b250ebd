package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var (
	ErrConfigInvalid   = errors.New("risk oracle config invalid")
	ErrRequestFailed   = errors.New("risk oracle request failed")
	ErrResponseInvalid = errors.New("risk oracle response invalid")
)

// ScanPoint 提交给风险推理的单条脱敏扫描样本
type ScanPoint struct {
	CodeValue string  `json:"code_value"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	State     string  `json:"state"`
}

// Prediction 风险推理返回的热点预测
type Prediction struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RiskScore float64 `json:"risk_score"`
	Advisory  string  `json:"advisory"`
}

// Client Gemini 风险推理客户端
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient 创建风险推理客户端
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrConfigInvalid)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"

	return &Client{client: client, model: model}, nil
}

// Close 关闭底层连接
func (c *Client) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
	}
}

// PredictHotspots 根据可疑扫描样本预测假药流通热点
func (c *Client) PredictHotspots(ctx context.Context, points []ScanPoint) ([]Prediction, error) {
	if c == nil || c.model == nil {
		return nil, ErrConfigInvalid
	}
	if len(points) == 0 {
		return []Prediction{}, nil
	}

	prompt, err := buildHotspotPrompt(points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrResponseInvalid)
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return parsePredictions(text)
}

// buildHotspotPrompt 构造热点推理提示词
func buildHotspotPrompt(points []ScanPoint) (string, error) {
	sample, err := json.Marshal(points)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("You are a pharmaceutical supply-chain risk analyst. ")
	sb.WriteString("Given the following anonymized suspicious verification scans, ")
	sb.WriteString("cluster them geographically and estimate counterfeit circulation hotspots. ")
	sb.WriteString("Respond with a JSON array only, each element in the form ")
	sb.WriteString(`{"latitude": number, "longitude": number, "risk_score": number between 0 and 1, "advisory": string}. `)
	sb.WriteString("Scans: ")
	sb.Write(sample)
	return sb.String(), nil
}

// parsePredictions 解析模型返回的 JSON 数组
// 模型偶尔会包上 Markdown 代码块，先剥掉围栏再解析。
func parsePredictions(text string) ([]Prediction, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var predictions []Prediction
	if err := json.Unmarshal([]byte(cleaned), &predictions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return predictions, nil
}

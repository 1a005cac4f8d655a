package econt

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vitrina-shop/internal/metrics"
)

var (
	// ErrCarrier 承运商返回错误体或响应结构异常（可重试）
	ErrCarrier = errors.New("CarrierError")
	// ErrTransport 网络连接或超时（与 ErrCarrier 同样按重试策略处理）
	ErrTransport = errors.New("TransportError")
	// ErrConfigInvalid 客户端配置缺失
	ErrConfigInvalid = errors.New("econt config invalid")
)

const (
	defaultTimeout = 30 * time.Second

	endpointCreateLabel = "/Shipments/LabelService.createLabel.json"
	endpointStatuses    = "/Shipments/ShipmentService.getShipmentStatuses.json"
	endpointCities      = "/Nomenclatures/NomenclaturesService.getCities.json"
	endpointOffices     = "/Nomenclatures/NomenclaturesService.getOffices.json"
)

// Config Econt 接口配置
type Config struct {
	BaseURL   string
	Username  string
	Password  string
	Timeout   time.Duration
	VerifySSL bool
}

// Client Econt HTTP 客户端（无状态，可并发使用）
type Client struct {
	cfg        Config
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient 创建客户端
func NewClient(cfg Config, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // 测试环境证书
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		metrics: m,
	}
}

// post 发送 JSON 请求，返回解析后的响应体与状态码
func (c *Client) post(ctx context.Context, operation, endpoint string, payload interface{}) (map[string]interface{}, int, error) {
	started := time.Now()
	raw, status, err := c.doJSONRequest(ctx, endpoint, payload)
	c.metrics.ObserveCarrierCall(operation, time.Since(started), err)
	return raw, status, err
}

func (c *Client) doJSONRequest(ctx context.Context, endpoint string, payload interface{}) (map[string]interface{}, int, error) {
	if c == nil || c.cfg.BaseURL == "" {
		return nil, 0, fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: marshal request failed", ErrCarrier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrTransport)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrTransport)
	}
	var raw map[string]interface{}
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &raw); err != nil {
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, resp.StatusCode, fmt.Errorf("%w: http status %d", ErrCarrier, resp.StatusCode)
			}
			return nil, resp.StatusCode, fmt.Errorf("%w: decode response failed", ErrCarrier)
		}
	}
	return raw, resp.StatusCode, nil
}

// ExtractErrorMessage 从承运商错误对象中提取可读信息，顶层信息后拼接 innerErrors，形如 "top: inner1; inner2"
func ExtractErrorMessage(raw map[string]interface{}) string {
	if raw == nil {
		return ""
	}
	top := ""
	for _, key := range []string{"message", "messageBg", "errorMessage", "errorMessageBg"} {
		if msg := strings.TrimSpace(readString(raw, key)); msg != "" {
			top = msg
			break
		}
	}
	inner := innerErrorMessages(raw)
	switch {
	case top == "":
		return inner
	case inner == "":
		return top
	default:
		return top + ": " + inner
	}
}

func innerErrorMessages(raw map[string]interface{}) string {
	inner, ok := raw["innerErrors"].([]interface{})
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(inner))
	for _, item := range inner {
		child, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if msg := ExtractErrorMessage(child); msg != "" {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

func carrierError(raw map[string]interface{}, status int) error {
	msg := ExtractErrorMessage(raw)
	if msg == "" {
		msg = fmt.Sprintf("http status %d", status)
	}
	return fmt.Errorf("%w: %s", ErrCarrier, msg)
}

func isErrorBody(raw map[string]interface{}) bool {
	if raw == nil {
		return false
	}
	if _, ok := raw["innerErrors"]; ok {
		return true
	}
	_, hasType := raw["type"]
	_, hasMessage := raw["message"]
	return hasType && hasMessage
}

func readString(raw map[string]interface{}, path ...string) string {
	if raw == nil {
		return ""
	}
	var current interface{} = raw
	for _, seg := range path {
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := current.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return ""
			}
			current = arr[idx]
			continue
		}
		next, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current = next[seg]
	}
	if current == nil {
		return ""
	}
	switch v := current.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func readFloat(raw map[string]interface{}, path ...string) (float64, bool) {
	text := strings.TrimSpace(readString(raw, path...))
	if text == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil {
		return nil
	}
	value, _ := raw[key].(map[string]interface{})
	return value
}

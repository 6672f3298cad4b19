package sapb1

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pragavigithub/emerging-wms/internal/config"
)

// =============================================================================
// Client — SAP B1 Service Layer基础客户端
// 提供会话管理和通用HTTP请求，可被查询、过账等子模块共用
// =============================================================================

var (
	// ErrUnavailable Service Layer不可达（网络/超时/登录失败）
	ErrUnavailable = errors.New("service layer unavailable")
	// ErrNotFound 查询的单据在Service Layer中不存在
	ErrNotFound = errors.New("service layer document not found")
)

// APIError Service Layer返回的业务错误
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("service layer error [%d]: %s", e.Code, e.Message)
}

// slErrorBody Service Layer统一错误响应体
type slErrorBody struct {
	Error struct {
		Code    int `json:"code"`
		Message struct {
			Lang  string `json:"lang"`
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

// Client SAP B1 Service Layer客户端
type Client struct {
	baseURL    string
	companyDB  string       // 账套名
	username   string
	password   string
	session    string       // 缓存的B1SESSION
	sessionExp time.Time    // 会话过期时间
	mu         sync.RWMutex // 保护会话缓存的读写锁
	httpClient *http.Client
}

// NewClient 创建Service Layer客户端实例
// Service Layer通常使用自签名证书，跳过校验
func NewClient(cfg config.SAPB1Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		companyDB: cfg.CompanyDB,
		username:  cfg.Username,
		password:  cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// getSession 获取会话ID（POST /Login）
// 使用双重检查锁定模式缓存会话，提前60秒刷新避免过期
// 登录幂等且可重入：并发登录只是各自拿到新会话
func (c *Client) getSession(ctx context.Context) (string, error) {
	// 先尝试从缓存获取（读锁）
	c.mu.RLock()
	if c.session != "" && time.Now().Before(c.sessionExp) {
		session := c.session
		c.mu.RUnlock()
		return session, nil
	}
	c.mu.RUnlock()

	// 缓存失效，重新登录（写锁）
	c.mu.Lock()
	defer c.mu.Unlock()

	// 双重检查：其他goroutine可能已经刷新了会话
	if c.session != "" && time.Now().Before(c.sessionExp) {
		return c.session, nil
	}

	return c.login(ctx)
}

// login 执行登录，调用方必须持有写锁
func (c *Client) login(ctx context.Context) (string, error) {
	reqBody := map[string]string{
		"CompanyDB": c.companyDB,
		"UserName":  c.username,
		"Password":  c.password,
	}
	bodyBytes, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/Login", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("创建登录请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: 登录请求失败: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: 读取登录响应失败: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var slErr slErrorBody
		if json.Unmarshal(respBody, &slErr) == nil && slErr.Error.Message.Value != "" {
			return "", fmt.Errorf("%w: 登录被拒绝: %s", ErrUnavailable, slErr.Error.Message.Value)
		}
		return "", fmt.Errorf("%w: 登录失败 HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var result struct {
		SessionID      string `json:"SessionId"`
		SessionTimeout int    `json:"SessionTimeout"` // 会话有效期（分钟）
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: 解析登录响应失败: %v", ErrUnavailable, err)
	}

	timeout := result.SessionTimeout
	if timeout <= 0 {
		timeout = 30
	}
	// 缓存会话，提前60秒过期以保证安全
	c.session = result.SessionID
	c.sessionExp = time.Now().Add(time.Duration(timeout)*time.Minute - 60*time.Second)

	return c.session, nil
}

// invalidateSession 清除会话缓存（收到401后调用）
func (c *Client) invalidateSession() {
	c.mu.Lock()
	c.session = ""
	c.mu.Unlock()
}

// doRequest 执行Service Layer请求
// 自动附加会话Cookie；收到401时重新登录并重试一次
// method: HTTP方法（GET/POST/PATCH/DELETE）
// path: API路径（如 /PurchaseOrders?$filter=...）
// body: 请求体（会被JSON序列化，nil则不发送body）
// result: 响应结构体指针（会被JSON反序列化）
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	retried := false
	for {
		status, respBody, err := c.doOnce(ctx, method, path, body)
		if err != nil {
			return err
		}

		// 会话过期：重新登录并重试一次
		if status == http.StatusUnauthorized && !retried {
			c.invalidateSession()
			retried = true
			continue
		}

		if status >= 400 {
			var slErr slErrorBody
			if json.Unmarshal(respBody, &slErr) == nil && slErr.Error.Message.Value != "" {
				if status == http.StatusNotFound {
					return ErrNotFound
				}
				return &APIError{Code: slErr.Error.Code, Message: slErr.Error.Message.Value}
			}
			if status == http.StatusNotFound {
				return ErrNotFound
			}
			return &APIError{Code: status, Message: fmt.Sprintf("HTTP %d (path=%s)", status, path)}
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("解析响应体失败: %w", err)
			}
		}
		return nil
	}
}

// doOnce 发起一次HTTP调用，返回状态码和响应体
func (c *Client) doOnce(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	session, err := c.getSession(ctx)
	if err != nil {
		return 0, nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("序列化请求体失败: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "B1SESSION", Value: session})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: 读取响应体失败: %v", ErrUnavailable, err)
	}

	return resp.StatusCode, respBody, nil
}

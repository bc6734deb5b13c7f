package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// clovaOK is the status code CLOVA Studio puts in the response envelope on success.
const clovaOK = "20000"

// ClovaClient posts JSON to CLOVA Studio API tools (embedding, reranker).
type ClovaClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   RetryConfig
}

// NewClovaClient creates a client; timeout applies per call.
func NewClovaClient(baseURL, apiKey string, timeout time.Duration) *ClovaClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ClovaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// HasKey reports whether the credential is configured.
func (c *ClovaClient) HasKey() bool { return c != nil && c.apiKey != "" }

type clovaStatus struct {
	Status *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

// WithRetry enables retries. Without it each request is sent exactly once and
// a failure surfaces to the caller immediately.
func (c *ClovaClient) WithRetry(rc RetryConfig) *ClovaClient {
	c.retry = rc
	return c
}

// Post sends body to path and returns the raw response body.
// Fails with ErrConfig before any network I/O when the key is missing,
// and with *UpstreamError on transport errors, non-2xx status or a non-success envelope.
// With a retry policy set, throttling, 5xx and transient network failures are retried.
func (c *ClovaClient) Post(ctx context.Context, service, path string, body any) ([]byte, error) {
	if !c.HasKey() {
		return nil, ConfigError("NCP_API_KEY")
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal: %w", service, err)
	}
	return RetryDo(ctx, c.retry, func() ([]byte, error) {
		return c.post(ctx, service, path, data)
	})
}

func (c *ClovaClient) post(ctx context.Context, service, path string, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-NCP-CLOVASTUDIO-REQUEST-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Service: service, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Service: service, Status: resp.StatusCode, Body: string(raw)}
	}

	var st clovaStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, &UpstreamError{Service: service, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	if st.Status != nil && st.Status.Code != "" && st.Status.Code != clovaOK {
		return nil, &UpstreamError{
			Service: service,
			Status:  resp.StatusCode,
			Body:    st.Status.Code + " " + st.Status.Message,
		}
	}
	return raw, nil
}

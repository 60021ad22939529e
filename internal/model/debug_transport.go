package model

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/tahsinmert/AgendaGenius/pkg/logger"

	"github.com/sirupsen/logrus"
)

// DebugTransport 自定义HTTP传输层，用于调试请求体
type DebugTransport struct {
	base         http.RoundTripper
	debugEnabled bool
	log          *logrus.Entry
}

// NewDebugTransport 创建新的调试传输层
func NewDebugTransport(provider string, base http.RoundTripper, debugEnabled bool) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &DebugTransport{
		base:         base,
		debugEnabled: debugEnabled,
		log:          logger.WithFields(logrus.Fields{"provider": provider}),
	}
}

// RoundTrip 实现http.RoundTripper接口
func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.debugEnabled && req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil && t.debugEnabled {
		t.log.Errorf("🚨 request failed: %v", err)
	}

	return resp, err
}

// logRequest 记录请求详情
func (t *DebugTransport) logRequest(req *http.Request) {
	t.log.Infof("🔍 %s %s", req.Method, req.URL.String())

	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			t.log.Debugf("🔍   %s: [REDACTED]", name)
		} else {
			t.log.Debugf("🔍   %s: %s", name, strings.Join(values, ", "))
		}
	}

	if req.Body == nil {
		return
	}
	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		t.log.Errorf("🚨 failed to read request body: %v", err)
		return
	}
	// 恢复请求体，以免影响实际请求
	req.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	t.log.Infof("🔍 request body size: %d bytes", len(bodyBytes))
	t.log.Debugf("🔍 %s", truncate(sanitizeJSON(string(bodyBytes)), 2000))
}

var sensitiveField = regexp.MustCompile(`"(api_key|apiKey|password|secret|token|data)"\s*:\s*"[^"]*"`)

// sanitizeJSON 清理JSON中的敏感字段值，文档载荷也不打印
func sanitizeJSON(body string) string {
	return sensitiveField.ReplaceAllString(body, `"$1": "[REDACTED]"`)
}

func isSensitiveHeader(name string) bool {
	switch strings.ToLower(name) {
	case "authorization", "x-api-key", "x-goog-api-key", "x-auth-token", "cookie":
		return true
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

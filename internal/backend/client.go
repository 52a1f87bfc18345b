// Package backend は2つのバックエンドサービス（identity と tasks）のHTTPクライアントを提供する。
// 書き込み系は全てクエリ文字列で送信し、ログインのみフォーム形式で送信する。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kainbear/interface-service/internal/metrics"
	"github.com/kainbear/interface-service/internal/model"
)

const (
	// ServiceIdentity は従業員・組織サービスの識別名。
	ServiceIdentity = "identity"
	// ServiceTasks はタスク・プロジェクトサービスの識別名。
	ServiceTasks = "tasks"

	// maxResponseSize はバックエンド応答として読み込む最大バイト数。
	maxResponseSize = 10 << 20
)

// NewHTTPClient は両バックエンドで共有する接続プール付きHTTPクライアントを生成する。
// トランスポートはOpenTelemetryで計装される。
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(transport),
	}
}

// caller はバックエンド1つ分の呼び出し処理を持つ。
type caller struct {
	service    string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
}

func newCaller(service, baseURL string, httpClient *http.Client, logger *slog.Logger, mc metrics.MetricsCollector) caller {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return caller{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		metrics:    mc,
	}
}

// call は1回分のバックエンド呼び出しを表す。
type call struct {
	op     string     // エラーメッセージ用の操作名（例: "create task"）
	method string     // HTTPメソッド
	path   string     // ベースURLからの相対パス
	query  url.Values // クエリ文字列
	form   url.Values // フォームボディ（ログインのみ）
}

// do はバックエンドを呼び出し、2xxの応答ボディをoutにデコードする。
// 非2xxの場合はステータスと detail を保持した *model.UpstreamError を返す。
// 通信エラーの場合は Status=0 の *model.UpstreamError を返す。
// 2xxでもボディがJSONとして解釈できない場合は CONTRACT_VIOLATION を返す。
func (c *caller) do(ctx context.Context, cl call, out interface{}) error {
	body, err := c.roundTrip(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("バックエンド応答のパースに失敗しました",
			slog.String("service", c.service),
			slog.String("op", cl.op),
			slog.String("error", err.Error()),
		)
		apiErr := model.NewContractViolationError(c.service, fmt.Sprintf("%s: %v", cl.op, err))
		apiErr.Err = err
		return apiErr
	}
	return nil
}

// roundTrip はリクエストを送信し、2xxの応答ボディを返す。
func (c *caller) roundTrip(ctx context.Context, cl call) ([]byte, error) {
	reqURL := c.baseURL + cl.path
	if len(cl.query) > 0 {
		reqURL += "?" + cl.query.Encode()
	}

	var reqBody io.Reader
	if cl.form != nil {
		reqBody = strings.NewReader(cl.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamCall(c.service, 0, time.Since(start))
		c.logger.Error("バックエンドの呼び出しに失敗しました",
			slog.String("service", c.service),
			slog.String("op", cl.op),
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.String("error", err.Error()),
		)
		return nil, &model.UpstreamError{Service: c.service, Op: cl.op, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstreamCall(c.service, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &model.UpstreamError{Service: c.service, Op: cl.op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := upstreamDetail(body)
		c.logger.Warn("バックエンドがエラーステータスを返しました",
			slog.String("service", c.service),
			slog.String("op", cl.op),
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("detail", detail),
		)
		return nil, &model.UpstreamError{
			Service: c.service,
			Op:      cl.op,
			Status:  resp.StatusCode,
			Detail:  detail,
		}
	}

	return body, nil
}

// raw は応答ボディをそのまま返す。更新・削除系の透過ルートで使う。
func (c *caller) raw(ctx context.Context, cl call) (json.RawMessage, error) {
	body, err := c.roundTrip(ctx, cl)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(body) {
		return nil, model.NewContractViolationError(c.service, cl.op+": response is not JSON")
	}
	return json.RawMessage(body), nil
}

// upstreamDetail はエラー応答から detail を取り出す。
// {"detail": "..."} 形式なら文字列を、detail が配列等なら JSON のまま、それ以外は本文を返す。
func upstreamDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		return string(payload.Detail)
	}
	return strings.TrimSpace(string(body))
}

// IsUpstreamStatus はerrがバックエンドの指定ステータスによるものかを返す。
func IsUpstreamStatus(err error, status int) bool {
	var upErr *model.UpstreamError
	return errors.As(err, &upErr) && upErr.Status == status
}

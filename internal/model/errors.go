package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, upstream, system
	Action   string // ユーザー向け対処方法
	Err      error  // 原因（ログ・テスト用。レスポンスには含めない）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatus はエラーコードに対応するHTTPステータスコードを返す。
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeContractViolation, ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Extensions はGraphQLエラーのextensionsに載せる情報を返す。
func (e *APIError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":     e.Code,
		"status":   e.HTTPStatus(),
		"category": e.Category,
	}
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated     = "UNAUTHENTICATED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeUpstreamError       = "UPSTREAM_ERROR"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeContractViolation   = "CONTRACT_VIOLATION"
)

// NewUnauthenticatedError は認証失敗エラーを生成する。
// 失敗理由はcauseに保持し、クライアントには返さない。
func NewUnauthenticatedError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Could not validate credentials",
		Category: "auth",
		Action:   "トークンを再取得してください。",
		Err:      cause,
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  detail,
		Category: "validation",
		Action:   "入力値を確認してください。",
	}
}

// NewInvalidRequestError はリクエスト形式の不備を表すエラーを生成する。
func NewInvalidRequestError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  detail,
		Category: "validation",
		Action:   "リクエストの形式を確認してください。",
	}
}

// NewContractViolationError はバックエンドの応答が契約に合わない場合のエラーを生成する。
func NewContractViolationError(service, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeContractViolation,
		Message:  fmt.Sprintf("%s サービスの応答が不正です: %s", service, reason),
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。解消しない場合は管理者に連絡してください。",
	}
}

// UpstreamError はバックエンドサービスが非2xxを返した、または到達できなかったことを表す。
// バックエンドのステータスと本文をそのまま保持する。
type UpstreamError struct {
	Service string // identity または tasks
	Op      string // 呼び出した操作（例: "create task"）
	Status  int    // バックエンドのHTTPステータス。到達不能時は0
	Detail  string // バックエンドの detail もしくは本文
	Err     error  // 通信エラー
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("Could not %s: %s service unavailable: %v", e.Op, e.Service, e.Err)
	}
	return fmt.Sprintf("Could not %s: %s", e.Op, e.Detail)
}

// Unwrap は通信エラーを返す。
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Code はバックエンドのステータスをエラーコードに分類する。
func (e *UpstreamError) Code() string {
	switch {
	case e.Status == 0:
		return ErrCodeUpstreamUnavailable
	case e.Status == http.StatusUnauthorized:
		return ErrCodeUnauthenticated
	case e.Status == http.StatusNotFound:
		return ErrCodeNotFound
	case e.Status == http.StatusUnprocessableEntity:
		return ErrCodeValidationFailed
	default:
		return ErrCodeUpstreamError
	}
}

// HTTPStatus はクライアントに返すステータスを返す。
// バックエンドのステータスを維持し、到達不能の場合のみ502とする。
func (e *UpstreamError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusBadGateway
	}
	return e.Status
}

// Extensions はGraphQLエラーのextensionsに載せる情報を返す。
func (e *UpstreamError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":     e.Code(),
		"status":   e.HTTPStatus(),
		"category": "upstream",
		"service":  e.Service,
		"detail":   e.Detail,
	}
}

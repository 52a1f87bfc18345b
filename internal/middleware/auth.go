// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kainbear/interface-service/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// employeeContextKey はリクエストコンテキストに認証済み従業員を格納するためのキー。
var employeeContextKey = contextKey("employee")

var requestInfoContextKey = contextKey("request_info")

// requestInfo はアクセスログ用に内側のミドルウェアが書き込む情報。
type requestInfo struct {
	login string
}

func contextWithRequestInfo(ctx context.Context, info *requestInfo) context.Context {
	return context.WithValue(ctx, requestInfoContextKey, info)
}

// Authenticator はBearerトークンを検証し、対応する従業員を返す。
// auth.Validator が実装する。
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*model.Employee, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 認証済み従業員をリクエストコンテキストに注入する。
// 未認証リクエストには401とWWW-Authenticate: Bearerを返す。
func NewAuthMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			employee, err := authenticator.Authenticate(r.Context(), BearerToken(r))
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				WriteError(w, err)
				return
			}

			if info, ok := r.Context().Value(requestInfoContextKey).(*requestInfo); ok {
				info.login = employee.Login
			}
			next.ServeHTTP(w, r.WithContext(ContextWithEmployee(r.Context(), employee)))
		})
	}
}

// BearerToken はAuthorizationヘッダーからトークンを取り出す。
// Bearerスキーム以外、またはヘッダーがない場合は空文字列を返す。
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// EmployeeFromContext はリクエストコンテキストから認証済み従業員を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func EmployeeFromContext(ctx context.Context) (*model.Employee, bool) {
	employee, ok := ctx.Value(employeeContextKey).(*model.Employee)
	return employee, ok && employee != nil
}

// ContextWithEmployee はコンテキストに認証済み従業員を注入する。
func ContextWithEmployee(ctx context.Context, employee *model.Employee) context.Context {
	return context.WithValue(ctx, employeeContextKey, employee)
}

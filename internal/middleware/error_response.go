package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kainbear/interface-service/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法に加え、クライアントに返すステータスとバックエンドの詳細を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeBody(w, ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Status:   statusCode,
	})
}

// WriteError はエラーの種類に応じたステータスと本文を書き込む。
// *model.UpstreamError はバックエンドのステータスと詳細を維持する。
// 分類できないエラーは内部エラーとして扱う。
func WriteError(w http.ResponseWriter, err error) {
	var upstreamErr *model.UpstreamError
	if errors.As(err, &upstreamErr) {
		writeBody(w, ErrorResponseBody{
			Code:     upstreamErr.Code(),
			Message:  upstreamErr.Error(),
			Category: "upstream",
			Action:   upstreamAction(upstreamErr),
			Status:   upstreamErr.HTTPStatus(),
			Detail:   upstreamErr.Detail,
		})
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteErrorResponse(w, apiErr.HTTPStatus(), apiErr)
		return
	}

	WriteInternalServerError(w)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

func writeBody(w http.ResponseWriter, body ErrorResponseBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Status)
	json.NewEncoder(w).Encode(body)
}

func upstreamAction(err *model.UpstreamError) string {
	switch err.Code() {
	case model.ErrCodeUnauthenticated:
		return "トークンを再取得してください。"
	case model.ErrCodeNotFound:
		return "指定したIDを確認してください。"
	case model.ErrCodeValidationFailed:
		return "入力値を確認してください。"
	default:
		return "しばらく待ってから再度お試しください。"
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kainbear/interface-service/internal/middleware"
	"github.com/kainbear/interface-service/internal/model"
)

// maxBodyBytes は受け付けるJSONリクエストボディの上限。
const maxBodyBytes = 1 << 20

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRaw はバックエンドの応答本文をそのまま200で返す。
func writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// handleServiceError はサービス層から返されたエラーをレスポンスに変換する。
// 分類できないエラーは詳細をログのみに記録する。
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var apiErr *model.APIError
	var upstreamErr *model.UpstreamError
	if !errors.As(err, &apiErr) && !errors.As(err, &upstreamErr) {
		logger.Error("internal server error",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	middleware.WriteError(w, err)
}

// decodeJSON はJSONボディをvに読み込む。形式不備はINVALID_REQUESTとなる。
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return model.NewInvalidRequestError("Content-Type must be application/json")
		}
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return model.NewInvalidRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

// pathInt はURLパスパラメータを整数として取得する。
func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, model.NewInvalidRequestError(name + " must be an integer")
	}
	return v, nil
}

// queryInt は必須のクエリパラメータを整数として取得する。
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, model.NewInvalidRequestError(name + " is required")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewInvalidRequestError(name + " must be an integer")
	}
	return v, nil
}

// queryIntPtr は任意のクエリパラメータを整数として取得する。未指定ならnil。
func queryIntPtr(r *http.Request, name string) (*int, error) {
	if r.URL.Query().Get(name) == "" {
		return nil, nil
	}
	v, err := queryInt(r, name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// responder はハンドラー共通の応答処理を提供する。
type responder struct {
	logger *slog.Logger
}

func (h responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	handleServiceError(w, r, h.logger, err)
}

// respond は操作結果を200で返す。失敗時は統一エラーフォーマットで返す。
func (h responder) respond(w http.ResponseWriter, r *http.Request, v interface{}, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// respondRaw はバックエンドの応答本文をそのまま返す。
func (h responder) respondRaw(w http.ResponseWriter, r *http.Request, raw json.RawMessage, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeRaw(w, raw)
}

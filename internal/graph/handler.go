package graph

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/graphql-go/graphql"
)

// maxRequestBody はGraphQLリクエストボディの上限。
const maxRequestBody = 1 << 20

// Request はGraphQL over HTTPのリクエスト。
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Handler は /graphql エンドポイントのHTTPハンドラー。
// POST（application/json）と GET（query パラメータ）を受け付ける。
// mutation は POST のみ実行できる。
type Handler struct {
	schema graphql.Schema
	logger *slog.Logger
}

// NewHandler はHandlerを生成する。
func NewHandler(schema graphql.Schema, logger *slog.Logger) *Handler {
	return &Handler{schema: schema, logger: logger}
}

// ServeHTTP はGraphQLリクエストを実行し、結果をJSONで返す。
// 実行時エラーは200で errors 配列に含め、リクエスト形式の誤りのみ400とする。
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet && isMutation(req) {
		writeRequestError(w, http.StatusMethodNotAllowed, "mutations must be sent with POST")
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	if result.HasErrors() {
		for _, e := range result.Errors {
			h.logger.Warn("GraphQL実行エラー",
				slog.String("operation", req.OperationName),
				slog.String("error", e.Message),
				slog.Any("extensions", e.Extensions),
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("GraphQL応答の書き込みに失敗しました", slog.String("error", err.Error()))
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*Request, bool) {
	var req Request

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				writeRequestError(w, http.StatusBadRequest, "variables must be a JSON object")
				return nil, false
			}
		}
	case http.MethodPost:
		if ct := r.Header.Get("Content-Type"); ct != "" {
			if mt, _, _ := mime.ParseMediaType(ct); mt != "application/json" {
				writeRequestError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return nil, false
			}
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
			writeRequestError(w, http.StatusBadRequest, "request body must be a JSON object with a query field")
			return nil, false
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		writeRequestError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}

	if req.Query == "" {
		writeRequestError(w, http.StatusBadRequest, "query is required")
		return nil, false
	}
	return &req, true
}

// writeRequestError はGraphQL形式のエラー応答を書き込む。
func writeRequestError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"errors": []map[string]interface{}{{
			"message":    message,
			"extensions": map[string]interface{}{"code": "INVALID_REQUEST", "status": status},
		}},
	})
}

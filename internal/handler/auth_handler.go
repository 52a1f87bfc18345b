package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kainbear/interface-service/internal/middleware"
	"github.com/kainbear/interface-service/internal/model"
)

// AccountService は登録とログインを行うサービスインターフェース。
type AccountService interface {
	Register(ctx context.Context, in model.EmployeeInput) (*model.Token, error)
	Login(ctx context.Context, username, password string) (*model.Token, error)
}

// NotificationTrigger は期限通知をバックグラウンドで起動する。
type NotificationTrigger interface {
	Trigger()
}

// AuthHandler は /authentication 配下のHTTPハンドラー。
type AuthHandler struct {
	accounts AccountService
	notifier NotificationTrigger
	logger   *slog.Logger
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(accounts AccountService, notifier NotificationTrigger, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, notifier: notifier, logger: logger}
}

// currentUserResponse は GET /authentication/users/me のレスポンス。
type currentUserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// messageResponse は処理の受付を通知するレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// Register は従業員を登録し、トークンを返す。
// POST /authentication/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in model.EmployeeInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	tok, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// Token はフォーム形式の資格情報でログインし、トークンを返す。
// POST /authentication/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		handleServiceError(w, r, h.logger, model.NewInvalidRequestError("invalid form body"))
		return
	}

	tok, err := h.accounts.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// Me は認証済み従業員の概要を返す。
// GET /authentication/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	employee, ok := middleware.EmployeeFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		middleware.WriteError(w, model.NewUnauthenticatedError(nil))
		return
	}
	writeJSON(w, http.StatusOK, currentUserResponse{
		ID:       employee.ID,
		Username: employee.Login,
		Email:    employee.Email,
	})
}

// NotifyDueTasks は期限通知を起動し、完了を待たずに応答する。
// POST /authentication/notify_due_tasks
func (h *AuthHandler) NotifyDueTasks(w http.ResponseWriter, r *http.Request) {
	h.notifier.Trigger()
	writeJSON(w, http.StatusOK, messageResponse{Message: "Notification task has been scheduled"})
}

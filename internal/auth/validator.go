package auth

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/kainbear/interface-service/internal/model"
)

// IdentityLookup はログイン名から従業員を取得する。
type IdentityLookup interface {
	Me(ctx context.Context, login string) (*model.Employee, error)
}

// Validator は保護されたオペレーションで共有される認証ゲート。
// 結果はキャッシュせず、リクエストごとにidentityサービスへ問い合わせる。
type Validator struct {
	cfg      TokenConfig
	identity IdentityLookup
	logger   *slog.Logger
}

// NewValidator はValidatorを生成する。
func NewValidator(cfg TokenConfig, identity IdentityLookup, logger *slog.Logger) *Validator {
	return &Validator{cfg: cfg, identity: identity, logger: logger}
}

// Authenticate はトークンを検証し、対応する従業員を返す。
// ローカル検証に失敗した場合はidentityサービスを呼び出さない。
// 失敗時は常にUNAUTHENTICATEDのAPIErrorを返し、理由は原因エラーとして保持する。
func (v *Validator) Authenticate(ctx context.Context, credential string) (*model.Employee, error) {
	login, err := ParseToken(credential, v.cfg)
	if err != nil {
		v.logger.Debug("トークンの検証に失敗しました", slog.String("error", err.Error()))
		return nil, model.NewUnauthenticatedError(err)
	}

	employee, err := v.identity.Me(ctx, login)
	if err != nil {
		v.logger.Warn("トークンに対応する従業員を取得できませんでした",
			slog.String("login", login),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUnauthenticatedError(errors.Wrap(ErrUnknownUser, err.Error()))
	}
	return employee, nil
}

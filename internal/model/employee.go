// Package model はゲートウェイが扱うドメインモデルを定義する。
// エンティティの実体はバックエンドサービスが保持し、ここでは転送用の形のみを持つ。
package model

// YesNo はバックエンドが "yes" / "no" の文字列で表現するフラグ。
type YesNo string

const (
	// Yes はフラグが立っている状態。
	Yes YesNo = "yes"
	// No はフラグが立っていない状態。
	No YesNo = "no"
)

// Employee は社員（認証主体）を表す。
// identityサービスが生成し、認証ゲートと通知パイプラインが参照する。
// テキスト項目はバックエンドで小文字に正規化される。
type Employee struct {
	ID           int    `json:"id"`
	LastName     string `json:"last_name"`
	FirstName    string `json:"first_name"`
	Patronymic   string `json:"patronymic"`
	Email        string `json:"email"`
	Login        string `json:"login"`
	IsSupervisor YesNo  `json:"is_supervisor"`
	IsVacation   YesNo  `json:"is_vacation"`
}

// Token はidentityサービスが発行するBearerクレデンシャル。
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenTypeBearer はクライアントに返すトークン種別。
const TokenTypeBearer = "bearer"

// Package auth はアクセストークンの検証・発行と、トークンに対応する従業員の解決を提供する。
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/kainbear/interface-service/internal/model"
)

// TokenConfig はトークンの署名設定。identityサービスと同じ秘密鍵・アルゴリズムを使う。
type TokenConfig struct {
	Secret    string
	Algorithm string        // HS256 / HS384 / HS512
	TTL       time.Duration // 発行するトークンの有効期間
}

// Claims はトークンのクレーム。Subject に従業員のログイン名が入る。
type Claims struct {
	jwt.RegisteredClaims
}

func (c TokenConfig) signingMethod() (jwt.SigningMethod, error) {
	alg := strings.ToUpper(c.Algorithm)
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, errors.Wrap(ErrInvalidSigningMethod, alg)
	}
	return method, nil
}

// ParseToken はトークンを検証し、subject（ログイン名）を返す。
// 署名不正・アルゴリズム不一致・期限切れ・期限なし・subjectなしはいずれもエラーとなる。
func ParseToken(tokenString string, cfg TokenConfig) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}
	method, err := cfg.signingMethod()
	if err != nil {
		return "", err
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			alg, _ := token.Header["alg"].(string)
			return nil, errors.Wrap(ErrInvalidSigningMethod, alg)
		}
		return []byte(cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.Wrap(ErrExpiredToken, err.Error())
		}
		if errors.Is(err, ErrInvalidSigningMethod) {
			return "", err
		}
		return "", errors.Wrap(ErrInvalidToken, err.Error())
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

// Issuer はidentityサービスと互換のアクセストークンを発行する。
// 運用時の動作確認（token サブコマンド）とテストで使う。
type Issuer struct {
	cfg    TokenConfig
	method jwt.SigningMethod
	now    func() time.Time
}

// NewIssuer はIssuerを生成する。HMAC以外のアルゴリズムはエラーとする。
func NewIssuer(cfg TokenConfig) (*Issuer, error) {
	method, err := cfg.signingMethod()
	if err != nil {
		return nil, err
	}
	return &Issuer{cfg: cfg, method: method, now: time.Now}, nil
}

// Issue はログイン名をsubjectとするトークンを発行する。
func (i *Issuer) Issue(login string) (*model.Token, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return nil, errors.Wrap(err, "sign token")
	}
	return &model.Token{AccessToken: signed, TokenType: model.TokenTypeBearer}, nil
}

// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MailSanitizer は送信するHTMLメール本文をサニタイズする。
// 本文にはバックエンドから取得したタスク名などの外部入力が埋め込まれるため、
// bluemondayの許可リストポリシーで安全なタグと属性のみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// HTMLSanitizer はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
type HTMLSanitizer interface {
	// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
	// 空文字列の入力には空文字列を返す。同一入力に対して常に同一出力を返す。
	Sanitize(rawHTML string) string
}

// MailSanitizer はメール本文向けのHTMLSanitizer実装。
// ポリシーは生成後に変更しないため、複数goroutineから同時に使用できる。
type MailSanitizer struct {
	policy *bluemonday.Policy
}

// NewMailSanitizer はメール本文用のポリシーを構築する。
// ポリシーの内容:
//   - 許可タグ: p, br, ul, ol, li, blockquote, pre, code, strong, em, b, i, h1-h3, table系
//   - 禁止: script, iframe, style, img および全てのon*イベント属性
//   - aタグ: https と mailto のみ許可し、rel="noopener noreferrer" を付与
func NewMailSanitizer() *MailSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "b", "i",
		"h1", "h2", "h3",
		"table", "thead", "tbody", "tr", "th", "td",
	)

	// 画像はトラッキングに使われるため許可しない
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("https", "mailto")
	p.AllowRelativeURLs(false)
	p.RequireNoReferrerOnLinks(true)

	return &MailSanitizer{policy: p}
}

// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
func (s *MailSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

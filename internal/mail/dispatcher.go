// Package mail はSMTP経由のメール送信を提供する。
// 送信は同期的に行い、失敗はログに記録して false を返す。再送やキューは持たない。
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/kainbear/interface-service/internal/config"
	"github.com/kainbear/interface-service/internal/metrics"
	"github.com/kainbear/interface-service/internal/security"
)

// ContentType はメール本文の種別。
type ContentType string

const (
	// ContentPlain はプレーンテキスト本文。
	ContentPlain ContentType = "plain"
	// ContentHTML はHTML本文。送信前にサニタイズされる。
	ContentHTML ContentType = "html"
)

// Message は送信するメール1通を表す。
type Message struct {
	Subject    string
	Recipients []string
	Body       string
	Type       ContentType
}

// Transport はSMTPへの接続と送信を行う。*gomail.Client が実装する。
type Transport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Dispatcher はメール送信を行う。
type Dispatcher struct {
	transport Transport
	from      string
	sanitizer security.HTMLSanitizer
	logger    *slog.Logger
	metrics   metrics.MetricsCollector
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
// sanitizerがnilの場合はメール本文用の既定ポリシーを使う。
func NewDispatcher(transport Transport, from string, sanitizer security.HTMLSanitizer, logger *slog.Logger, mc metrics.MetricsCollector) *Dispatcher {
	if sanitizer == nil {
		sanitizer = security.NewMailSanitizer()
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Dispatcher{
		transport: transport,
		from:      from,
		sanitizer: sanitizer,
		logger:    logger,
		metrics:   mc,
	}
}

// NewClient はメール設定からSMTPクライアントを構築する。
func NewClient(cfg config.MailConfig) (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	switch {
	case cfg.SSLTLS:
		opts = append(opts, gomail.WithSSL())
	case cfg.StartTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if !cfg.ValidateCerts {
		opts = append(opts, gomail.WithTLSConfig(&tls.Config{
			ServerName:         cfg.Server,
			InsecureSkipVerify: true, //nolint:gosec // MAIL_VALIDATE_CERTS=false の場合のみ
		}))
	}

	client, err := gomail.NewClient(cfg.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

// Send はプレーンテキストのメールを送信する。成功した場合のみ true を返す。
func (d *Dispatcher) Send(ctx context.Context, subject string, recipients []string, body string) bool {
	return d.SendMessage(ctx, Message{
		Subject:    subject,
		Recipients: recipients,
		Body:       body,
		Type:       ContentPlain,
	})
}

// SendMessage はメールを送信する。成功した場合のみ true を返す。
func (d *Dispatcher) SendMessage(ctx context.Context, m Message) bool {
	msg, err := d.build(m)
	if err != nil {
		d.logger.Error("メールの組み立てに失敗しました",
			slog.String("subject", m.Subject),
			slog.String("error", err.Error()),
		)
		d.metrics.RecordEmailSent(false)
		return false
	}

	if err := d.transport.DialAndSendWithContext(ctx, msg); err != nil {
		d.logger.Error("メールの送信に失敗しました",
			slog.String("subject", m.Subject),
			slog.Any("recipients", m.Recipients),
			slog.String("error", err.Error()),
		)
		d.metrics.RecordEmailSent(false)
		return false
	}

	d.logger.Info("メールを送信しました",
		slog.String("subject", m.Subject),
		slog.Int("recipients", len(m.Recipients)),
	)
	d.metrics.RecordEmailSent(true)
	return true
}

func (d *Dispatcher) build(m Message) (*gomail.Msg, error) {
	if len(m.Recipients) == 0 {
		return nil, errors.New("no recipients")
	}

	msg := gomail.NewMsg()
	if err := msg.From(d.from); err != nil {
		return nil, fmt.Errorf("set sender %q: %w", d.from, err)
	}
	if err := msg.To(m.Recipients...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(m.Subject)

	if m.Type == ContentHTML {
		msg.SetBodyString(gomail.TypeTextHTML, d.sanitizer.Sanitize(m.Body))
	} else {
		msg.SetBodyString(gomail.TypeTextPlain, m.Body)
	}
	return msg, nil
}

// ErrNotConfigured はSMTPサーバーが設定されていない場合の送信エラー。
var ErrNotConfigured = errors.New("mail server is not configured")

// DisabledTransport はSMTP未設定時のTransport。すべての送信を ErrNotConfigured で失敗させる。
type DisabledTransport struct{}

// DialAndSendWithContext は常に ErrNotConfigured を返す。
func (DisabledTransport) DialAndSendWithContext(context.Context, ...*gomail.Msg) error {
	return ErrNotConfigured
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timestampLayouts はバックエンドが返しうる日時表現。
// タイムゾーンなしの値はUTCとして解釈する。
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// DateLayout は日付のみを表すワイヤ形式。
const DateLayout = "2006-01-02"

// Timestamp は日時を表す。ゼロ値は「未設定」を意味する。
type Timestamp struct {
	time.Time
}

// NewTimestamp はtime.TimeからTimestampを生成する。
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp はバックエンド形式の日時文字列を解析する。
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("日時の形式が不正です: %q", s)
}

// Wire はバックエンド送信用の正規形（RFC 3339、小数秒は保持）を返す。
func (t Timestamp) Wire() string {
	return t.Format(time.RFC3339Nano)
}

// MarshalJSON は未設定ならnull、それ以外はRFC 3339文字列を出力する。
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Wire())
}

// UnmarshalJSON はnullと空文字列を未設定として扱う。
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s, ok, err := unquoteNullable(data)
	if err != nil || !ok {
		*t = Timestamp{}
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Date は日付のみを表す。ゼロ値は「未設定」を意味する。
type Date struct {
	time.Time
}

// ParseDate は日付文字列を解析する。日時形式が渡された場合は日付部分のみを使う。
func ParseDate(s string) (Date, error) {
	ts, err := ParseTimestamp(s)
	if err != nil {
		return Date{}, fmt.Errorf("日付の形式が不正です: %q", s)
	}
	y, m, d := ts.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}, nil
}

// Wire はバックエンド送信用の正規形（YYYY-MM-DD）を返す。
func (d Date) Wire() string {
	return d.Format(DateLayout)
}

// MarshalJSON は未設定ならnull、それ以外はYYYY-MM-DDを出力する。
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Wire())
}

// UnmarshalJSON はnullと空文字列を未設定として扱う。
func (d *Date) UnmarshalJSON(data []byte) error {
	s, ok, err := unquoteNullable(data)
	if err != nil || !ok {
		*d = Date{}
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// unquoteNullable はJSON文字列を取り出す。nullまたは空文字列の場合はok=falseを返す。
func unquoteNullable(data []byte) (string, bool, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false, err
	}
	if strings.TrimSpace(s) == "" {
		return "", false, nil
	}
	return s, true, nil
}

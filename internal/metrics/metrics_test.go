package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric はレジストリから指定名・指定ラベルのメトリクスを探す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m
			}
		}
	}
	return nil
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordUpstreamCall_CountsByServiceAndStatus はサービス・ステータス別に集計されることを検証する。
func TestRecordUpstreamCall_CountsByServiceAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamCall("tasks", 200, 10*time.Millisecond)
	c.RecordUpstreamCall("tasks", 200, 20*time.Millisecond)
	c.RecordUpstreamCall("identity", 404, 5*time.Millisecond)

	m := findMetric(t, reg, "gateway_upstream_requests_total", map[string]string{"service": "tasks", "status_code": "200"})
	if m == nil {
		t.Fatal("tasks/200 のメトリクスが見つからない")
	}
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Errorf("tasks/200 = %v, want 2", got)
	}

	m = findMetric(t, reg, "gateway_upstream_requests_total", map[string]string{"service": "identity", "status_code": "404"})
	if m == nil || m.GetCounter().GetValue() != 1 {
		t.Error("identity/404 が1件記録されていない")
	}

	h := findMetric(t, reg, "gateway_upstream_latency_seconds", map[string]string{"service": "tasks"})
	if h == nil {
		t.Fatal("レイテンシのヒストグラムが見つからない")
	}
	if got := h.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
}

// TestRecordNotificationOutcome_CountsByOutcome は結果別に集計されることを検証する。
func TestRecordNotificationOutcome_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNotificationOutcome("sent")
	c.RecordNotificationOutcome("sent")
	c.RecordNotificationOutcome("resolve_failed")

	if m := findMetric(t, reg, "gateway_notification_items_total", map[string]string{"outcome": "sent"}); m == nil || m.GetCounter().GetValue() != 2 {
		t.Error("sent が2件記録されていない")
	}
	if m := findMetric(t, reg, "gateway_notification_items_total", map[string]string{"outcome": "resolve_failed"}); m == nil || m.GetCounter().GetValue() != 1 {
		t.Error("resolve_failed が1件記録されていない")
	}
}

// TestRecordNotificationPass_SplitsByResult は成功・失敗のパスが区別されることを検証する。
func TestRecordNotificationPass_SplitsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNotificationPass(time.Second, false)
	c.RecordNotificationPass(time.Second, true)

	if m := findMetric(t, reg, "gateway_notification_passes_total", map[string]string{"result": "success"}); m == nil || m.GetCounter().GetValue() != 1 {
		t.Error("成功パスが記録されていない")
	}
	if m := findMetric(t, reg, "gateway_notification_passes_total", map[string]string{"result": "failure"}); m == nil || m.GetCounter().GetValue() != 1 {
		t.Error("失敗パスが記録されていない")
	}
}

// TestRecordEmailSent_CountsFailures はメール送信失敗が記録されることを検証する。
func TestRecordEmailSent_CountsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEmailSent(false)

	if m := findMetric(t, reg, "gateway_emails_total", map[string]string{"result": "failure"}); m == nil || m.GetCounter().GetValue() != 1 {
		t.Error("送信失敗が記録されていない")
	}
}

// TestHandler_ServesPrometheusFormat はハンドラーがテキスト形式でメトリクスを返すことを検証する。
func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordEmailSent(true)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "gateway_emails_total") {
		t.Error("response should contain gateway_emails_total metric")
	}
}

// TestCollector_ImplementsMetricsCollectorInterface はインターフェース実装を検証する。
func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	var _ MetricsCollector = (*Collector)(nil)
	var _ MetricsCollector = Nop{}
}

// TestMultipleCollectors_IndependentRegistries は別レジストリへの登録が衝突しないことを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	c1 := NewCollector(prometheus.NewRegistry())
	c2 := NewCollector(prometheus.NewRegistry())

	c1.RecordEmailSent(true)
	c2.RecordEmailSent(true)
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/seorin-dev/moodlog/internal/ai"
	"github.com/seorin-dev/moodlog/internal/flow"
	"github.com/seorin-dev/moodlog/internal/session"
	"github.com/seorin-dev/moodlog/internal/store"
	"github.com/seorin-dev/moodlog/internal/testutil"
)

func setup(t *testing.T) (*httptest.Server, *http.Client, *testutil.TempLog) {
	t.Helper()
	tl := testutil.NewTempLog(t)
	t.Cleanup(tl.Cleanup)

	st := store.New(tl.Path)
	uploadDir := t.TempDir()
	f := flow.New(st, ai.Disabled{}, session.NewManager(), 3, uploadDir)

	srv := httptest.NewServer(New(Options{
		Flow:      f,
		Store:     st,
		UploadDir: uploadDir,
		DefaultN:  1,
		MaxN:      30,
	}))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return srv, &http.Client{Jar: jar}, tl
}

func postJSON(t *testing.T, c *http.Client, url string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := c.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding %s response: %v", url, err)
	}
	return resp.StatusCode, out
}

func getJSON(t *testing.T, c *http.Client, url string) (int, map[string]any) {
	t.Helper()
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding %s response: %v", url, err)
	}
	return resp.StatusCode, out
}

func TestFlowEndToEnd(t *testing.T) {
	srv, c, tl := setup(t)

	status, out := postJSON(t, c, srv.URL+"/flow/color", map[string]string{"color": "pink"})
	if status != http.StatusOK {
		t.Fatalf("color: status %d (%v)", status, out)
	}
	if out["step"] != "awaiting_text" {
		t.Fatalf("step = %v", out["step"])
	}

	if status, _ := postJSON(t, c, srv.URL+"/flow/text", map[string]string{"text": "tired"}); status != http.StatusOK {
		t.Fatalf("text: status %d", status)
	}
	if status, _ := postJSON(t, c, srv.URL+"/flow/mode", map[string]string{"mode": "write"}); status != http.StatusOK {
		t.Fatalf("mode: status %d", status)
	}
	if status, _ := postJSON(t, c, srv.URL+"/flow/expression", map[string]string{"text": "long day"}); status != http.StatusOK {
		t.Fatalf("expression: status %d", status)
	}
	if status, _ := postJSON(t, c, srv.URL+"/flow/ai-choice", map[string]string{"choice": "save"}); status != http.StatusOK {
		t.Fatalf("ai-choice: status %d", status)
	}
	if status, _ := postJSON(t, c, srv.URL+"/flow/color-confirm", map[string]float64{"intensity": 0.25}); status != http.StatusOK {
		t.Fatalf("color-confirm: status %d", status)
	}

	status, out = postJSON(t, c, srv.URL+"/flow/save", struct{}{})
	if status != http.StatusOK {
		t.Fatalf("save: status %d (%v)", status, out)
	}
	rec, ok := out["record"].(map[string]any)
	if !ok {
		t.Fatalf("no record in save response: %v", out)
	}
	if rec["initial_color"] != "pink" || rec["color_intensity"] != 0.25 {
		t.Errorf("record = %v", rec)
	}
	if out["closing_message"] == "" {
		t.Error("expected a closing message")
	}
	if tl.CountLines() != 1 {
		t.Errorf("log has %d lines, want 1", tl.CountLines())
	}

	// The saved entry is the history head.
	status, out = getJSON(t, c, srv.URL+"/history")
	if status != http.StatusOK {
		t.Fatalf("history: status %d", status)
	}
	recs := out["records"].([]any)
	if len(recs) != 1 {
		t.Fatalf("history records = %d, want 1", len(recs))
	}
}

func TestGuardViolationConflicts(t *testing.T) {
	srv, c, _ := setup(t)

	status, out := postJSON(t, c, srv.URL+"/flow/text", map[string]string{"text": "tired"})
	if status != http.StatusConflict {
		t.Fatalf("status = %d, want 409", status)
	}
	// The error body carries the session's real position.
	flowView, ok := out["flow"].(map[string]any)
	if !ok || flowView["step"] != "awaiting_color" {
		t.Errorf("error body = %v", out)
	}
}

func TestUnknownColorRejected(t *testing.T) {
	srv, c, _ := setup(t)
	status, _ := postJSON(t, c, srv.URL+"/flow/color", map[string]string{"color": "sparkle"})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestRateLimitGate(t *testing.T) {
	srv, c, tl := setup(t)
	for i := 0; i < 3; i++ {
		tl.WriteRecord(testutil.Record("blue", time.Now().Add(-time.Duration(i+1)*time.Hour)))
	}

	status, _ := postJSON(t, c, srv.URL+"/flow/color", map[string]string{"color": "pink"})
	if status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", status)
	}

	status, out := getJSON(t, c, srv.URL+"/ratelimit")
	if status != http.StatusOK {
		t.Fatalf("ratelimit: status %d", status)
	}
	if out["count"] != float64(3) || out["allowed"] != false {
		t.Errorf("ratelimit = %v", out)
	}

	// Deleting a record reopens the gate.
	recs, err := store.New(tl.Path).ReadLastN(1)
	if err != nil || len(recs) != 1 {
		t.Fatalf("ReadLastN: %v", err)
	}
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/records/"+recs[0].DateTime, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE status = %d", resp.StatusCode)
	}

	if status, _ := postJSON(t, c, srv.URL+"/flow/color", map[string]string{"color": "pink"}); status != http.StatusOK {
		t.Errorf("after delete, color status = %d", status)
	}
}

func TestDeleteMissingRecord(t *testing.T) {
	srv, c, _ := setup(t)
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/records/2025-01-01T00:00:00", nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHistoryWindowClamped(t *testing.T) {
	srv, c, tl := setup(t)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	for i := 0; i < 35; i++ {
		tl.WriteRecord(testutil.Record("blue", base.Add(time.Duration(i)*time.Minute)))
	}

	status, out := getJSON(t, c, srv.URL+"/history?n=999")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if out["n"] != float64(30) {
		t.Errorf("n = %v, want clamped 30", out["n"])
	}
	if got := len(out["records"].([]any)); got != 30 {
		t.Errorf("records = %d, want 30", got)
	}

	status, out = getJSON(t, c, srv.URL+"/history?n=0")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if out["n"] != float64(1) {
		t.Errorf("n = %v, want clamped 1", out["n"])
	}

	// A non-numeric n is not an error; it falls back to the default.
	status, out = getJSON(t, c, srv.URL+"/history?n=abc")
	if status != http.StatusOK {
		t.Fatalf("non-numeric n: status = %d, want 200", status)
	}
	if out["n"] != float64(1) {
		t.Errorf("non-numeric n = %v, want default 1", out["n"])
	}
}

func TestHistoryByDate(t *testing.T) {
	srv, c, tl := setup(t)
	tl.WriteRecord(testutil.Record("pink", time.Date(2025, 6, 14, 8, 0, 0, 0, time.Local)))
	tl.WriteRecord(testutil.Record("blue", time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)))
	tl.WriteRecord(testutil.Record("red", time.Date(2025, 6, 15, 21, 0, 0, 0, time.Local)))

	status, out := getJSON(t, c, srv.URL+"/history?date=2025-06-15")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	recs := out["records"].([]any)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	// Newest first.
	first := recs[0].(map[string]any)
	if first["initial_color"] != "red" {
		t.Errorf("first record = %v", first)
	}

	if status, _ := getJSON(t, c, srv.URL+"/history?date=June-15"); status != http.StatusBadRequest {
		t.Errorf("malformed date: status = %d, want 400", status)
	}
}

func TestCalendar(t *testing.T) {
	srv, c, tl := setup(t)
	tl.WriteRecord(testutil.Record("pink", time.Date(2025, 6, 2, 8, 0, 0, 0, time.Local)))
	tl.WriteRecord(testutil.Record("blue", time.Date(2025, 6, 2, 20, 0, 0, 0, time.Local)))
	tl.WriteRecord(testutil.Record("red", time.Date(2025, 7, 1, 9, 0, 0, 0, time.Local)))

	status, out := getJSON(t, c, srv.URL+"/calendar?year=2025&month=6")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	days := out["days"].(map[string]any)
	if len(days) != 1 {
		t.Fatalf("days = %v", days)
	}
	if got := len(days["2025-06-02"].([]any)); got != 2 {
		t.Errorf("2025-06-02 has %d records, want 2", got)
	}

	// A non-numeric month falls back to the current month.
	status, out = getJSON(t, c, srv.URL+"/calendar?month=x")
	if status != http.StatusOK {
		t.Fatalf("bad month: status = %d, want 200", status)
	}
	if out["month"] != float64(int(time.Now().Month())) {
		t.Errorf("month = %v, want current month", out["month"])
	}
}

func TestPalette(t *testing.T) {
	srv, c, _ := setup(t)
	status, out := getJSON(t, c, srv.URL+"/palette")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	colors := out["colors"].([]any)
	if len(colors) != 21 {
		t.Fatalf("palette size = %d, want 21", len(colors))
	}
	for _, raw := range colors {
		entry := raw.(map[string]any)
		if entry["name"] == "" || entry["hex"] == "" || entry["label"] == "" {
			t.Errorf("incomplete palette entry: %v", entry)
		}
	}
}

func TestRootRedirectsToFlow(t *testing.T) {
	srv, c, _ := setup(t)
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := c.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/flow" {
		t.Errorf("Location = %q, want /flow", loc)
	}
}

func TestExpressionUploadAndServe(t *testing.T) {
	srv, c, _ := setup(t)

	if status, _ := postJSON(t, c, srv.URL+"/flow/color", map[string]string{"color": "purple"}); status != http.StatusOK {
		t.Fatal("color failed")
	}
	if status, _ := postJSON(t, c, srv.URL+"/flow/text", map[string]string{"text": "stormy"}); status != http.StatusOK {
		t.Fatal("text failed")
	}
	if status, _ := postJSON(t, c, srv.URL+"/flow/mode", map[string]string{"mode": "draw"}); status != http.StatusOK {
		t.Fatal("mode failed")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("note", "clouds over the harbor"); err != nil {
		t.Fatal(err)
	}
	part, err := mw.CreateFormFile("image", "sketch.PNG")
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprint(part, "fake image bytes")
	mw.Close()

	resp, err := c.Post(srv.URL+"/flow/expression", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("expression upload: %v", err)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d (%v)", resp.StatusCode, out)
	}

	draft := out["draft"].(map[string]any)
	filename, _ := draft["image_filename"].(string)
	if filename == "" {
		t.Fatalf("no image filename in draft: %v", draft)
	}

	served, err := c.Get(srv.URL + "/uploads/" + filename)
	if err != nil {
		t.Fatalf("GET upload: %v", err)
	}
	body, _ := io.ReadAll(served.Body)
	served.Body.Close()
	if served.StatusCode != http.StatusOK || string(body) != "fake image bytes" {
		t.Errorf("served upload: status=%d body=%q", served.StatusCode, body)
	}
}

func TestExpressionUploadRejectsBadType(t *testing.T) {
	srv, c, _ := setup(t)
	if status, _ := postJSON(t, c, srv.URL+"/flow/color", map[string]string{"color": "purple"}); status != http.StatusOK {
		t.Fatal("color failed")
	}
	if status, _ := postJSON(t, c, srv.URL+"/flow/text", map[string]string{"text": "stormy"}); status != http.StatusOK {
		t.Fatal("text failed")
	}
	if status, _ := postJSON(t, c, srv.URL+"/flow/mode", map[string]string{"mode": "draw"}); status != http.StatusOK {
		t.Fatal("mode failed")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprint(part, "not an image")
	mw.Close()

	resp, err := c.Post(srv.URL+"/flow/expression", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("expression upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

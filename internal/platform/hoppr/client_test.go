package hoppr

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockHTTP replays canned responses and records every request it saw.
type mockHTTP struct {
	responses []*http.Response
	errs      []error
	requests  []*http.Request
	bodies    [][]byte
}

func (m *mockHTTP) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)

	i := len(m.requests) - 1
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return jsonResponse(http.StatusOK, `{}`), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, m *mockHTTP) *Client {
	t.Helper()
	c, err := New(Config{
		APIKey:     "test-key",
		BaseURL:    "https://hoppr.test",
		HTTPClient: m,
	}, zerolog.New(os.Stderr))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNew_TimeoutWiring(t *testing.T) {
	cases := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"unset uses default", 0, DefaultTimeout},
		{"explicit value kept", 5 * time.Second, 5 * time.Second},
		{"negative disables", -1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(Config{APIKey: "k", Timeout: tc.timeout}, zerolog.Nop())
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			hc, ok := c.http.(*http.Client)
			if !ok {
				t.Fatalf("expected *http.Client, got %T", c.http)
			}
			if hc.Timeout != tc.want {
				t.Errorf("Timeout = %v, want %v", hc.Timeout, tc.want)
			}
		})
	}
}

func TestCreateStudy_TopLevelID(t *testing.T) {
	m := &mockHTTP{responses: []*http.Response{jsonResponse(200, `{"id": "study-123"}`)}}
	c := newTestClient(t, m)

	id, err := c.CreateStudy(context.Background(), "triage-20250101-000000")
	if err != nil {
		t.Fatalf("CreateStudy: %v", err)
	}
	if id != "study-123" {
		t.Errorf("expected study-123, got %s", id)
	}

	req := m.requests[0]
	if req.URL.Path != "/v1/studies" {
		t.Errorf("unexpected path: %s", req.URL.Path)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("unexpected auth header: %s", got)
	}
}

func TestCreateStudy_NestedID(t *testing.T) {
	m := &mockHTTP{responses: []*http.Response{jsonResponse(200, `{"study": {"id": "study-9"}}`)}}
	c := newTestClient(t, m)

	id, err := c.CreateStudy(context.Background(), "x")
	if err != nil {
		t.Fatalf("CreateStudy: %v", err)
	}
	if id != "study-9" {
		t.Errorf("expected study-9, got %s", id)
	}
}

func TestCreateStudy_UnrecognizedShape(t *testing.T) {
	m := &mockHTTP{responses: []*http.Response{jsonResponse(200, `{"status": "ok"}`)}}
	c := newTestClient(t, m)

	if _, err := c.CreateStudy(context.Background(), "x"); err == nil {
		t.Fatal("expected error for reply without an id")
	}
}

func TestCreateStudy_RemoteError(t *testing.T) {
	m := &mockHTTP{responses: []*http.Response{jsonResponse(500, `boom`)}}
	c := newTestClient(t, m)

	if _, err := c.CreateStudy(context.Background(), "x"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestInvokeModel_WrapsReply(t *testing.T) {
	m := &mockHTTP{responses: []*http.Response{jsonResponse(200, `{"score": 0.66}`)}}
	c := newTestClient(t, m)

	resp, err := c.InvokeModel(context.Background(), "study-1", "model-a", "prompt")
	if err != nil {
		t.Fatalf("InvokeModel: %v", err)
	}

	p, ok := Normalize(resp)
	if !ok {
		t.Fatal("expected reply to normalize")
	}
	s, ok := Score(p)
	if !ok || s != 0.66 {
		t.Errorf("expected score 0.66, got %v (ok=%v)", s, ok)
	}
}

func TestInvokeModel_NonJSONBody(t *testing.T) {
	m := &mockHTTP{responses: []*http.Response{jsonResponse(200, `model warming up`)}}
	c := newTestClient(t, m)

	resp, err := c.InvokeModel(context.Background(), "study-1", "model-a", "prompt")
	if err != nil {
		t.Fatalf("InvokeModel: %v", err)
	}
	if _, ok := Normalize(resp); ok {
		t.Error("expected non-JSON body to be unparsable, not an error")
	}
}

func TestInvokeModel_SendsOrganization(t *testing.T) {
	m := &mockHTTP{responses: []*http.Response{jsonResponse(200, `{}`)}}
	c := newTestClient(t, m)

	if _, err := c.InvokeModel(context.Background(), "study-1", "model-a", "prompt"); err != nil {
		t.Fatalf("InvokeModel: %v", err)
	}
	if !bytes.Contains(m.bodies[0], []byte(`"organization":"hoppr"`)) {
		t.Errorf("expected organization in request body, got %s", m.bodies[0])
	}
}

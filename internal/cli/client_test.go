package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestClient_GetPost(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/posts/p1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"p1","provider":"x","state":"PUBLISHED",
			"workflow":{"phase":"plugs","published":[{"item_id":"p1","external_id":"e1","release_url":"u"}],"poked":true,"pending_plugs":2}}}`))
	})

	post, err := c.GetPost("p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.ID != "p1" || post.State != "PUBLISHED" {
		t.Errorf("unexpected post %+v", post)
	}
	if post.Workflow == nil || post.Workflow.PendingPlugs != 2 || len(post.Workflow.Published) != 1 {
		t.Errorf("unexpected workflow %+v", post.Workflow)
	}
}

func TestClient_PublishPost(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/posts/p1/publish" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req PublishPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Immediate {
			t.Error("expected scheduled publication")
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"data":{"workflow_id":"post_p1","run_id":"r1","immediate":false}}`))
	})

	exec, err := c.PublishPost("p1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.WorkflowID != "post_p1" || exec.RunID != "r1" {
		t.Errorf("unexpected execution %+v", exec)
	}
}

func TestClient_PokePost(t *testing.T) {
	called := false
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = r.Method == http.MethodPost && r.URL.Path == "/api/v1/posts/p1/poke"
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.PokePost("p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("poke endpoint not called")
	}
}

func TestClient_APIError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"post not found"}}`))
	})

	_, err := c.GetPost("missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "NOT_FOUND" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if err.Error() != "NOT_FOUND: post not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestClient_UndecodableError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	err := c.PokePost("p1")
	if err == nil || !strings.Contains(err.Error(), "HTTP 502") {
		t.Fatalf("expected HTTP 502 error, got %v", err)
	}
}

func TestPostCmd_Show(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":"p1","provider":"linkedin","state":"QUEUE","publish_date":"2026-03-01T12:00:00Z"}}`))
	})

	var stdout, stderr bytes.Buffer
	cmd := NewPostCmd(
		func() *Client { return c },
		func() *Output { return NewOutputTo(false, &stdout, &stderr) },
	)
	cmd.SetArgs([]string{"show", "p1"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"p1", "linkedin", "QUEUE", "Workflow:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPostCmd_PublishScheduledJSON(t *testing.T) {
	var immediate bool
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req PublishPostRequest
		json.NewDecoder(r.Body).Decode(&req)
		immediate = req.Immediate
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"data":{"workflow_id":"post_p1","run_id":"r1","immediate":false}}`))
	})

	var stdout, stderr bytes.Buffer
	cmd := NewPostCmd(
		func() *Client { return c },
		func() *Output { return NewOutputTo(true, &stdout, &stderr) },
	)
	cmd.SetArgs([]string{"publish", "p1", "--scheduled"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if immediate {
		t.Error("--scheduled must send immediate=false")
	}

	var exec ExecutionResponse
	if err := json.Unmarshal(stdout.Bytes(), &exec); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if exec.WorkflowID != "post_p1" {
		t.Errorf("unexpected execution %+v", exec)
	}
	if !strings.Contains(stderr.String(), "started") {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
}

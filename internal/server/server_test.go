package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskman/internal/backend/taskapi"
	"taskman/internal/server"
	"taskman/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(server.New(log).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Task Manager API is running!" {
		t.Errorf("unexpected health body %q", body)
	}
}

func TestListUsesNestedTimestamps(t *testing.T) {
	ts := newTestServer(t)
	payload := `{"title":"wire check","description":"d","dueDate":"2025-06-01T09:00:00Z","status":"Todo"}`
	resp, err := http.Post(ts.URL+"/tasks/u1", "application/json", bytes.NewBufferString(payload))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/tasks/u1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var listed []map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 task, got %d", len(listed))
	}
	var due struct {
		Seconds *int64 `json:"_seconds"`
		Nanos   *int64 `json:"_nanoseconds"`
	}
	if err := json.Unmarshal(listed[0]["dueDate"], &due); err != nil || due.Seconds == nil {
		t.Fatalf("dueDate not in nested form: %s", listed[0]["dueDate"])
	}
	want := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC).Unix()
	if *due.Seconds != want {
		t.Errorf("_seconds = %d, want %d", *due.Seconds, want)
	}
}

func TestCreateRejectsMissingTitle(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/tasks/u1", "application/json", bytes.NewBufferString(`{"description":"d"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var parsed map[string]string
	json.NewDecoder(resp.Body).Decode(&parsed)
	if parsed["error"] == "" {
		t.Error("expected an error field in the rejection body")
	}
}

func TestUpdateMissingTaskReturns404(t *testing.T) {
	ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/tasks/u1/absent",
		bytes.NewBufferString(`{"title":"x","description":"d","status":"Todo"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteAbsentTaskSucceeds(t *testing.T) {
	ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/tasks/u1/absent", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

// Creation order must survive a delete: a task created after a deletion
// must not list ahead of older survivors.
func TestListOrderStableAfterDelete(t *testing.T) {
	ts := newTestServer(t)
	client := taskapi.New(ts.URL)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		created, err := client.Create(ctx, "u1", service.Draft{Title: title, Status: service.StatusTodo})
		if err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
		ids = append(ids, created.ID)
	}
	if err := client.Delete(ctx, "u1", ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := client.Create(ctx, "u1", service.Draft{Title: "fourth", Status: service.StatusTodo}); err != nil {
		t.Fatalf("create fourth: %v", err)
	}

	tasks, err := client.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := make([]string, len(tasks))
	for i, task := range tasks {
		got[i] = task.Title
	}
	want := []string{"second", "third", "fourth"}
	if len(got) != len(want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("titles = %v, want %v", got, want)
		}
	}
}

// The dev server and the API client must agree on the wire format end to end.
func TestClientRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	client := taskapi.New(ts.URL)
	ctx := context.Background()

	due := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)
	created, err := client.Create(ctx, "u1", service.Draft{
		Title:       "round trip",
		Description: "end to end",
		DueDate:     due,
		Status:      service.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("create returned no id")
	}

	tasks, err := client.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.ID != created.ID || got.Title != "round trip" || !got.DueDate.Equal(due) || got.Status != service.StatusInProgress {
		t.Errorf("round trip mismatch: %+v", got)
	}

	updated, err := client.Update(ctx, "u1", created.ID, service.Patch{
		Title:       "round trip",
		Description: "end to end",
		DueDate:     due,
		Status:      service.StatusDone,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != service.StatusDone {
		t.Errorf("status = %q after update", updated.Status)
	}

	if err := client.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tasks, err = client.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected empty list, got %+v", tasks)
	}
}

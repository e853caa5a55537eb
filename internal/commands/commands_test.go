package commands_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"taskman/internal/auth"
	"taskman/internal/commands"
	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/service"
	"taskman/internal/tasksync"
	"taskman/internal/testutil"
)

func newApp(t *testing.T, store *testutil.FakeStore) *commands.App {
	t.Helper()
	session := auth.NewSession(testutil.NewFakeProvider())
	session.Restore(auth.Credentials{UserID: "uid-1", Email: "a@b.com"})
	app := &commands.App{Session: session, Engine: tasksync.New(session, store)}
	t.Cleanup(app.Close)
	return app
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{Dir: t.TempDir()}
}

func TestListOutput(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Seed("uid-1", service.Task{
		ID:      "t1",
		Title:   "buy milk",
		Status:  service.StatusTodo,
		DueDate: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	})
	store.Seed("uid-1", service.Task{
		ID:     "t2",
		Title:  "write report",
		Status: service.StatusInProgress,
	})
	app := newApp(t, store)

	var out, errOut bytes.Buffer
	cmd := &commands.ListCmd{}
	code := cmd.Run(context.Background(), testConfig(t), app, nil, &out, &errOut)
	if code != exitcode.Success {
		t.Fatalf("code = %d, stderr = %q", code, errOut.String())
	}
	testutil.GoldenString(t, "list_output", out.String())
}

func TestListEmpty(t *testing.T) {
	app := newApp(t, testutil.NewFakeStore())
	var out, errOut bytes.Buffer
	cmd := &commands.ListCmd{}
	code := cmd.Run(context.Background(), testConfig(t), app, nil, &out, &errOut)
	if code != exitcode.Success {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(out.String(), "no tasks found") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestAddCreatesAndSyncs(t *testing.T) {
	store := testutil.NewFakeStore()
	app := newApp(t, store)

	var out, errOut bytes.Buffer
	cmd := &commands.AddCmd{}
	cmd.SetFlags("weekly groceries", "2025-06-01", string(service.StatusTodo))
	code := cmd.Run(context.Background(), testConfig(t), app, []string{"buy", "milk"}, &out, &errOut)
	if code != exitcode.Success {
		t.Fatalf("code = %d, stderr = %q", code, errOut.String())
	}

	tasks := store.Tasks("uid-1")
	if len(tasks) != 1 {
		t.Fatalf("expected 1 stored task, got %d", len(tasks))
	}
	if tasks[0].Title != "buy milk" || tasks[0].Description != "weekly groceries" {
		t.Errorf("stored task = %+v", tasks[0])
	}
}

func TestAddWithoutTitle(t *testing.T) {
	store := testutil.NewFakeStore()
	app := newApp(t, store)

	var out, errOut bytes.Buffer
	cmd := &commands.AddCmd{}
	cmd.SetFlags("d", "", string(service.StatusTodo))
	code := cmd.Run(context.Background(), testConfig(t), app, nil, &out, &errOut)
	if code != exitcode.UserError {
		t.Errorf("code = %d, want %d", code, exitcode.UserError)
	}
	if store.CreateCalls() != 0 {
		t.Errorf("no network call expected, got %d", store.CreateCalls())
	}
}

func TestAddFailureExitsNonZero(t *testing.T) {
	store := testutil.NewFakeStore()
	store.CreateErr = &service.ServerError{Status: 500}
	app := newApp(t, store)

	var out, errOut bytes.Buffer
	cmd := &commands.AddCmd{}
	cmd.SetFlags("d", "", string(service.StatusTodo))
	code := cmd.Run(context.Background(), testConfig(t), app, []string{"doomed"}, &out, &errOut)
	if code != exitcode.BackendError {
		t.Errorf("code = %d, want %d", code, exitcode.BackendError)
	}
	if !strings.Contains(errOut.String(), "error:") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestDoneMarksTask(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Seed("uid-1", service.Task{ID: "t1", Title: "x", Description: "d", Status: service.StatusTodo})
	app := newApp(t, store)

	var out, errOut bytes.Buffer
	cmd := &commands.DoneCmd{}
	code := cmd.Run(context.Background(), testConfig(t), app, []string{"1"}, &out, &errOut)
	if code != exitcode.Success {
		t.Fatalf("code = %d, stderr = %q", code, errOut.String())
	}
	if got := store.Tasks("uid-1")[0].Status; got != service.StatusDone {
		t.Errorf("status = %q, want Done", got)
	}
}

func TestEditChangesOnlyGivenFields(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Seed("uid-1", service.Task{ID: "t1", Title: "old title", Description: "keep", Status: service.StatusTodo})
	app := newApp(t, store)

	var out, errOut bytes.Buffer
	cmd := &commands.EditCmd{}
	cmd.SetFlags("new title", "", "", "")
	code := cmd.Run(context.Background(), testConfig(t), app, []string{"t1"}, &out, &errOut)
	if code != exitcode.Success {
		t.Fatalf("code = %d, stderr = %q", code, errOut.String())
	}
	got := store.Tasks("uid-1")[0]
	if got.Title != "new title" || got.Description != "keep" {
		t.Errorf("task = %+v", got)
	}
}

func TestRmDeletesTask(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Seed("uid-1", service.Task{ID: "t1", Title: "x", Status: service.StatusTodo})
	app := newApp(t, store)

	var out, errOut bytes.Buffer
	cmd := &commands.RmCmd{}
	code := cmd.Run(context.Background(), testConfig(t), app, []string{"1"}, &out, &errOut)
	if code != exitcode.Success {
		t.Fatalf("code = %d, stderr = %q", code, errOut.String())
	}
	if len(store.Tasks("uid-1")) != 0 {
		t.Errorf("task not deleted: %+v", store.Tasks("uid-1"))
	}
}

func TestRmUnknownRef(t *testing.T) {
	store := testutil.NewFakeStore()
	app := newApp(t, store)

	var out, errOut bytes.Buffer
	cmd := &commands.RmCmd{}
	code := cmd.Run(context.Background(), testConfig(t), app, []string{"42"}, &out, &errOut)
	if code != exitcode.UserError {
		t.Errorf("code = %d, want %d", code, exitcode.UserError)
	}
	if !strings.Contains(errOut.String(), "task not found") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

package commands

import (
	"errors"
	"testing"

	"taskman/internal/auth"
	"taskman/internal/exitcode"
	"taskman/internal/service"
)

func TestExitFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not authenticated", service.ErrNotAuthenticated, exitcode.AuthError},
		{"wrong credentials", &auth.Error{Kind: auth.KindWrongCredentials}, exitcode.AuthError},
		{"auth network failure", &auth.Error{Kind: auth.KindNetwork}, exitcode.BackendError},
		{"validation", &service.ValidationError{Field: "title", Reason: "required"}, exitcode.UserError},
		{"not found", service.ErrNotFound, exitcode.UserError},
		{"conflicting", service.ErrConflicting, exitcode.UserError},
		{"server error", &service.ServerError{Status: 500}, exitcode.BackendError},
		{"network error", &service.NetworkError{Err: errors.New("refused")}, exitcode.BackendError},
		{"decode error", &service.DecodeError{Err: errors.New("bad json")}, exitcode.BackendError},
	}
	for _, tc := range cases {
		if got := exitFor(tc.err); got != tc.want {
			t.Errorf("%s: exitFor() = %d, want %d", tc.name, got, tc.want)
		}
	}
}

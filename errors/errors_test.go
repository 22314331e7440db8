package errors

import (
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", ErrMissingName, http.StatusBadRequest},
		{"forbidden", ErrUnauthorized, http.StatusForbidden},
		{"not found", ErrReportNotFound, http.StatusNotFound},
		{"rate limited", ErrCreateThrottled, http.StatusTooManyRequests},
		{"storage", Storage(fmt.Errorf("disk full"), "save"), http.StatusInternalServerError},
		{"database", Database(fmt.Errorf("conn reset"), "query"), http.StatusInternalServerError},
		{"too large", ErrBodyTooLarge, http.StatusRequestEntityTooLarge},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"wrapped", pkgerrors.Wrap(ErrReportNotFound, "lookup"), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusCode(tc.err); got != tc.want {
				t.Errorf("StatusCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestErrorMessageSurfacesCause(t *testing.T) {
	err := Storage(fmt.Errorf("permission denied"), "failed to save file")
	if got := err.Error(); got != "failed to save file: permission denied" {
		t.Errorf("unexpected message %q", got)
	}
	if !pkgerrors.Is(err, err.Err) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestSentinelsMatchRebuiltValues(t *testing.T) {
	if !pkgerrors.Is(NotFound("Reporte no encontrado"), ErrReportNotFound) {
		t.Error("expected rebuilt not-found error to match sentinel")
	}
	if pkgerrors.Is(NotFound("other"), ErrReportNotFound) {
		t.Error("different message should not match")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindDatabase, nil, "x") != nil {
		t.Error("wrapping nil should return nil")
	}
}

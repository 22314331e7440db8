package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	errs "github.com/infieles/reportes/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return body["error"]
}

func TestError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
		logged  bool
	}{
		{"validation", errs.ErrMissingName, http.StatusBadRequest, "Faltan datos", false},
		{"forbidden", errs.ErrUnauthorized, http.StatusForbidden, "No autorizado", false},
		{"not found", errs.ErrReportNotFound, http.StatusNotFound, "Reporte no encontrado", false},
		{"throttled", errs.ErrCreateThrottled, http.StatusTooManyRequests, "Has excedido el límite. Espera 20 minutos.", false},
		{"database", errs.Database(fmt.Errorf("connection refused"), "error creating report"), http.StatusInternalServerError, "error creating report: connection refused", true},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, "boom", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Error(c, tc.err)

			if w.Code != tc.status {
				t.Errorf("status = %d, want %d", w.Code, tc.status)
			}
			if got := errorBody(t, w); got != tc.message {
				t.Errorf("message = %q, want %q", got, tc.message)
			}
			if logged := len(c.Errors) > 0; logged != tc.logged {
				t.Errorf("attached to context = %v, want %v", logged, tc.logged)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Message(c, http.StatusCreated, "Guardado", gin.H{"id": 3})

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusCreated || body["mensaje"] != "Guardado" || body["id"] != float64(3) {
		t.Errorf("unexpected response %d %v", w.Code, body)
	}
}

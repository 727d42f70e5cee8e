package apperr_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/landrecords/demarcation-backend/internal/apperr"
	"github.com/landrecords/demarcation-backend/internal/logger"
)

func TestWrite_MapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{apperr.Validation("khasra number is required"), http.StatusBadRequest, "khasra number is required"},
		{apperr.Forbidden("not allowed"), http.StatusForbidden, "not allowed"},
		{apperr.NotFound("plot not found"), http.StatusNotFound, "plot not found"},
		{apperr.Conflict("invalid transition"), http.StatusConflict, "invalid transition"},
		{apperr.UnsupportedFormat("docx"), http.StatusBadRequest, `unsupported format "docx"`},
		{apperr.NoData("No data available for report"), http.StatusNotFound, "No data available for report"},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("gone")), http.StatusNotFound, "gone"},
		{errors.New("pq: relation does not exist"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		apperr.Write(rec, logger.Nop(), tc.err)

		if rec.Code != tc.code {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["error"] != tc.msg {
			t.Errorf("%v: expected message %q, got %q", tc.err, tc.msg, body["error"])
		}
	}
}

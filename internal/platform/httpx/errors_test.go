package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

func TestRespondErrorMapsCategories(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("amount: %w", shared.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: bad json", ErrMalformedBody), http.StatusBadRequest},
		{fmt.Errorf("entry 9: %w", shared.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("posted: %w", shared.ErrConflict), http.StatusConflict},
		{shared.ErrIdempotencyConflict, http.StatusConflict},
		{fmt.Errorf("chart: %w", shared.ErrPrecondition), http.StatusPreconditionFailed},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		if rr.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Fatalf("unexpected content type %q", ct)
		}
		var body ProblemDetail
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode problem: %v", err)
		}
		if body.Status != tc.status {
			t.Fatalf("problem status %d, want %d", body.Status, tc.status)
		}
		if tc.status == http.StatusInternalServerError && body.Detail != "" {
			t.Fatalf("internal errors must not leak detail: %q", body.Detail)
		}
	}
}

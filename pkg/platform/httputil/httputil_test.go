package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tokenvault/pkg/domain-errors"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("infrastructure error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("db down"), dErrors.CodeFailedToTokenize, "failed to tokenize account"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "failed_to_tokenize", body["error"])
		assert.NotContains(t, body, "error_description")
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, "invalid input", body["error_description"])
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal_error", decodeBody(t, w)["error"])
	})
}

func TestStatusFor(t *testing.T) {
	tests := map[dErrors.Code]int{
		dErrors.CodeInvalidAccountNumber:   http.StatusBadRequest,
		dErrors.CodeValidation:             http.StatusBadRequest,
		dErrors.CodeInvalidCardBrand:       http.StatusUnprocessableEntity,
		dErrors.CodeAccountAlreadyExists:   http.StatusConflict,
		dErrors.CodeAccountNotFound:        http.StatusNotFound,
		dErrors.CodeTokenNotFound:          http.StatusNotFound,
		dErrors.CodeRateLimited:            http.StatusTooManyRequests,
		dErrors.CodeFailedToFindToken:      http.StatusInternalServerError,
		dErrors.CodeFailedToDisableAccount: http.StatusInternalServerError,
		dErrors.CodeInvariantViolation:     http.StatusInternalServerError,
	}
	for code, want := range tests {
		t.Run(string(code), func(t *testing.T) {
			assert.Equal(t, want, StatusFor(code))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		var p payload
		require.NoError(t, DecodeJSON(r, &p))
		assert.Equal(t, "x", p.Name)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
		var p payload
		err := DecodeJSON(r, &p)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

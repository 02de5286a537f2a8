package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", shared.NewValidationError("mrp", "MRP must be a positive number."), http.StatusUnprocessableEntity},
		{"not found", fmt.Errorf("bill: %w", shared.ErrNotFound), http.StatusNotFound},
		{"duplicate", fmt.Errorf("key: %w", shared.ErrDuplicate), http.StatusConflict},
		{"persistence", shared.NewPersistenceError("save", errors.New("conn reset")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			assert.Equal(t, tc.code, rr.Code)
		})
	}
}

func TestRespondErrorIncludesFields(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, shared.NewValidationError("discountPercentage", "Discount must be between 0 and 100."))

	var body ValidationProblem
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "discountPercentage", body.Errors[0].Field)
	assert.Equal(t, "Discount must be between 0 and 100.", body.Detail)
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var target map[string]any
	err := DecodeJSON(httptest.NewRecorder(), req, &target)
	require.ErrorIs(t, err, shared.ErrValidation)
}

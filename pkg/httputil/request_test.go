package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathInt64(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		want    int64
		wantErr string
	}{
		{"valid", map[string]string{"id": "42"}, 42, ""},
		{"missing", map[string]string{}, 0, "missing path parameter"},
		{"not a number", map[string]string{"id": "abc"}, 0, "invalid integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), tt.vars)
			got, err := ParsePathInt64(req, "id")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePathInt64OrError(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "x"})
	rec := httptest.NewRecorder()

	_, ok := ParsePathInt64OrError(rec, req, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&bad=x", nil)

	got, err := ParseQueryInt(req, "page", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = ParseQueryInt(req, "limit", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, got)

	_, err = ParseQueryInt(req, "bad", 0)
	assert.Error(t, err)
}

func TestParseQueryInt64Ptr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?zoneId=5", nil)

	got, err := ParseQueryInt64Ptr(req, "zoneId")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(5), *got)

	got, err = ParseQueryInt64Ptr(req, "wardId")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseJSONOrError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	var dest map[string]interface{}
	assert.False(t, ParseJSONOrError(rec, req, &dest))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContext(t *testing.T) {
	t.Run("SetUserContext and getters", func(t *testing.T) {
		ctx := SetUserContext(context.Background(), 100, "user@example.com", "USER")

		id, ok := GetUserIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, uint(100), id)
		assert.Equal(t, "user@example.com", GetUserEmailFromContext(ctx))
		assert.Equal(t, "USER", GetUserRoleFromContext(ctx))
		assert.False(t, IsAdmin(ctx))
	})

	t.Run("Empty context", func(t *testing.T) {
		_, ok := GetUserIDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("Zero id is not authenticated", func(t *testing.T) {
		_, ok := GetUserIDFromContext(SetUserContext(context.Background(), 0, "", ""))
		assert.False(t, ok)
	})

	t.Run("Admin", func(t *testing.T) {
		assert.True(t, IsAdmin(SetUserContext(context.Background(), 1, "a@b.c", RoleAdmin)))
	})
}

func TestIsInternalRequest(t *testing.T) {
	assert.False(t, IsInternalRequest(context.Background()))
	assert.True(t, IsInternalRequest(WithInternalRequest(context.Background())))
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONError(w, "bad input", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "bad input", body["error"])
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"Valid", `{"name":"shirt"}`, false},
		{"UnknownField", `{"name":"shirt","extra":1}`, true},
		{"Trailing", `{"name":"a"}{"name":"b"}`, true},
		{"Malformed", `{"name":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(req, &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "shirt", p.Name)
		})
	}
}

func TestToUint(t *testing.T) {
	n, err := ToUint("42")
	assert.NoError(t, err)
	assert.Equal(t, uint(42), n)

	_, err = ToUint("-1")
	assert.Error(t, err)
}

func TestPtrString(t *testing.T) {
	assert.Equal(t, "", PtrString(nil))
	assert.Equal(t, "x", PtrString(StrPtr("x")))
}

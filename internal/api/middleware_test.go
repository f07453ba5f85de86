package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/npezzotti/study-rooms/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler_PanicRecovery(t *testing.T) {
	tcases := []struct {
		name  string
		value any
		want  string
	}{
		{name: "error value", value: errors.New("test panic"), want: "panic: test panic"},
		{name: "string value", value: "plain panic", want: "panic: plain panic"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			app := &StudyRoomsApp{
				log: testutil.TestLogger(t),
			}
			app.log.SetOutput(buf)

			panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tc.value)
			})

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			handler := app.errorHandler(panicHandler)
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, "close", rr.Header().Get("Connection"))
			assert.Contains(t, buf.String(), tc.want)

			var errResp ApiError
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
			assert.Equal(t, "internal server error", errResp.Title)
		})
	}
}

func Test_errorHandler_NoPanic(t *testing.T) {
	app := &StudyRoomsApp{}

	called := false
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler := app.errorHandler(okHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.True(t, called, "expected handler to be called")
}

func Test_noCache(t *testing.T) {
	handler := noCache(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "ok", rr.Body.String())
	assert.Equal(t, "no-store, no-cache, must-revalidate, private", rr.Header().Get("Cache-Control"))
}

func TestApiError(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternalServerError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error: boom", err.Error())
	assert.Equal(t, "bad request", NewBadRequestError("x").Error())

	b, jerr := json.Marshal(NewBadRequestError("invalid request body"))
	require.NoError(t, jerr)
	assert.JSONEq(t, `{"error":"bad request","message":"invalid request body"}`, string(b))
}

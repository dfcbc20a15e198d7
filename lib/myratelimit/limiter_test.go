package myratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func TestLimiter(t *testing.T) {

	t.Run("In memory", func(t *testing.T) {
		// given
		sut, cleanup, err := New(context.TODO(), "2-M", "")
		assert.NoError(t, err)
		defer cleanup()
		handler := sut.Limit(staticKey, okHandler)

		// when
		first := call(handler)
		second := call(handler)
		third := call(handler)

		// then
		assert.Equal(t, 200, first.Code)
		assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, 200, second.Code)
		assert.Equal(t, 429, third.Code)
		assert.JSONEq(t, `{"error":"Too many requests"}`, third.Body.String())
		assert.NotEmpty(t, third.Header().Get("Retry-After"))
	})

	t.Run("Keys are counted separately", func(t *testing.T) {
		// given
		sut, cleanup, err := New(context.TODO(), "1-M", "")
		assert.NoError(t, err)
		defer cleanup()
		handler := sut.Limit(func(r *http.Request) string { return r.URL.Query().Get("who") }, okHandler)

		// when
		alice := callURL(handler, "/?who=alice")
		bob := callURL(handler, "/?who=bob")
		aliceAgain := callURL(handler, "/?who=alice")

		// then
		assert.Equal(t, 200, alice.Code)
		assert.Equal(t, 200, bob.Code)
		assert.Equal(t, 429, aliceAgain.Code)
	})

	t.Run("Redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		assert.NoError(t, err)
		defer mr.Close()

		// given
		sut, cleanup, err := New(context.TODO(), "1-M", "redis://"+mr.Addr())
		assert.NoError(t, err)
		defer cleanup()
		handler := sut.Limit(staticKey, okHandler)

		// when
		first := call(handler)
		second := call(handler)

		// then
		assert.Equal(t, 200, first.Code)
		assert.Equal(t, 429, second.Code)
	})

	t.Run("Redis down lets requests through", func(t *testing.T) {
		mr, err := miniredis.Run()
		assert.NoError(t, err)

		// given
		sut, cleanup, err := New(context.TODO(), "1-M", "redis://"+mr.Addr())
		assert.NoError(t, err)
		defer cleanup()
		handler := sut.Limit(staticKey, okHandler)
		mr.Close()

		// when
		first := call(handler)
		second := call(handler)

		// then
		assert.Equal(t, 200, first.Code)
		assert.Equal(t, 200, second.Code)
	})

	t.Run("Invalid rate", func(t *testing.T) {
		_, _, err := New(context.TODO(), "five per minute", "")
		assert.Error(t, err)
	})

	t.Run("Nil limiter does not limit", func(t *testing.T) {
		var sut *Limiter
		handler := sut.Limit(staticKey, okHandler)

		for i := 0; i < 3; i++ {
			assert.Equal(t, 200, call(handler).Code)
		}
	})
}

func staticKey(r *http.Request) string {
	return "static"
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func call(handler http.HandlerFunc) *httptest.ResponseRecorder {
	return callURL(handler, "/")
}

func callURL(handler http.HandlerFunc, url string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, url, nil)
	response := httptest.NewRecorder()
	handler(response, request)
	return response
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrCodeUnavailable, "backend down")
	assert.Equal(t, "backend down: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestPredicatesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load cart: %w", NotFoundf("cart %s", "c1"))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.Equal(t, ErrCodeNotFound, GetCode(err))
	assert.Equal(t, "cart c1", NotFoundf("cart %s", "c1").Message)

	v := ValidationField("quantity", "too many")
	assert.True(t, IsValidation(v))
	assert.Equal(t, "quantity", GetField(v))
	assert.Equal(t, "", GetField(errors.New("plain")))
}

func TestFromHTTPStatus(t *testing.T) {
	cases := map[int]ErrorCode{
		http.StatusNotFound:            ErrCodeNotFound,
		http.StatusConflict:            ErrCodeConflict,
		http.StatusUnprocessableEntity: ErrCodeValidation,
		http.StatusBadRequest:          ErrCodeValidation,
		http.StatusUnauthorized:        ErrCodeUnauthenticated,
		http.StatusForbidden:           ErrCodeForbidden,
		http.StatusBadGateway:          ErrCodeUnavailable,
		http.StatusGatewayTimeout:      ErrCodeTimeout,
		http.StatusTeapot:              ErrCodeInternal,
	}
	for status, want := range cases {
		got := FromHTTPStatus(status, "")
		assert.Equal(t, want, got.Code, "status=%d", status)
		assert.Equal(t, http.StatusText(status), got.Message)
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFoundf("x")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Unauthenticated("no session")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Wrap(errors.New("x"), ErrCodeUnavailable, "down")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbiddenf("nope")))
}

func TestUnauthenticated_KeepsMessageVerbatim(t *testing.T) {
	err := Unauthenticated("session 100% expired")
	assert.Equal(t, "session 100% expired", err.Error())
	assert.True(t, IsUnauthenticated(err))
}

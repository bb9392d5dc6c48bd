package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"tradeidea/internal/autogen"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, totalPages(0, 20))
	assert.Equal(t, 1, totalPages(20, 20))
	assert.Equal(t, 2, totalPages(21, 20))
	assert.Equal(t, 1, totalPages(10, 0))
}

func TestAutogenError_StatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: every 3 days", autogen.ErrInvalidInterval), http.StatusBadRequest},
		{autogen.ErrInvalidTime, http.StatusBadRequest},
		{autogen.ErrInvalidTimezone, http.StatusBadRequest},
		{autogen.ErrNotEnabled, http.StatusConflict},
		{autogen.ErrPaused, http.StatusConflict},
		{autogen.ErrBusy, http.StatusConflict},
		{&autogen.PersistenceError{UserID: "u1", Err: autogen.ErrVersionConflict}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			_ = autogenError(c, zap.NewNop(), tt.err)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestQueryInt(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=3&limit=-1", nil), httptest.NewRecorder())
	assert.Equal(t, 3, queryInt(c, "page", 1))
	assert.Equal(t, 20, queryInt(c, "limit", 20))
	assert.Equal(t, 7, queryInt(c, "missing", 7))
}

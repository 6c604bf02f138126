package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ginContextWithQuery(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return c
}

func TestParsePagination(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		offset, limit, err := ParsePagination(ginContextWithQuery(t, ""))
		require.NoError(t, err)
		assert.Equal(t, 0, offset)
		assert.Equal(t, 50, limit)
	})

	t.Run("ExplicitValues", func(t *testing.T) {
		offset, limit, err := ParsePagination(ginContextWithQuery(t, "offset=20&limit=10"))
		require.NoError(t, err)
		assert.Equal(t, 20, offset)
		assert.Equal(t, 10, limit)
	})

	t.Run("Error_NegativeOffset", func(t *testing.T) {
		_, _, err := ParsePagination(ginContextWithQuery(t, "offset=-1"))
		assert.Error(t, err)
	})

	t.Run("Error_NonNumericOffset", func(t *testing.T) {
		_, _, err := ParsePagination(ginContextWithQuery(t, "offset=abc"))
		assert.Error(t, err)
	})

	t.Run("Error_LimitTooLarge", func(t *testing.T) {
		_, _, err := ParsePagination(ginContextWithQuery(t, "limit=101"))
		assert.Error(t, err)
	})

	t.Run("Error_ZeroLimit", func(t *testing.T) {
		_, _, err := ParsePagination(ginContextWithQuery(t, "limit=0"))
		assert.Error(t, err)
	})
}

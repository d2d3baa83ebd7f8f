package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"modulyn/pkg/errors"
	"modulyn/pkg/jwt"
	"modulyn/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewareContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/contacts", nil)
	return c, w
}

func envelopeOf(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRequireOrgContextMissingClaimsFailsClosed(t *testing.T) {
	c, w := newMiddlewareContext(t)
	m := &AuthMiddleware{}

	m.RequireOrgContext()(c)

	assert.True(t, c.IsAborted())
	resp := envelopeOf(t, w)
	assert.Equal(t, errors.CodeUnauthorized, resp.Code)
	assert.Equal(t, "请先登录", resp.Message)
}

func TestRequireOrgContextNoOrgFailsClosed(t *testing.T) {
	c, w := newMiddlewareContext(t)
	c.Set("claims", &jwt.JWTClaims{UserID: 7, CurrentOrgID: 0})
	m := &AuthMiddleware{}

	m.RequireOrgContext()(c)

	assert.True(t, c.IsAborted())
	resp := envelopeOf(t, w)
	assert.Equal(t, errors.CodeForbidden, resp.Code)
	assert.Equal(t, "尚未加入任何组织", resp.Message)
}

func TestRequireOrgContextPassesWithOrg(t *testing.T) {
	c, w := newMiddlewareContext(t)
	c.Set("claims", &jwt.JWTClaims{UserID: 7, OrgID: 1, CurrentOrgID: 1})
	m := &AuthMiddleware{}

	m.RequireOrgContext()(c)

	assert.False(t, c.IsAborted())
	assert.Empty(t, w.Body.String())
}

func TestRequireLoginMissingHeaderRejected(t *testing.T) {
	c, w := newMiddlewareContext(t)
	m := &AuthMiddleware{}

	m.RequireLogin()(c)

	assert.True(t, c.IsAborted())
	resp := envelopeOf(t, w)
	assert.Equal(t, errors.CodeUnauthorized, resp.Code)
	assert.Equal(t, "请先登录", resp.Message)
}

func TestRequireLoginMalformedHeaderRejected(t *testing.T) {
	c, w := newMiddlewareContext(t)
	c.Request.Header.Set("Authorization", "Token abc123")
	m := &AuthMiddleware{}

	m.RequireLogin()(c)

	assert.True(t, c.IsAborted())
	resp := envelopeOf(t, w)
	assert.Equal(t, errors.CodeUnauthorized, resp.Code)
	assert.Equal(t, "认证头格式错误", resp.Message)
}

func TestCurrentOrgIDWithoutClaims(t *testing.T) {
	c, _ := newMiddlewareContext(t)

	assert.Equal(t, uint(0), CurrentOrgID(c))

	c.Set("claims", &jwt.JWTClaims{UserID: 7, CurrentOrgID: 3})
	assert.Equal(t, uint(3), CurrentOrgID(c))
}

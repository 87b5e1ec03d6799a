package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetByName(ctx context.Context, name string) (*domain.User, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newIdentityRouter(guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", guard, func(c *gin.Context) {
		c.String(http.StatusOK, currentUser(c).Name)
	})
	return r
}

func request(r *gin.Engine, cookie *http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireUser(t *testing.T) {
	users := &MockUserLookup{}
	users.On("GetByName", mock.Anything, "alice").Return(alice, nil)
	users.On("GetByName", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)
	users.On("GetByName", mock.Anything, "broken").Return(nil, errors.New("db down"))
	r := newIdentityRouter(RequireUser(users))

	w := request(r, &http.Cookie{Name: UserCookie, Value: "alice"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, request(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, &http.Cookie{Name: UserCookie, Value: "ghost"}).Code)
	assert.Equal(t, http.StatusInternalServerError, request(r, &http.Cookie{Name: UserCookie, Value: "broken"}).Code)
}

func TestRequireAdmin(t *testing.T) {
	users := &MockUserLookup{}
	users.On("GetByName", mock.Anything, "root").Return(&domain.User{ID: "u-root", Name: "root", IsAdmin: true}, nil)
	users.On("GetByName", mock.Anything, "alice").Return(alice, nil)
	r := newIdentityRouter(RequireAdmin(users))

	assert.Equal(t, http.StatusOK, request(r, &http.Cookie{Name: AdminCookie, Value: "root"}).Code)
	assert.Equal(t, http.StatusForbidden, request(r, &http.Cookie{Name: AdminCookie, Value: "alice"}).Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, &http.Cookie{Name: UserCookie, Value: "root"}).Code)
}

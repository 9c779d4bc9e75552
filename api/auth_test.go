package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ravi1548/Transport-Facility/internal/auth"
	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) Upsert(ctx context.Context, employee *domain.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

func (m *MockEmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Employee), args.Error(1)
}

func TestAuthHandler_login(t *testing.T) {
	mockEmployees := &MockEmployeeRepository{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handler := NewAuthHandler(tokens, mockEmployees)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	payload, _ := json.Marshal(map[string]string{"employee_id": "EMP001", "name": "Ravi"})
	c.Request = httptest.NewRequest("POST", "/auth/login", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	mockEmployees.On("Upsert", c.Request.Context(), mock.AnythingOfType("*domain.Employee")).Return(nil).Once()

	handler.login(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp loginResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "EMP001", resp.EmployeeID)

	// The issued token must resolve back to the same employee.
	claims, err := tokens.Parse(resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, "EMP001", claims.EmployeeID)

	mockEmployees.AssertExpectations(t)
}

func TestAuthHandler_login_ShortEmployeeID(t *testing.T) {
	mockEmployees := &MockEmployeeRepository{}
	handler := NewAuthHandler(auth.NewTokenManager("test-secret", time.Hour), mockEmployees)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	payload, _ := json.Marshal(map[string]string{"employee_id": "E1"})
	c.Request = httptest.NewRequest("POST", "/auth/login", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.login(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockEmployees.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestAuthRequired(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.Issue("EMP001", "")
	assert.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthRequired(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"employee_id": currentEmployeeID(c)})
	})

	// No token: no caller identity.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token resolves the employee.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"employee_id": "EMP001"}`, w.Body.String())
}

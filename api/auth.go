package api

import (
	"net/http"

	"github.com/Ravi1548/Transport-Facility/internal/auth"
	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/Ravi1548/Transport-Facility/internal/repository"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	tokens    *auth.TokenManager
	employees repository.EmployeeRepository
}

type loginRequest struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
}

type loginResponse struct {
	Token      string `json:"token"`
	EmployeeID string `json:"employee_id"`
}

func NewAuthHandler(tokens *auth.TokenManager, employees repository.EmployeeRepository) *AuthHandler {
	return &AuthHandler{tokens: tokens, employees: employees}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/login", h.login)
	router.POST("/logout", h.logout)
}

// login upserts the employee record and issues a session token. This
// is the one place identity bookkeeping happens; the scheduling engine
// only ever sees the resolved employee id.
func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.EmployeeID) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee id must be at least 3 characters"})
		return
	}

	employee := &domain.Employee{ID: req.EmployeeID, DisplayName: req.Name}
	if err := h.employees.Upsert(c.Request.Context(), employee); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error performing operation"})
		return
	}

	token, err := h.tokens.Issue(employee.ID, employee.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error performing operation"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{Token: token, EmployeeID: employee.ID})
}

// logout is stateless: the session ends when the client discards its
// token.
func (h *AuthHandler) logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Package stubapi serves an in-memory imitation of the registration endpoint so the
// probe can be exercised end to end without reaching a real deployment.
//
// The stub answers POST /register the way the production backend does:
//
//	201 {"email": ..., "id": n}                   new account
//	400 {"detail": ..., "errors": {field: msg}}   payload fails validation
//	409 {"detail": "email already registered"}    email seen before
//	415 {"detail": ...}                           body is not declared as JSON
//
// Accounts live only as long as the Server value.
package stubapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/njoy/registration-probe/internal/registration"
)

// RegisterPath is the route served by the stub.
const RegisterPath = "/register"

// Server holds the registered accounts keyed by lower-cased email.
type Server struct {
	mu       sync.Mutex
	nextID   int
	accounts map[string]int
	engine   *gin.Engine
}

// New builds a stub with no accounts.
func New() *Server {
	s := &Server{
		accounts: make(map[string]int),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.POST(RegisterPath, s.register)
	s.engine = r

	return s
}

// Handler returns the HTTP handler serving the stub routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Accounts returns the number of registered accounts.
func (s *Server) Accounts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

func (s *Server) register(c *gin.Context) {
	if c.ContentType() != "application/json" {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"detail": "content type must be application/json"})
		return
	}

	var req registration.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed JSON body"})
		return
	}

	if err := registration.Validate(req); err != nil {
		var ve registration.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid registration data", "errors": ve})
			return
		}
		slog.Error("stub validator failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "validator unavailable"})
		return
	}

	id, created := s.create(req.Email)
	if !created {
		c.JSON(http.StatusConflict, gin.H{"detail": "email already registered"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "email": req.Email})
}

func (s *Server) create(email string) (int, bool) {
	key := strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[key]; exists {
		return 0, false
	}
	s.nextID++
	s.accounts[key] = s.nextID
	return s.nextID, true
}

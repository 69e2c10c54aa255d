package fakeapi

import (
	"net/http"
	"strconv"
	"time"

	"todo_client/internal/domain"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"omitempty,max=50"`
}

// loginRequest accepts either identifier; username wins when both are sent.
type loginRequest struct {
	Username string `json:"username" binding:"required_without=Email"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Name *string `json:"name" binding:"omitempty,max=50"`
	Bio  *string `json:"bio" binding:"omitempty,max=500"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type createTodoRequest struct {
	Task string `json:"task" binding:"required"`
}

type updateTodoRequest struct {
	Task        *string          `json:"task" binding:"omitempty,max=500"`
	Status      *bool            `json:"status"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Priority    *domain.Priority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time       `json:"due_date"`
}

func (r updateTodoRequest) patch() domain.TodoPatch {
	return domain.TodoPatch{
		Task:        r.Task,
		Status:      r.Status,
		Description: r.Description,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
	}
}

func (s *Server) registerRoutes(router gin.IRouter) {
	router.GET("/health", s.handleHealth)
	router.POST("/register", s.handleRegister)
	router.POST("/login", s.handleLogin)

	protected := router.Group("/")
	protected.Use(s.requireAuth())
	{
		protected.POST("/logout", s.handleLogout)

		protected.GET("/profile", s.handleGetProfile)
		protected.PUT("/profile", s.handleUpdateProfile)
		protected.PUT("/profile/password", s.handleChangePassword)
		protected.DELETE("/profile", s.handleDeleteAccount)

		todos := protected.Group("/todos")
		{
			todos.GET("", s.handleListTodos)
			todos.POST("", s.handleCreateTodo)
			todos.GET("/:id", s.handleGetTodo)
			todos.PUT("/:id", s.handleUpdateTodo)
			todos.DELETE("/:id", s.handleDeleteTodo)
			todos.PATCH("/:id/toggle", s.handleToggleTodo)
		}
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Warnf("Fake API: Failed to bind register request: %v", err)
		bindError(c, err, "Username, password, and email are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, err := s.createUser(req)
	if err != nil {
		s.log.Warnf("Fake API: Registration failed for %s: %v", req.Username, err)
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	s.log.Infof("Fake API: User %s registered (ID: %d)", user.Username, user.ID)

	resp := gin.H{"message": "User created successfully", "user": user}
	if s.autoLogin {
		token, err := s.issueToken(user.ID)
		if err != nil {
			errorResponse(c, http.StatusInternalServerError, "Failed to generate token")
			return
		}
		resp["token"] = token
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Username and password are required")
		return
	}
	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, err := s.authenticate(identifier, req.Password)
	if err != nil {
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	token, err := s.issueToken(user.ID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	if s.bare {
		c.JSON(http.StatusOK, gin.H{"token": token, "message": "Logged in successfully"})
		return
	}
	profile, _ := s.profile(user.ID)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": profile})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.mu.Lock()
	delete(s.sessions, c.GetString("token"))
	s.mu.Unlock()
	messageResponse(c, http.StatusOK, "Logged out successfully")
}

func (s *Server) handleGetProfile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, err := s.profile(c.GetInt64(userIDKey))
	if err != nil {
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Name or bio is too long")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, err := s.updateProfile(c.GetInt64(userIDKey), domain.ProfilePatch{Name: req.Name, Bio: req.Bio})
	if err != nil {
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	if s.bare {
		messageResponse(c, http.StatusOK, "Profile updated successfully")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Current password and a new password of at least 6 characters are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.changePassword(c.GetInt64(userIDKey), req.CurrentPassword, req.NewPassword); err != nil {
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	messageResponse(c, http.StatusOK, "Password updated successfully")
}

func (s *Server) handleDeleteAccount(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteUser(c.GetInt64(userIDKey)); err != nil {
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	messageResponse(c, http.StatusOK, "Account deleted successfully")
}

func (s *Server) handleListTodos(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.listTodos(c.GetInt64(userIDKey)))
}

func (s *Server) handleGetTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.todo(c.GetInt64(userIDKey), id)
	if err != nil {
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleCreateTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, errEmptyTask.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.createTodo(c.GetInt64(userIDKey), req.Task)
	if err != nil {
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	s.log.Infof("Fake API: Todo %d created for user %d", t.ID, t.UserID)
	c.JSON(http.StatusCreated, t)
}

func (s *Server) handleUpdateTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}
	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid todo fields")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.updateTodo(c.GetInt64(userIDKey), id, req.patch())
	if err != nil {
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	if s.bare {
		messageResponse(c, http.StatusOK, "Todo updated successfully")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleToggleTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.toggleTodo(c.GetInt64(userIDKey), id)
	if err != nil {
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteTodo(c.GetInt64(userIDKey), id); err != nil {
		errorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}
	messageResponse(c, http.StatusOK, "Todo deleted successfully")
}

func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorResponse(c, http.StatusBadRequest, "Invalid todo ID")
		return 0, false
	}
	return id, true
}

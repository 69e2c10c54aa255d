package fakeapi

import (
	"errors"
	"sort"
	"strings"

	"todo_client/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	errUserExists      = errors.New("Username or email already exists")
	errBadCredentials  = errors.New("Invalid username or password")
	errUserNotFound    = errors.New("User not found")
	errTodoNotFound    = errors.New("Todo not found")
	errWrongPassword   = errors.New("Current password is incorrect")
	errEmptyTask       = errors.New("Task cannot be empty")
	errNothingToUpdate = errors.New("No fields to update")
)

type account struct {
	user         domain.User
	passwordHash []byte
}

// All store methods are called with Server.mu held.

func (s *Server) createUser(req registerRequest) (domain.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	for _, acc := range s.users {
		if acc.user.Username == username || strings.EqualFold(acc.user.Email, email) {
			return domain.User{}, errUserExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return domain.User{}, err
	}

	s.nextUserID++
	now := s.now()
	acc := &account{
		user: domain.User{
			ID:        s.nextUserID,
			Username:  username,
			Email:     email,
			Name:      strings.TrimSpace(req.Name),
			CreatedAt: now,
			UpdatedAt: now,
		},
		passwordHash: hash,
	}
	s.users[acc.user.ID] = acc
	return acc.user, nil
}

// authenticate accepts either the username or the email as identifier.
func (s *Server) authenticate(identifier, password string) (domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	for _, acc := range s.users {
		if acc.user.Username != identifier && !strings.EqualFold(acc.user.Email, identifier) {
			continue
		}
		if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
			return domain.User{}, errBadCredentials
		}
		return acc.user, nil
	}
	return domain.User{}, errBadCredentials
}

func (s *Server) profile(userID int64) (domain.User, error) {
	acc, ok := s.users[userID]
	if !ok {
		return domain.User{}, errUserNotFound
	}
	u := acc.user
	for _, t := range s.todos {
		if t.UserID == userID {
			u.TodoCount++
		}
	}
	return u, nil
}

func (s *Server) updateProfile(userID int64, patch domain.ProfilePatch) (domain.User, error) {
	acc, ok := s.users[userID]
	if !ok {
		return domain.User{}, errUserNotFound
	}
	if patch.Name == nil && patch.Bio == nil {
		return domain.User{}, errNothingToUpdate
	}
	if patch.Name != nil {
		acc.user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Bio != nil {
		acc.user.Bio = *patch.Bio
	}
	acc.user.UpdatedAt = s.now()
	return s.profile(userID)
}

func (s *Server) changePassword(userID int64, current, next string) error {
	acc, ok := s.users[userID]
	if !ok {
		return errUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(current)); err != nil {
		return errWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return err
	}
	acc.passwordHash = hash
	acc.user.UpdatedAt = s.now()
	return nil
}

func (s *Server) deleteUser(userID int64) error {
	if _, ok := s.users[userID]; !ok {
		return errUserNotFound
	}
	delete(s.users, userID)
	for id, t := range s.todos {
		if t.UserID == userID {
			delete(s.todos, id)
		}
	}
	for token, owner := range s.sessions {
		if owner == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}

// listTodos returns the user's items newest first.
func (s *Server) listTodos(userID int64) []domain.Todo {
	out := make([]domain.Todo, 0)
	for _, t := range s.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Server) todo(userID, id int64) (domain.Todo, error) {
	t, ok := s.todos[id]
	if !ok || t.UserID != userID {
		return domain.Todo{}, errTodoNotFound
	}
	return t, nil
}

func (s *Server) createTodo(userID int64, task string) (domain.Todo, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return domain.Todo{}, errEmptyTask
	}
	s.nextTodoID++
	t := domain.Todo{ID: s.nextTodoID, Task: task, UserID: userID, CreatedAt: s.now()}
	s.todos[t.ID] = t
	return t, nil
}

func (s *Server) updateTodo(userID, id int64, patch domain.TodoPatch) (domain.Todo, error) {
	t, err := s.todo(userID, id)
	if err != nil {
		return domain.Todo{}, err
	}
	if patch.IsEmpty() {
		return domain.Todo{}, errNothingToUpdate
	}
	if patch.Task != nil {
		task := strings.TrimSpace(*patch.Task)
		if task == "" {
			return domain.Todo{}, errEmptyTask
		}
		t.Task = task
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		t.DueDate = &due
	}
	s.todos[id] = t
	return t, nil
}

func (s *Server) toggleTodo(userID, id int64) (domain.Todo, error) {
	t, err := s.todo(userID, id)
	if err != nil {
		return domain.Todo{}, err
	}
	t.Status = !t.Status
	s.todos[id] = t
	return t, nil
}

func (s *Server) deleteTodo(userID, id int64) error {
	if _, err := s.todo(userID, id); err != nil {
		return err
	}
	delete(s.todos, id)
	return nil
}

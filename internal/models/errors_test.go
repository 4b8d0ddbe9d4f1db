package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("Post", 1), http.StatusNotFound},
		{"invalid state", NewInvalidStateError("gone"), http.StatusBadRequest},
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"conflict", NewConflictError("dup"), http.StatusConflict},
		{"unauthorized", NewUnauthorizedError("no"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("no"), http.StatusForbidden},
		{"persistence", NewPersistenceError("save", errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NewNotFoundError("User", 2)), http.StatusNotFound},
		{"override", &AppError{Code: CodeInvalidState, Message: "far", Status: http.StatusForbidden}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewInvalidStateError("item no longer available"))
	assert.True(t, IsCode(err, CodeInvalidState))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("x"), CodeNotFound))
}

func TestUserDisplayLabel(t *testing.T) {
	assert.Equal(t, "alice", (&User{Username: "alice"}).DisplayLabel())
	assert.Equal(t, "Alice A.", (&User{Username: "alice", DisplayName: "Alice A."}).DisplayLabel())
	var nilUser *User
	assert.Equal(t, "", nilUser.DisplayLabel())
}

func TestCategoryValid(t *testing.T) {
	for _, c := range []Category{CategoryLeftovers, CategoryNew, CategoryRestaurant, CategoryHomeMade} {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("furniture").Valid())
	assert.False(t, Category("").Valid())
}

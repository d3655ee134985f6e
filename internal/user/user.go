// Package user defines the read surface of the user-management collaborator.
// Account lifecycle, authentication and sessions live outside this service;
// the pipeline only consumes preference lists.
package user

import (
	"context"
	"fmt"
	"strings"
)

// User is a dashboard user with an ordered list of preferred topics
// (subreddit names).
type User struct {
	ID          string   `json:"id" db:"id"`
	Username    string   `json:"username" db:"username"`
	Preferences []string `json:"preferences" db:"-"`
}

// Directory exposes users and their preferences to the pipeline.
type Directory interface {
	AllUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (*User, error)
}

// ValidatePreferences rejects malformed preference input at the API
// boundary. A valid list is non-nil and holds non-blank topic names.
func ValidatePreferences(prefs []string) error {
	if prefs == nil {
		return fmt.Errorf("preferences must be a list")
	}
	for _, p := range prefs {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("preference topics must not be blank")
		}
	}
	return nil
}

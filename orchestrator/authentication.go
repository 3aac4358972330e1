package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cosmian/scs/transport"
)

// Authentication is the client for the orchestrator's session API.
type Authentication struct {
	ctx *transport.Context
}

// User is the account representation returned on login.
type User struct {
	UUID         string   `json:"uuid"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	CreatedAt    string   `json:"created_at"`
	Computations []string `json:"computations"`
	Approvals    []string `json:"approvals"`
	Permissions  []string `json:"permissions"`
	IsAdmin      bool     `json:"is_admin"`
}

// Login authenticates against the orchestrator. The password is hashed
// client-side; the server never sees it in clear.
func (a *Authentication) Login(email, password string) (*User, error) {
	sum := sha256.Sum256([]byte(password))
	body := map[string]string{
		"email":    email,
		"password": hex.EncodeToString(sum[:]),
	}
	var user User
	if err := a.ctx.Post("/auth/login", body, nil, &user, "Login:: authentication failed"); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout terminates the current session.
func (a *Authentication) Logout() error {
	return a.ctx.Post("/auth/logout", map[string]string{}, nil, nil, "Logout:: failed")
}

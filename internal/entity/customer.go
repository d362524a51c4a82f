package domain

import (
	"errors"
	"strings"
)

// Customer is a clientes row.
type Customer struct {
	ID           int64
	Nombre       string
	Telefono     string
	Email        string
	Direccion    string
	PasswordHash string
}

// Identity is what a session keeps about the logged-in customer.
type Identity struct {
	ID       int64  `json:"id"`
	Nombre   string `json:"nombre"`
	Telefono string `json:"telefono"`
}

func (c *Customer) Identity() *Identity {
	return &Identity{ID: c.ID, Nombre: c.Nombre, Telefono: c.Telefono}
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var (
	ErrMissingField    = errors.New("missing required field")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// Registration is the input of the sign-up form.
type Registration struct {
	Nombre    string
	Telefono  string
	Email     string
	Direccion string
	Password  string
}

// Normalize trims surrounding whitespace from every field except the password.
func (r *Registration) Normalize() {
	r.Nombre = strings.TrimSpace(r.Nombre)
	r.Telefono = strings.TrimSpace(r.Telefono)
	r.Email = strings.TrimSpace(r.Email)
	r.Direccion = strings.TrimSpace(r.Direccion)
}

func (r Registration) Validate() error {
	if r.Nombre == "" || r.Telefono == "" || r.Password == "" {
		return ErrMissingField
	}
	if len(r.Password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Package credentials pairs a portal username with a password kept in an
// external secret store.
package credentials

import (
	"errors"
	"fmt"
)

var ErrNoPassword = errors.New("no password stored for user")

// Store is a secret store scoped to a single service.
type Store interface {
	// Get fails with ErrNoPassword when nothing is stored for account.
	Get(account string) (string, error)
	Set(account, password string) error
	Delete(account string) error
	Exists(account string) (bool, error)
}

// Credential is a username whose password lives in a Store. The password is
// never cached, every call goes to the store.
type Credential struct {
	username string
	store    Store
}

func New(username string, store Store) (Credential, error) {
	if username == "" {
		return Credential{}, fmt.Errorf("username must not be empty")
	}
	if store == nil {
		return Credential{}, fmt.Errorf("credential store must not be nil")
	}
	return Credential{username: username, store: store}, nil
}

func (c Credential) Username() string {
	return c.username
}

// HasPassword reports false both when nothing is stored and when the store
// cannot be read.
func (c Credential) HasPassword() bool {
	exists, err := c.store.Exists(c.username)
	return err == nil && exists
}

func (c Credential) Password() (string, error) {
	return c.store.Get(c.username)
}

func (c Credential) SetPassword(password string) error {
	return c.store.Set(c.username, password)
}

func (c Credential) DeletePassword() error {
	return c.store.Delete(c.username)
}

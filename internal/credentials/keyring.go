package credentials

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service every password is stored under.
const DefaultService = "teepee-scraper"

// KeyringStore keeps passwords in the operating system's keyring.
type KeyringStore struct {
	Service string
}

func NewKeyringStore() KeyringStore {
	return KeyringStore{Service: DefaultService}
}

func (s KeyringStore) Get(account string) (string, error) {
	password, err := keyring.Get(s.Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoPassword
	}
	return password, err
}

func (s KeyringStore) Set(account, password string) error {
	return keyring.Set(s.Service, account, password)
}

// Delete succeeds when there was nothing to delete.
func (s KeyringStore) Delete(account string) error {
	err := keyring.Delete(s.Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func (s KeyringStore) Exists(account string) (bool, error) {
	_, err := keyring.Get(s.Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

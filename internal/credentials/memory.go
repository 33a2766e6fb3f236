package credentials

import "sync"

// MemoryStore keeps passwords for the lifetime of the process.
type MemoryStore struct {
	mutex     sync.Mutex
	passwords map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{passwords: map[string]string{}}
}

func (s *MemoryStore) Get(account string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	password, ok := s.passwords[account]
	if !ok {
		return "", ErrNoPassword
	}
	return password, nil
}

func (s *MemoryStore) Set(account, password string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.passwords[account] = password
	return nil
}

func (s *MemoryStore) Delete(account string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.passwords, account)
	return nil
}

func (s *MemoryStore) Exists(account string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, ok := s.passwords[account]
	return ok, nil
}

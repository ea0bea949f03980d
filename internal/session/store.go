package session

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Session is the credential the client holds between runs.
type Session struct {
	Token    string `yaml:"token"`
	Username string `yaml:"user,omitempty"`
}

// Store holds at most one session. It is written at login, signup, logout and
// whenever the backend rejects the token.
type Store interface {
	Set(token, username string) error
	Get() (Session, bool)
	Clear() error
}

const (
	DirName  = ".indicompute"
	FileName = "session.yaml"
)

// DefaultPath returns ~/.indicompute/session.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName, FileName), nil
}

// FileStore keeps the session in a YAML file readable only by the owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Set(token, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating session directory")
	}

	// Write to a temp file first so a crash never leaves a truncated token.
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.Wrap(err, "opening session file")
	}
	if err := yaml.NewEncoder(f).Encode(Session{Token: token, Username: username}); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "encoding session")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "writing session file")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "saving session file")
}

// Get reports the stored session. A missing or unreadable file is no session.
func (s *FileStore) Get() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return Session{}, false
	}
	defer f.Close()

	var sess Session
	if err := yaml.NewDecoder(f).Decode(&sess); err != nil {
		return Session{}, false
	}
	if sess.Token == "" {
		return Session{}, false
	}
	return sess, true
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	sess Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Set(token, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = Session{Token: token, Username: username}
	return nil
}

func (m *MemoryStore) Get() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess, m.sess.Token != ""
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = Session{}
	return nil
}

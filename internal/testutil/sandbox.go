// Package testutil holds small test-only helpers shared across the
// gateway's test suites.
package testutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox provides an isolated temporary directory for tests.
type Sandbox struct {
	Root string
}

// NewSandbox creates a new Sandbox rooted at a temporary directory.
func NewSandbox() (*Sandbox, error) {
	dir, err := os.MkdirTemp("", "rpcgateway_sandbox")
	if err != nil {
		return nil, err
	}
	return &Sandbox{Root: dir}, nil
}

// Path returns the absolute path for a file within the sandbox.
func (s *Sandbox) Path(name string) string {
	return filepath.Join(s.Root, name)
}

// WriteFile writes data to the named file inside the sandbox using the
// provided permissions.
func (s *Sandbox) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(s.Path(name), data, perm)
}

// ReadFile reads and returns data from the named file inside the sandbox.
func (s *Sandbox) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(s.Path(name))
}

// Cleanup removes all files within the sandbox and deletes the root directory.
func (s *Sandbox) Cleanup() error {
	return os.RemoveAll(s.Root)
}

// WriteEnvFile writes a `.env` file inside the sandbox from a set of
// key-value pairs, in the `KEY=value` shape internal/config loads via
// godotenv.Load() when run from the current working directory. Used by
// config tests that need a local `.env` file on disk without reaching
// into the process's real environment.
func (s *Sandbox) WriteEnvFile(kv map[string]string) error {
	var b strings.Builder
	for k, v := range kv {
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}
	return s.WriteFile(".env", []byte(b.String()), 0o600)
}

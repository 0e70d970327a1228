package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// BankDir is the directory under the project root holding all
	// memory-bank state.
	BankDir = "memory-bank"
	// SessionFile is the filename for the persisted session record.
	SessionFile = "workflow.json"
	// TasksFile holds the tasks artifact.
	TasksFile = "tasks.md"
	// ActiveContextFile holds the activeContext artifact.
	ActiveContextFile = "activeContext.md"
	// ProgressFile holds the progress artifact.
	ProgressFile = "progress.md"
)

// Store defines the persistence interface for session state.
// Abstracted for testability (DIP).
type Store interface {
	Load(projectRoot string) (*SessionState, error)
	Save(projectRoot string, s *SessionState) error
}

// FileStore implements Store using the local filesystem: the session
// record lives in memory-bank/workflow.json and the three canonical
// artifacts live alongside it as markdown files.
type FileStore struct{}

// NewFileStore creates a filesystem-backed session store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// BankPath returns the absolute path to the memory-bank/ directory.
func BankPath(projectRoot string) string {
	return filepath.Join(projectRoot, BankDir)
}

// SessionPath returns the absolute path to workflow.json.
func SessionPath(projectRoot string) string {
	return filepath.Join(BankPath(projectRoot), SessionFile)
}

// ArtifactPath returns the absolute path of a canonical artifact file.
func ArtifactPath(projectRoot, filename string) string {
	return filepath.Join(BankPath(projectRoot), filename)
}

// Load reads the session from disk. A missing workflow.json is not an
// error — it yields a fresh session at Init, so the first command works
// without a separate setup step.
func (fs *FileStore) Load(projectRoot string) (*SessionState, error) {
	data, err := os.ReadFile(SessionPath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return NewSessionState(), nil
		}
		return nil, fmt.Errorf("reading session record: %w", err)
	}

	var s SessionState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", SessionFile, err)
	}

	if s.Artifacts.Tasks, err = readArtifact(ArtifactPath(projectRoot, TasksFile)); err != nil {
		return nil, err
	}
	if s.Artifacts.ActiveContext, err = readArtifact(ArtifactPath(projectRoot, ActiveContextFile)); err != nil {
		return nil, err
	}
	if s.Artifacts.Progress, err = readArtifact(ArtifactPath(projectRoot, ProgressFile)); err != nil {
		return nil, err
	}

	return &s, nil
}

// Save writes the session record and all three artifact files.
func (fs *FileStore) Save(projectRoot string, s *SessionState) error {
	dir := BankPath(projectRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating memory-bank directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session record: %w", err)
	}
	if err := os.WriteFile(SessionPath(projectRoot), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", SessionFile, err)
	}

	artifacts := map[string]string{
		TasksFile:         s.Artifacts.Tasks,
		ActiveContextFile: s.Artifacts.ActiveContext,
		ProgressFile:      s.Artifacts.Progress,
	}
	for name, content := range artifacts {
		if err := os.WriteFile(ArtifactPath(projectRoot, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// readArtifact reads an artifact file, treating a missing file as empty.
func readArtifact(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// FindProjectRoot walks up from the current working directory looking for
// memory-bank/workflow.json. If none is found, returns cwd — the first
// run will create the memory-bank there.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, BankDir, SessionFile)); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}

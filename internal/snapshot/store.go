// Package snapshot persists fetched pledges and projects as flat JSON documents
// that decouple fetching from syncing.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/donor-sync/internal/common"
	"github.com/Veraticus/donor-sync/internal/model"
)

const (
	dirPerm  = 0700
	filePerm = 0600 // owner only, snapshots hold donor personal data
)

// Store reads and writes the pledges and projects snapshots.
type Store struct {
	logger       *slog.Logger
	PledgesPath  string
	ProjectsPath string
}

// PledgesDocument is the on-disk shape of the pledges snapshot.
type PledgesDocument struct {
	Pledges []model.Pledge `json:"pledges"`
}

// ProjectsDocument is the on-disk shape of the projects snapshot.
type ProjectsDocument struct {
	Projects []model.Project `json:"projects"`
}

// NewStore creates a store for the two snapshot paths.
func NewStore(pledgesPath, projectsPath string) *Store {
	return &Store{
		PledgesPath:  pledgesPath,
		ProjectsPath: projectsPath,
		logger:       slog.Default().With("component", "snapshot"),
	}
}

// SavePledges writes the pledges snapshot.
func (s *Store) SavePledges(pledges []model.Pledge) error {
	if pledges == nil {
		pledges = []model.Pledge{}
	}
	return s.write(s.PledgesPath, PledgesDocument{Pledges: pledges})
}

// SaveProjects writes the projects snapshot.
func (s *Store) SaveProjects(projects []model.Project) error {
	if projects == nil {
		projects = []model.Project{}
	}
	return s.write(s.ProjectsPath, ProjectsDocument{Projects: projects})
}

// LoadPledges reads the pledges snapshot.
func (s *Store) LoadPledges() ([]model.Pledge, error) {
	var doc PledgesDocument
	if err := s.read(s.PledgesPath, &doc); err != nil {
		return nil, err
	}
	return doc.Pledges, nil
}

// LoadProjects reads the projects snapshot.
func (s *Store) LoadProjects() ([]model.Project, error) {
	var doc ProjectsDocument
	if err := s.read(s.ProjectsPath, &doc); err != nil {
		return nil, err
	}
	return doc.Projects, nil
}

func (s *Store) write(path string, doc any) error {
	if path == "" {
		return fmt.Errorf("snapshot path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// Temp file plus rename: readers see the old or the new snapshot, never a partial one.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	s.logger.Info("Snapshot saved", "path", path, "bytes", buf.Len())
	return nil
}

func (s *Store) read(path string, doc any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", common.ErrSnapshotUnavailable, path)
		}
		return fmt.Errorf("%w: %v", common.ErrSnapshotUnavailable, err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("%w: %s is malformed: %v", common.ErrSnapshotUnavailable, path, err)
	}
	return nil
}

// ProjectTitles maps project ids to their canonical (Czech) titles. Projects
// without a Czech title are left out.
func ProjectTitles(projects []model.Project) map[string]string {
	titles := make(map[string]string, len(projects))
	for _, p := range projects {
		if title := p.CanonicalTitle(); title != "" {
			titles[p.ProjectID.String()] = title
		}
	}
	return titles
}

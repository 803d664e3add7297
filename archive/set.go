package archive

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// DuplicateArchiveError is returned when two archives share a name.
type DuplicateArchiveError struct {
	Name string
}

func (e DuplicateArchiveError) Error() string {
	return "duplicate archive name: " + e.Name
}

// archiveSet routes requests by archive name.
//
// Thread-safety: All methods are safe for concurrent use.
type archiveSet struct {
	mu       sync.RWMutex
	archives map[string]Archive
	order    []string
}

func newArchiveSet(archives []Archive) (*archiveSet, error) {
	s := &archiveSet{archives: make(map[string]Archive, len(archives))}
	for i, a := range archives {
		if a == nil {
			return nil, errors.Newf("archive %d is nil", i)
		}
		if err := s.add(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *archiveSet) add(a Archive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := a.Name()
	if _, exists := s.archives[name]; exists {
		return DuplicateArchiveError{Name: name}
	}
	s.archives[name] = a
	s.order = append(s.order, name)
	return nil
}

func (s *archiveSet) remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.archives[name]; !exists {
		return errors.Wrapf(ErrArchiveNotFound, "%q", name)
	}
	delete(s.archives, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// lookup resolves a name; an empty name selects the first archive.
func (s *archiveSet) lookup(name string) (Archive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "" && len(s.order) > 0 {
		name = s.order[0]
	}
	a, ok := s.archives[name]
	if !ok {
		return nil, errors.Wrapf(ErrArchiveNotFound, "%q", name)
	}
	return a, nil
}

func (s *archiveSet) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

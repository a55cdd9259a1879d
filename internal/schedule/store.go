package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/festplan/internal/models"
	"github.com/google/uuid"
)

// Store is the in-memory film collection. It keeps insertion order and
// never reuses an id.
type Store struct {
	mu       sync.RWMutex
	films    []*models.Film
	used     map[models.FilmID]struct{}
	onChange func([]*models.Film)
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		used: make(map[models.FilmID]struct{}),
	}
}

// OnChange registers a hook that receives a snapshot after every committed
// mutation
func (s *Store) OnChange(fn func([]*models.Film)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// notify must be called with the write lock held
func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange(models.CloneFilms(s.films))
	}
}

func (s *Store) indexOf(id models.FilmID) int {
	for i, f := range s.films {
		if f.ID.Equal(id) {
			return i
		}
	}
	return -1
}

// Add inserts a copy of film, minting an id when it has none, and returns
// the stored copy
func (s *Store) Add(film *models.Film) (*models.Film, error) {
	if err := film.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := film.Clone()
	if f.ID == "" {
		f.ID = s.mintID()
	}
	if _, taken := s.used[f.ID]; taken {
		return nil, fmt.Errorf("%w: film id %s already used", models.ErrValidation, f.ID)
	}
	s.used[f.ID] = struct{}{}
	s.films = append(s.films, f)
	s.notify()
	return f.Clone(), nil
}

func (s *Store) mintID() models.FilmID {
	for {
		id := models.FilmID(uuid.NewString())
		if _, taken := s.used[id]; !taken {
			return id
		}
	}
}

// Remove deletes a film and returns the removed copy
func (s *Store) Remove(id models.FilmID) (*models.Film, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("film %s: %w", id, models.ErrNotFound)
	}
	removed := s.films[i]
	s.films = append(s.films[:i], s.films[i+1:]...)
	s.notify()
	return removed, nil
}

// Update applies mutator to a working copy and commits it only when the
// result is still a valid film. The id cannot be changed.
func (s *Store) Update(id models.FilmID, mutator func(*models.Film) error) (*models.Film, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("film %s: %w", id, models.ErrNotFound)
	}

	working := s.films[i].Clone()
	if err := mutator(working); err != nil {
		return nil, err
	}
	working.ID = s.films[i].ID
	if err := working.Validate(); err != nil {
		return nil, err
	}

	s.films[i] = working
	s.notify()
	return working.Clone(), nil
}

// Find returns a copy of the film with the given id
func (s *Store) Find(id models.FilmID) (*models.Film, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.films[i].Clone(), true
}

// All returns copies of every film in insertion order
func (s *Store) All() []*models.Film {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneFilms(s.films)
}

// Len returns the number of films
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.films)
}

// FavoritesUnscheduled returns favorited films without a time
func (s *Store) FavoritesUnscheduled() []*models.Film {
	return s.filter(func(f *models.Film) bool {
		return f.Favorited && !f.IsScheduled()
	})
}

// OnDay returns scheduled films starting on the festival calendar day of date
func (s *Store) OnDay(date time.Time) []*models.Film {
	return s.filter(func(f *models.Film) bool {
		return f.IsScheduled() && models.SameLocalDay(*f.StartTime, date)
	})
}

func (s *Store) filter(keep func(*models.Film) bool) []*models.Film {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Film{}
	for _, f := range s.films {
		if keep(f) {
			out = append(out, f.Clone())
		}
	}
	return out
}

// Replace swaps the whole collection, used when loading persisted or remote
// films. Films without an id get one; duplicates and invalid films are
// rejected before anything changes.
func (s *Store) Replace(films []*models.Film) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*models.Film, 0, len(films))
	seen := make(map[models.FilmID]struct{}, len(films))
	for _, film := range films {
		if err := film.Validate(); err != nil {
			return err
		}
		f := film.Clone()
		if f.ID == "" {
			f.ID = s.mintID()
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("%w: duplicate film id %s", models.ErrValidation, f.ID)
		}
		seen[f.ID] = struct{}{}
		next = append(next, f)
	}

	for id := range seen {
		s.used[id] = struct{}{}
	}
	s.films = next
	s.notify()
	return nil
}

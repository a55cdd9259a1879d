package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/amaumene/festplan/internal/models"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 1, day, hour, minute, 0, 0, models.FestivalZone).UTC()
}

func scheduled(id, title string, start, end time.Time) *models.Film {
	f := &models.Film{ID: models.FilmID(id), Title: title}
	f.SetSchedule(start, end)
	return f
}

func checkPairs(t *testing.T, s *Store) {
	t.Helper()
	for _, f := range s.All() {
		if (f.StartTime == nil) != (f.EndTime == nil) {
			t.Fatalf("Film %s broke the scheduled pair invariant", f.ID)
		}
	}
}

func TestStoreAddMintsUniqueIDs(t *testing.T) {
	s := NewStore()

	a, err := s.Add(&models.Film{Title: "A"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	b, err := s.Add(&models.Film{Title: "B"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("Expected distinct minted ids, got %q and %q", a.ID, b.ID)
	}

	if _, err := s.Remove(a.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	_, err = s.Add(&models.Film{ID: a.ID, Title: "A again"})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected a removed id to stay used, got %v", err)
	}
}

func TestStoreAddRejectsInvalid(t *testing.T) {
	s := NewStore()
	start := at(31, 19, 45)
	_, err := s.Add(&models.Film{Title: "Half", StartTime: &start})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d films", s.Len())
	}
}

func TestStoreFindComparesByString(t *testing.T) {
	s := NewStore()
	if _, err := s.Add(&models.Film{ID: models.FilmIDFromInt(1706720000000), Title: "Legacy"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	f, ok := s.Find("1706720000000")
	if !ok || f.Title != "Legacy" {
		t.Fatalf("Expected to find legacy film, got %v %v", f, ok)
	}
}

func TestStoreUpdateRollsBackInvalid(t *testing.T) {
	s := NewStore()
	added, err := s.Add(scheduled("f1", "Film", at(31, 19, 45), at(31, 21, 57)))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_, err = s.Update(added.ID, func(f *models.Film) error {
		f.EndTime = nil
		return nil
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	checkPairs(t, s)

	f, _ := s.Find(added.ID)
	if !f.IsScheduled() {
		t.Error("Expected film to stay scheduled after a rejected update")
	}

	updated, err := s.Update(added.ID, func(f *models.Film) error {
		f.ClearSchedule()
		f.ID = "other"
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ID != added.ID || updated.IsScheduled() {
		t.Errorf("Unexpected update result: %+v", updated)
	}
	checkPairs(t, s)
}

func TestStoreUpdateMutatorError(t *testing.T) {
	s := NewStore()
	added, _ := s.Add(&models.Film{Title: "Film"})
	boom := errors.New("boom")
	if _, err := s.Update(added.ID, func(f *models.Film) error {
		f.Title = "changed"
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Expected mutator error, got %v", err)
	}
	f, _ := s.Find(added.ID)
	if f.Title != "Film" {
		t.Errorf("Expected unchanged title, got %q", f.Title)
	}
}

func TestStoreUpdateMissing(t *testing.T) {
	s := NewStore()
	_, err := s.Update("missing", func(*models.Film) error { return nil })
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Expected not found, got %v", err)
	}
}

func TestStoreQueries(t *testing.T) {
	s := NewStore()
	s.Add(scheduled("a", "A", at(31, 10, 0), at(31, 12, 0)))
	s.Add(&models.Film{ID: "b", Title: "B", Favorited: true})
	s.Add(scheduled("c", "C", at(30, 23, 30), at(31, 1, 0)))
	s.Add(&models.Film{ID: "d", Title: "D"})

	favorites := s.FavoritesUnscheduled()
	if len(favorites) != 1 || favorites[0].ID != "b" {
		t.Errorf("Unexpected favorites: %v", favorites)
	}

	// 23:30 local on the 30th is 22:30 UTC, still the 30th locally
	onDay := s.OnDay(at(31, 0, 0))
	if len(onDay) != 1 || onDay[0].ID != "a" {
		t.Errorf("Unexpected films on the 31st: %v", onDay)
	}
	if got := s.OnDay(at(30, 12, 0)); len(got) != 1 || got[0].ID != "c" {
		t.Errorf("Unexpected films on the 30th: %v", got)
	}
}

func TestStoreOnChangeReceivesSnapshot(t *testing.T) {
	s := NewStore()
	var snapshots [][]*models.Film
	s.OnChange(func(films []*models.Film) {
		snapshots = append(snapshots, films)
	})

	added, _ := s.Add(&models.Film{Title: "A"})
	s.Update(added.ID, func(f *models.Film) error {
		f.Favorited = true
		return nil
	})
	s.Update(added.ID, func(f *models.Film) error {
		f.Title = ""
		return nil
	})
	s.Remove(added.ID)

	if len(snapshots) != 3 {
		t.Fatalf("Expected 3 committed mutations, got %d", len(snapshots))
	}
	if snapshots[0][0].Favorited {
		t.Error("Snapshot was modified by a later mutation")
	}
	if len(snapshots[2]) != 0 {
		t.Errorf("Expected empty snapshot after remove, got %d films", len(snapshots[2]))
	}
}

func TestStoreReplace(t *testing.T) {
	s := NewStore()
	err := s.Replace([]*models.Film{{ID: "x", Title: "X"}, {ID: "x", Title: "Y"}})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Expected duplicate id error, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Expected rejected replace to change nothing, got %d films", s.Len())
	}

	if err := s.Replace([]*models.Film{{ID: "x", Title: "X"}, {Title: "No id"}}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	all := s.All()
	if len(all) != 2 || all[0].ID != "x" || all[1].ID == "" {
		t.Errorf("Unexpected films after replace: %+v", all)
	}
	if _, err := s.Add(&models.Film{ID: "x", Title: "again"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected loaded id to count as used, got %v", err)
	}
}

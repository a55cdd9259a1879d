package share

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amaumene/festplan/internal/models"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var (
	sharesSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "festplan",
		Subsystem: "share",
		Name:      "saved_total",
		Help:      "Shared schedules written, by whether the share was new.",
	}, []string{"kind"})

	shareLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "festplan",
		Subsystem: "share",
		Name:      "lookups_total",
		Help:      "Shared schedule lookups, by outcome.",
	}, []string{"outcome"})
)

// Backend is a keyed store of shared schedules. Load returns an error
// wrapping models.ErrNotFound for unknown ids.
type Backend interface {
	Load(ctx context.Context, id string) (*models.SharedSchedule, error)
	Save(ctx context.Context, schedule *models.SharedSchedule) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// Service publishes schedules under stable share tokens
type Service struct {
	mu      sync.Mutex
	backend Backend
	logger  *logrus.Logger
	now     func() time.Time
}

// NewService creates a share service on top of a backend
func NewService(backend Backend, logger *logrus.Logger) *Service {
	return &Service{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

// NewToken mints an opaque share token
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Put stores schedule under shareID. An empty id mints a new token; an
// existing id is overwritten in place, keeping its creation time.
func (s *Service) Put(ctx context.Context, shareID string, schedule *models.SharedSchedule) (*models.SharedSchedule, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	shareID = strings.TrimSpace(shareID)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	stored := &models.SharedSchedule{
		ID:        shareID,
		OwnerName: schedule.OwnerName,
		Films:     models.CloneFilms(schedule.Films),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if stored.Films == nil {
		stored.Films = []*models.Film{}
	}

	kind := "created"
	if stored.ID == "" {
		stored.ID = NewToken()
	} else {
		existing, err := s.backend.Load(ctx, stored.ID)
		switch {
		case err == nil:
			stored.CreatedAt = existing.CreatedAt
			kind = "updated"
		case errors.Is(err, models.ErrNotFound):
		default:
			return nil, fmt.Errorf("%w: failed to load share %s: %v", models.ErrRemoteSync, stored.ID, err)
		}
	}

	if err := s.backend.Save(ctx, stored); err != nil {
		return nil, fmt.Errorf("%w: failed to save share %s: %v", models.ErrRemoteSync, stored.ID, err)
	}
	sharesSaved.WithLabelValues(kind).Inc()

	s.logger.WithFields(logrus.Fields{
		"share": stored.ID,
		"owner": stored.OwnerName,
		"films": len(stored.Films),
		"kind":  kind,
	}).Info("Saved shared schedule")

	return stored, nil
}

// Get returns the latest version of a shared schedule as other people see
// it
func (s *Service) Get(ctx context.Context, shareID string) (*models.SharedSchedule, error) {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		return nil, fmt.Errorf("%w: share id is required", models.ErrValidation)
	}

	schedule, err := s.backend.Load(ctx, shareID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			shareLookups.WithLabelValues("missing").Inc()
			return nil, err
		}
		shareLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: failed to load share %s: %v", models.ErrRemoteSync, shareID, err)
	}
	shareLookups.WithLabelValues("found").Inc()
	if schedule.ID == "" {
		schedule.ID = shareID
	}
	// Shares uploaded by clients may still carry what blocked time is for
	for i, f := range schedule.Films {
		if f != nil {
			schedule.Films[i] = f.Public()
		}
	}
	return schedule, nil
}

// Count returns the number of stored shares
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.backend.Count(ctx)
}

// Close releases the backend
func (s *Service) Close() error {
	return s.backend.Close()
}

package controllers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/share"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var remoteSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "festplan",
	Subsystem: "sync",
	Name:      "operations_total",
	Help:      "Background remote sync operations, by operation and outcome.",
}, []string{"operation", "outcome"})

// SyncStatus tracks the outcome of background remote syncs
type SyncStatus struct {
	mu            sync.Mutex
	lastOperation string
	lastError     string
	lastErrorAt   time.Time
	lastSuccessAt time.Time
	failures      int
}

// SyncSnapshot is a point-in-time copy of SyncStatus
type SyncSnapshot struct {
	LastOperation string    `json:"lastOperation,omitempty"`
	LastError     string    `json:"lastError,omitempty"`
	LastErrorAt   time.Time `json:"lastErrorAt,omitempty"`
	LastSuccessAt time.Time `json:"lastSuccessAt,omitempty"`
	Failures      int       `json:"failures"`
	Healthy       bool      `json:"healthy"`
}

func (s *SyncStatus) recordSuccess(operation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOperation = operation
	s.lastSuccessAt = time.Now()
	remoteSyncs.WithLabelValues(operation, "ok").Inc()
}

func (s *SyncStatus) recordFailure(operation string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOperation = operation
	s.lastError = err.Error()
	s.lastErrorAt = time.Now()
	s.failures++
	remoteSyncs.WithLabelValues(operation, "error").Inc()
}

// Snapshot copies the current status. The mirror is healthy when the last
// failure is older than the last success.
func (s *SyncStatus) Snapshot() SyncSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SyncSnapshot{
		LastOperation: s.lastOperation,
		LastError:     s.lastError,
		LastErrorAt:   s.lastErrorAt,
		LastSuccessAt: s.lastSuccessAt,
		Failures:      s.failures,
		Healthy:       s.lastErrorAt.IsZero() || s.lastSuccessAt.After(s.lastErrorAt),
	}
}

func (p *Planner) publicSchedule(owner string) *models.SharedSchedule {
	films := p.store.All()
	public := make([]*models.Film, len(films))
	for i, f := range films {
		public[i] = f.Public()
		public[i].NotionPageID = ""
	}
	return &models.SharedSchedule{OwnerName: owner, Films: public}
}

// ShareLinks are the two ways to share the schedule
type ShareLinks struct {
	ShareID    string `json:"shareId"`
	DynamicURL string `json:"url"`
	StaticURL  string `json:"staticUrl"`
	Warning    string `json:"warning,omitempty"`
}

// Share publishes the schedule under the own share id, minting it on first
// use, and builds the static snapshot link as well. A share store failure
// leaves only the static link.
func (p *Planner) Share(ctx context.Context) (*ShareLinks, error) {
	if err := p.checkWritable(); err != nil {
		return nil, err
	}
	prefs := p.Preferences()
	if prefs.DisplayName == "" {
		return nil, fmt.Errorf("%w: set a display name before sharing", models.ErrValidation)
	}

	snapshot := p.publicSchedule(prefs.DisplayName)
	encoded, err := share.EncodeCompact(snapshot)
	if err != nil {
		return nil, err
	}
	links := &ShareLinks{
		StaticURL: p.cfg.PublicURL + "/?share=" + encoded,
	}

	if p.shares == nil {
		links.Warning = "Share store is not available, use the static link instead"
		return links, nil
	}
	stored, err := p.publishLatest(ctx, prefs.MyShareID, prefs.DisplayName)
	if err != nil {
		// The static link still works without the share store
		p.logger.WithError(err).Warn("Failed to publish dynamic share")
		links.Warning = "Could not create short link, use the static link instead"
		return links, nil
	}

	if prefs.MyShareID != stored.ID {
		p.prefsMu.Lock()
		updated := *p.prefs
		updated.MyShareID = stored.ID
		if err := p.db.SavePreferences(&updated); err != nil {
			p.logger.WithError(err).Error("Failed to store share id")
		}
		p.prefs = &updated
		p.prefsMu.Unlock()

		// Changes made while the id was being minted were not published
		p.publishOwnShare()
	}

	links.ShareID = stored.ID
	links.DynamicURL = p.cfg.PublicURL + "/?shareId=" + stored.ID

	p.logger.WithFields(logrus.Fields{
		"share": stored.ID,
		"films": len(stored.Films),
	}).Info("Shared schedule")
	return links, nil
}

// TestRemote checks the remote credentials in effect
func (p *Planner) TestRemote(ctx context.Context) error {
	creds, ok := p.credentials()
	if !ok {
		return fmt.Errorf("%w: remote database is not configured", models.ErrValidation)
	}
	return p.remote.TestConnection(ctx, creds)
}

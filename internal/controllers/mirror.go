package controllers

import (
	"context"
	"time"

	"github.com/amaumene/festplan/internal/mapper"
	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/services/notion"
	"github.com/sirupsen/logrus"
)

// filmMirror holds the remote operations queued for one film. Only the
// goroutine draining it touches pageID.
type filmMirror struct {
	ops     []mirrorOp
	running bool
	pageID  string
}

type mirrorOp struct {
	operation string
	run       func(ctx context.Context, m *filmMirror) error
}

// runRemote runs one remote operation with the sync timeout and records
// its outcome
func (p *Planner) runRemote(operation string, fn func(ctx context.Context) error) {
	timeout := p.cfg.SyncTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		p.syncStatus.recordFailure(operation, err)
		p.logger.WithError(err).WithField("operation", operation).Warn("Remote sync failed")
		return
	}
	p.syncStatus.recordSuccess(operation)
}

// enqueueMirror queues op behind the operations already pending for the
// film. Operations of one film run one at a time in the order queued.
func (p *Planner) enqueueMirror(id models.FilmID, op mirrorOp) {
	p.mirrorMu.Lock()
	defer p.mirrorMu.Unlock()

	if p.mirrors == nil {
		p.mirrors = make(map[models.FilmID]*filmMirror)
	}
	m, ok := p.mirrors[id]
	if !ok {
		m = &filmMirror{}
		p.mirrors[id] = m
	}
	m.ops = append(m.ops, op)
	if m.running {
		return
	}
	m.running = true
	p.background.Add(1)
	go p.drainMirror(id, m)
}

func (p *Planner) drainMirror(id models.FilmID, m *filmMirror) {
	defer p.background.Done()
	for {
		p.mirrorMu.Lock()
		if len(m.ops) == 0 {
			m.running = false
			delete(p.mirrors, id)
			p.mirrorMu.Unlock()
			return
		}
		op := m.ops[0]
		m.ops = m.ops[1:]
		p.mirrorMu.Unlock()

		p.runRemote(op.operation, func(ctx context.Context) error {
			return op.run(ctx, m)
		})
	}
}

// pageOf is the remote page of the film, falling back to a page created
// earlier in this queue whose id could not be stored yet
func pageOf(film *models.Film, m *filmMirror) string {
	if film.NotionPageID != "" {
		return film.NotionPageID
	}
	return m.pageID
}

// mirrorFilm writes the film as stored when the operation runs. Without a
// remote page one is created with every field; otherwise props are written,
// or every field when props is nil.
func (p *Planner) mirrorFilm(id models.FilmID, creds notion.Credentials, props map[string]notion.Property) func(ctx context.Context, m *filmMirror) error {
	return func(ctx context.Context, m *filmMirror) error {
		film, ok := p.store.Find(id)
		if !ok {
			// Removed before it was mirrored
			return nil
		}
		pageID := pageOf(film, m)
		if pageID == "" {
			return p.createRemote(ctx, creds, film, m)
		}
		if props == nil {
			var err error
			if props, err = mapper.FilmToProperties(film); err != nil {
				return err
			}
		}
		_, err := p.remote.UpdatePage(ctx, creds.APIKey, pageID, props)
		return err
	}
}

func (p *Planner) createRemote(ctx context.Context, creds notion.Credentials, film *models.Film, m *filmMirror) error {
	props, err := mapper.FilmToProperties(film)
	if err != nil {
		return err
	}
	page, err := p.remote.CreatePage(ctx, creds, props)
	if err != nil {
		return err
	}
	m.pageID = page.ID
	_, err = p.store.Update(film.ID, func(f *models.Film) error {
		f.NotionPageID = page.ID
		return nil
	})
	if err != nil {
		// The archive queued by the delete still finds the page
		p.logger.WithError(err).WithField("film", film.ID).Warn("Film vanished before its remote page id was stored")
	}
	return nil
}

// afterCreate mirrors a new film and remembers its remote page id
func (p *Planner) afterCreate(film *models.Film) {
	if creds, ok := p.credentials(); ok {
		p.enqueueMirror(film.ID, mirrorOp{operation: "create", run: p.mirrorFilm(film.ID, creds, nil)})
	}
	p.publishOwnShare()
}

// afterUpdate mirrors every field of a changed film
func (p *Planner) afterUpdate(film *models.Film) {
	if creds, ok := p.credentials(); ok {
		p.enqueueMirror(film.ID, mirrorOp{operation: "update", run: p.mirrorFilm(film.ID, creds, nil)})
	}
	p.publishOwnShare()
}

// afterStatus mirrors only the toggled checkbox
func (p *Planner) afterStatus(film *models.Film, props map[string]notion.Property) {
	if creds, ok := p.credentials(); ok && props != nil {
		p.enqueueMirror(film.ID, mirrorOp{operation: "status", run: p.mirrorFilm(film.ID, creds, props)})
	}
	p.publishOwnShare()
}

// afterDelete archives the remote copy
func (p *Planner) afterDelete(film *models.Film) {
	if creds, ok := p.credentials(); ok {
		p.enqueueMirror(film.ID, mirrorOp{operation: "archive", run: func(ctx context.Context, m *filmMirror) error {
			pageID := pageOf(film, m)
			if pageID == "" {
				return nil
			}
			return p.remote.ArchivePage(ctx, creds.APIKey, pageID)
		}})
	}
	p.publishOwnShare()
}

// publishOwnShare asks for the own dynamic share to be republished. A single
// publisher runs at a time; requests made while it writes fold into one more
// pass that reads the schedule afresh.
func (p *Planner) publishOwnShare() {
	if p.shares == nil {
		return
	}
	p.publishStateMu.Lock()
	defer p.publishStateMu.Unlock()

	p.publishPending = true
	if p.publishRunning {
		return
	}
	p.publishRunning = true
	p.background.Add(1)
	go p.runPublisher()
}

func (p *Planner) runPublisher() {
	defer p.background.Done()
	for {
		p.publishStateMu.Lock()
		if !p.publishPending {
			p.publishRunning = false
			p.publishStateMu.Unlock()
			return
		}
		p.publishPending = false
		p.publishStateMu.Unlock()

		prefs := p.Preferences()
		if prefs.MyShareID == "" || prefs.DisplayName == "" {
			continue
		}
		p.runRemote("share", func(ctx context.Context) error {
			_, err := p.publishLatest(ctx, prefs.MyShareID, prefs.DisplayName)
			return err
		})
	}
}

// publishLatest stores the schedule as it is now. The snapshot is taken and
// written under one lock so the last write always carries the newest state.
func (p *Planner) publishLatest(ctx context.Context, shareID, owner string) (*models.SharedSchedule, error) {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	stored, err := p.shares.Put(ctx, shareID, p.publicSchedule(owner))
	if err != nil {
		return nil, err
	}
	p.logger.WithFields(logrus.Fields{
		"share": stored.ID,
		"films": len(stored.Films),
	}).Debug("Published own share")
	return stored, nil
}

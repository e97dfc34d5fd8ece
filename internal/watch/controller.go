// Package watch drives the reader-facing view of protests: the merged
// event feed, report submission into the local journal, and the opinion
// wall backed by the remote service.
package watch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"protestwatch/api/internal/event"
	"protestwatch/api/internal/localstore"
	"protestwatch/api/internal/opinions"
	"protestwatch/api/internal/reconcile"
	"protestwatch/api/internal/search"
	"protestwatch/api/internal/signal"
)

// OpinionClient is the slice of the opinion service the views need.
type OpinionClient interface {
	List(ctx context.Context, eventID string) ([]opinions.Opinion, error)
	Add(ctx context.Context, eventID, comment string) (opinions.Opinion, error)
}

// Catalog supplies the static seed events.
type Catalog func() []event.Event

type Controller struct {
	journal *localstore.Journal
	catalog Catalog
	client  OpinionClient
	hub     signal.Hub
	search  *search.Service
	now     func() time.Time
}

func New(journal *localstore.Journal, catalog Catalog, client OpinionClient, hub signal.Hub, searchSvc *search.Service) *Controller {
	return &Controller{
		journal: journal,
		catalog: catalog,
		client:  client,
		hub:     hub,
		search:  searchSvc,
		now:     time.Now,
	}
}

// Events returns the reconciled view, local reports first, and refreshes
// the search index with it.
func (c *Controller) Events() []event.Event {
	view := reconcile.Merge(c.journal.ReadAll(), c.catalog())
	if c.search != nil {
		records := make([]search.EventRecord, 0, len(view))
		for _, e := range view {
			records = append(records, search.RecordFromEvent(e))
		}
		c.search.IndexEvents(records)
	}
	return view
}

// EventsByStatus narrows the reconciled view to one status. The filter
// matches the status as given; unknown values match nothing.
func (c *Controller) EventsByStatus(status string) []event.Event {
	return reconcile.FilterStatus(c.Events(), event.Status(status))
}

// StatusCounts tallies the reconciled view per status.
func (c *Controller) StatusCounts() map[event.Status]int {
	return reconcile.CountByStatus(c.Events())
}

// Search queries the event index, refreshing it first so locally filed
// reports are always findable.
func (c *Controller) Search(q search.Query) search.Response {
	c.Events()
	if c.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return c.search.Search(q)
}

// ReportInput mirrors the report form.
type ReportInput struct {
	Title           string
	Type            string
	County          string
	Location        string
	Date            string
	Time            string
	Description     string
	ReporterName    string
	ReporterContact string
	Image           string
}

var errReportIncomplete = errors.New("title, location, date and description are required")

// Report files a new local event. The journal write is the commit point:
// only after it succeeds do subscribers hear about the change.
func (c *Controller) Report(input ReportInput) (event.Event, error) {
	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Location) == "" ||
		strings.TrimSpace(input.Date) == "" ||
		strings.TrimSpace(input.Description) == "" {
		return event.Event{}, errReportIncomplete
	}

	e := event.Event{
		ID:              event.NewReportID(c.now()),
		Title:           strings.TrimSpace(input.Title),
		Type:            strings.TrimSpace(input.Type),
		County:          strings.TrimSpace(input.County),
		Location:        strings.TrimSpace(input.Location),
		Date:            strings.TrimSpace(input.Date),
		Time:            strings.TrimSpace(input.Time),
		Description:     strings.TrimSpace(input.Description),
		Status:          event.StatusReported,
		ReporterName:    strings.TrimSpace(input.ReporterName),
		ReporterContact: strings.TrimSpace(input.ReporterContact),
		Image:           strings.TrimSpace(input.Image),
	}

	if err := c.journal.Append(e); err != nil {
		c.alert(signal.AlertError, "Failed to save report")
		return event.Event{}, fmt.Errorf("file report: %w", err)
	}

	c.hub.PublishEventsChanged()
	c.alert(signal.AlertSuccess, "Event reported successfully!")
	return e, nil
}

// Opinions loads the remote opinion wall for an event, newest first. On
// failure the wall is empty and the caller still gets the error so the
// view can keep any draft text.
func (c *Controller) Opinions(ctx context.Context, eventID int64) ([]opinions.Opinion, error) {
	list, err := c.client.List(ctx, strconv.FormatInt(eventID, 10))
	if err != nil {
		c.alert(signal.AlertError, "Failed to load opinions")
		return list, err
	}
	return list, nil
}

// AddOpinion submits a comment. Validation failures never reach the
// network, and the caller keeps the rejected text.
func (c *Controller) AddOpinion(ctx context.Context, eventID int64, comment string) (opinions.Opinion, error) {
	added, err := c.client.Add(ctx, strconv.FormatInt(eventID, 10), comment)
	if err != nil {
		var validationErr *opinions.ValidationError
		if errors.As(err, &validationErr) {
			c.alert(signal.AlertError, validationErr.Message)
		} else {
			c.alert(signal.AlertError, "Failed to add opinion")
		}
		return opinions.Opinion{}, err
	}
	c.alert(signal.AlertSuccess, "Opinion added!")
	return added, nil
}

// History lists the most recent journal commits.
func (c *Controller) History(limit int) ([]localstore.CommitInfo, error) {
	return c.journal.History(limit)
}

func (c *Controller) alert(kind, message string) {
	c.hub.PublishAlert(signal.Alert{Type: kind, Message: message})
}

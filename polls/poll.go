// Package polls holds the domain model for the polling service and the
// repository that maps its wire payloads into it.
package polls

import (
	"context"
	"time"
)

// Poll types.
type Type string

const (
	TypeText Type = "TEXT"
	TypeDate Type = "DATE"
)

// Poll states.
type State string

const (
	StateOpen   State = "OPEN"
	StateClosed State = "CLOSED"
)

const (
	MaxTitleLength       = 64
	MaxDescriptionLength = 512
)

// defaultPublicBase prefixes poll URLs when the detail blob carries none.
const defaultPublicBase = "https://doodle.com"

// Poll is one poll as listed on the dashboard. The description, options,
// participants and location are not part of the list payload; they are backed
// by a single detail fetch performed lazily through the owning repository.
//
// A Poll constructed directly by the caller has no repository reference; its
// lazy accessors then return zero values without attempting any network
// access.
type Poll struct {
	ID                string
	Type              Type
	Title             string
	State             State
	AdminKey          string
	MultiDay          bool
	RowConstraint     bool
	ByInvitation      bool
	InviteesCount     int
	ParticipantsCount int
	AskAddress        bool
	AskEmail          bool
	AskPhone          bool
	AmINotified       bool
	LastWriteAccess   time.Time
	LastActivity      time.Time

	repo       *Repository
	detail     *Detail
	detailErr  error
	detailDone bool
}

// Detail is the per-poll payload backing all lazily-hydrated fields. It is
// fetched at most once per Poll instance and reused for every accessor.
type Detail struct {
	Description    string
	Options        []Option
	Participants   []Participant
	Location       *Location
	PublicURL      string
	ExportExcelURL string
	ExportPDFURL   string
	ExportPrintURL string
}

// hydrate performs the single detail fetch. Both the result and a failure are
// memoized, so a Poll never issues more than one detail request.
func (p *Poll) hydrate(ctx context.Context) (*Detail, error) {
	if p.detailDone {
		return p.detail, p.detailErr
	}
	p.detailDone = true
	if p.repo == nil {
		return nil, nil
	}
	p.detail, p.detailErr = p.repo.Detail(ctx, p)
	return p.detail, p.detailErr
}

// Description returns the poll description, hydrating on first access.
func (p *Poll) Description(ctx context.Context) (string, error) {
	d, err := p.hydrate(ctx)
	if err != nil || d == nil {
		return "", err
	}
	return d.Description, nil
}

// Options returns the poll's answer options, hydrating on first access.
func (p *Poll) Options(ctx context.Context) ([]Option, error) {
	d, err := p.hydrate(ctx)
	if err != nil || d == nil {
		return nil, err
	}
	return d.Options, nil
}

// Participants returns the poll's participants, hydrating on first access.
func (p *Poll) Participants(ctx context.Context) ([]Participant, error) {
	d, err := p.hydrate(ctx)
	if err != nil || d == nil {
		return nil, err
	}
	return d.Participants, nil
}

// Location returns the poll's location, hydrating on first access. Polls
// without a location return nil.
func (p *Poll) Location(ctx context.Context) (*Location, error) {
	d, err := p.hydrate(ctx)
	if err != nil || d == nil {
		return nil, err
	}
	return d.Location, nil
}

// ExportExcelURL returns the Excel export link, hydrating on first access.
func (p *Poll) ExportExcelURL(ctx context.Context) (string, error) {
	d, err := p.hydrate(ctx)
	if err != nil || d == nil {
		return "", err
	}
	return d.ExportExcelURL, nil
}

// ExportPDFURL returns the PDF export link, hydrating on first access.
func (p *Poll) ExportPDFURL(ctx context.Context) (string, error) {
	d, err := p.hydrate(ctx)
	if err != nil || d == nil {
		return "", err
	}
	return d.ExportPDFURL, nil
}

// ExportPrintURL returns the print export link, hydrating on first access.
func (p *Poll) ExportPrintURL(ctx context.Context) (string, error) {
	d, err := p.hydrate(ctx)
	if err != nil || d == nil {
		return "", err
	}
	return d.ExportPrintURL, nil
}

// PublicURL returns the participation link. It never triggers a fetch: when
// the detail blob has already been hydrated its pretty URL is used, otherwise
// the canonical poll URL is synthesized from the ID.
func (p *Poll) PublicURL() string {
	if p.detail != nil && p.detail.PublicURL != "" {
		return p.detail.PublicURL
	}
	return defaultPublicBase + "/poll/" + p.ID
}

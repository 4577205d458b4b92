package polls

import (
	"context"
	"encoding/json"
	"html"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/causal/go-doodle/session"
	"github.com/causal/go-doodle/transport"
)

// Legacy dashboard and account endpoints.
const (
	myPollsPath    = "/np/users/me/dashboard/myPolls"
	otherPollsPath = "/np/users/me/dashboard/otherPolls"
	createPollPath = "/np/new-polls/"
	userInfoPath   = "/np/users/me"
)

// restPollPath prefixes the JSON REST poll endpoints.
const restPollPath = "/api/v2.0/polls/"

// notFoundMarker appears in the HTML error page the legacy dashboard serves
// instead of JSON when the session token is stale or missing.
const notFoundMarker = "<title>Doodle: Not found"

// requiredListFields must all be present in a dashboard list entry for the
// mapping to succeed.
var requiredListFields = []string{
	"id", "type", "title", "state",
	"multiDay", "byInvitation",
	"inviteesCount", "participantsCount",
	"askAddress", "askEmail", "askPhone",
	"amINotified", "lastWriteAccess",
}

// Transport issues authenticated calls against the service. Implemented by
// transport.Client.
type Transport interface {
	Request(ctx context.Context, method, path string, payload transport.Payload) ([]byte, error)
}

// Repository maps the service's wire payloads into the domain model and
// back, and performs the per-poll detail fetch backing lazy hydration.
type Repository struct {
	tr      Transport
	locale  string
	nowTime func() time.Time
	log     zerolog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithLocale sets the locale sent on locale-aware endpoints.
func WithLocale(locale string) RepositoryOption {
	return func(r *Repository) {
		r.locale = locale
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) RepositoryOption {
	return func(r *Repository) {
		r.nowTime = nowFunc
	}
}

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.log = log
	}
}

// NewRepository creates a Repository on top of tr.
func NewRepository(tr Transport, options ...RepositoryOption) (*Repository, error) {
	if tr == nil {
		return nil, errors.New("[NewRepository] transport is required")
	}
	r := &Repository{
		tr:      tr,
		locale:  "en_GB",
		nowTime: time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// MyPolls lists the polls owned by the current account.
func (r *Repository) MyPolls(ctx context.Context) ([]*Poll, error) {
	return r.listDashboard(ctx, myPollsPath, "myPolls.myPolls")
}

// OtherPolls lists the polls the current account participates in without
// owning them.
func (r *Repository) OtherPolls(ctx context.Context) ([]*Poll, error) {
	return r.listDashboard(ctx, otherPollsPath, "otherPolls.otherPolls")
}

func (r *Repository) listDashboard(ctx context.Context, path, envelope string) ([]*Poll, error) {
	raw, err := r.tr.Request(ctx, http.MethodGet, path, transport.Form{
		"fullList": {"true"},
		"locale":   {r.locale},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[Repository.listDashboard] fetching %s", path)
	}
	if strings.Contains(string(raw), notFoundMarker) {
		return nil, &session.AuthenticationError{Reason: "dashboard rejected the session token as missing or outdated"}
	}

	entries := gjson.GetBytes(raw, envelope)
	var polls []*Poll
	var mapErr error
	entries.ForEach(func(_, entry gjson.Result) bool {
		poll, err := r.MapPoll(entry)
		if err != nil {
			mapErr = err
			return false
		}
		polls = append(polls, poll)
		return true
	})
	if mapErr != nil {
		return nil, mapErr
	}
	return polls, nil
}

// MapPoll builds a Poll from one dashboard list entry. Every required field
// must be present; lastActivity alone is parsed defensively, substituting the
// current time when unparsable. adminKey and rowConstraint are optional.
func (r *Repository) MapPoll(entry gjson.Result) (*Poll, error) {
	for _, field := range requiredListFields {
		if !entry.Get(field).Exists() {
			return nil, &MalformedResponseError{Field: field, Raw: entry.Raw}
		}
	}
	lastWrite, err := parseWireTime(entry.Get("lastWriteAccess"))
	if err != nil {
		return nil, &MalformedResponseError{Field: "lastWriteAccess", Raw: entry.Raw}
	}
	lastActivity, err := parseWireTime(entry.Get("lastActivity"))
	if err != nil {
		lastActivity = r.nowTime()
	}

	poll := &Poll{
		ID:                entry.Get("id").String(),
		Type:              Type(entry.Get("type").String()),
		Title:             entry.Get("title").String(),
		State:             State(entry.Get("state").String()),
		MultiDay:          entry.Get("multiDay").Bool(),
		ByInvitation:      entry.Get("byInvitation").Bool(),
		InviteesCount:     int(entry.Get("inviteesCount").Int()),
		ParticipantsCount: int(entry.Get("participantsCount").Int()),
		AskAddress:        entry.Get("askAddress").Bool(),
		AskEmail:          entry.Get("askEmail").Bool(),
		AskPhone:          entry.Get("askPhone").Bool(),
		AmINotified:       entry.Get("amINotified").Bool(),
		LastWriteAccess:   lastWrite,
		LastActivity:      lastActivity,
		repo:              r,
	}
	if v := entry.Get("adminKey"); v.Exists() && v.String() != "" {
		poll.AdminKey = v.String()
	}
	if v := entry.Get("rowConstraint"); v.Exists() {
		poll.RowConstraint = v.Bool()
	}
	return poll, nil
}

// Create creates a poll and returns its freshly assigned identity.
func (r *Repository) Create(ctx context.Context, spec Spec) (*Poll, error) {
	form, err := spec.buildCreateForm(r.nowTime(), r.locale)
	if err != nil {
		return nil, err
	}
	raw, err := r.tr.Request(ctx, http.MethodPost, createPollPath, transport.Form(form))
	if err != nil {
		return nil, errors.Wrap(err, "[Repository.Create] posting poll")
	}

	created := gjson.ParseBytes(raw)
	if created.Get("id").String() == "" {
		return nil, &PollCreationError{Raw: raw}
	}
	r.log.Debug().Str("poll_id", created.Get("id").String()).Msg("poll created")

	return &Poll{
		ID:           created.Get("id").String(),
		Type:         spec.Type,
		Title:        created.Get("title").String(),
		State:        State(created.Get("state").String()),
		AdminKey:     created.Get("adminKey").String(),
		ByInvitation: created.Get("byInvitation").Bool(),
		repo:         r,
	}, nil
}

// Delete removes a poll. The poll must carry its admin key; the check happens
// before any network call.
func (r *Repository) Delete(ctx context.Context, poll *Poll) error {
	if poll.AdminKey == "" {
		return &PreconditionError{
			Op:     "delete poll " + poll.ID,
			Reason: "admin key not available",
		}
	}
	_, err := r.tr.Request(ctx, http.MethodDelete, restPollPath+poll.ID, transport.Form{
		"adminKey": {poll.AdminKey},
	})
	if err != nil {
		return errors.Wrapf(err, "[Repository.Delete] deleting poll %s", poll.ID)
	}
	return nil
}

// DeleteParticipant removes one participant from a poll the current account
// administers.
func (r *Repository) DeleteParticipant(ctx context.Context, poll *Poll, participantID int64) error {
	if poll.AdminKey == "" {
		return &PreconditionError{
			Op:     "delete participant from poll " + poll.ID,
			Reason: "admin key not available",
		}
	}
	path := restPollPath + poll.ID + "/participants/" + formatID(participantID)
	_, err := r.tr.Request(ctx, http.MethodDelete, path, transport.Form{
		"adminKey": {poll.AdminKey},
	})
	if err != nil {
		return errors.Wrapf(err, "[Repository.DeleteParticipant] poll %s participant %d", poll.ID, participantID)
	}
	return nil
}

// RawDetail fetches the poll's detail payload without mapping it.
func (r *Repository) RawDetail(ctx context.Context, poll *Poll) ([]byte, error) {
	raw, err := r.tr.Request(ctx, http.MethodGet, restPollPath+poll.ID, transport.Form{
		"locale": {r.locale},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[Repository.RawDetail] fetching poll %s", poll.ID)
	}
	return raw, nil
}

// Detail fetches and maps the detail blob backing the poll's lazy fields.
func (r *Repository) Detail(ctx context.Context, poll *Poll) (*Detail, error) {
	raw, err := r.RawDetail(ctx, poll)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(raw)
	if inner := root.Get("poll"); inner.Exists() {
		root = inner
	}

	detail := &Detail{}
	if v := root.Get("descriptionHTML"); v.Exists() {
		detail.Description = clipDescription(decodeHTML(v.String()))
	} else {
		detail.Description = clipDescription(root.Get("description").String())
	}

	detail.Options, err = mapDetailOptions(root, poll.Type)
	if err != nil {
		return nil, err
	}
	detail.Participants = mapDetailParticipants(root, detail.Options)

	if loc := root.Get("location"); loc.Exists() && loc.Get("name").String() != "" {
		detail.Location = &Location{
			Name:    loc.Get("name").String(),
			Address: strings.TrimSpace(loc.Get("address").String()),
			Country: strings.TrimSpace(loc.Get("country").String()),
		}
	}

	detail.PublicURL = root.Get("prettyUrl").String()
	detail.ExportExcelURL = exportURL(root, "exportExcelUrl")
	detail.ExportPDFURL = exportURL(root, "exportPdfUrl")
	detail.ExportPrintURL = exportURL(root, "exportPrintUrl")
	return detail, nil
}

// UserInfo returns the account information of the current session as the
// service reports it.
func (r *Repository) UserInfo(ctx context.Context) (map[string]any, error) {
	raw, err := r.tr.Request(ctx, http.MethodGet, userInfoPath, transport.Form{
		"isMobile":           {"false"},
		"includeKalsysInfos": {"false"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Repository.UserInfo] fetching account info")
	}
	var info map[string]any
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, &MalformedResponseError{Field: "(user info body)", Raw: string(raw)}
	}
	return info, nil
}

// mapDetailOptions prefers the structured options array (start/end millis)
// and falls back to the legacy optionsText strings.
func mapDetailOptions(root gjson.Result, pollType Type) ([]Option, error) {
	var options []Option
	var mapErr error

	if structured := root.Get("options"); structured.IsArray() {
		structured.ForEach(func(_, entry gjson.Result) bool {
			if pollType != TypeDate {
				options = append(options, TextOption(entry.Get("text").String()))
				return true
			}
			start := time.UnixMilli(entry.Get("start").Int()).UTC()
			var end time.Time
			if e := entry.Get("end"); e.Exists() && e.Int() > 0 {
				end = time.UnixMilli(e.Int()).UTC()
			}
			options = append(options, DateOption(start, end))
			return true
		})
		return options, nil
	}

	root.Get("optionsText").ForEach(func(_, entry gjson.Result) bool {
		text := entry.String()
		if pollType != TypeDate {
			options = append(options, TextOption(text))
			return true
		}
		start, err := parseOptionDate(text)
		if err != nil {
			mapErr = &MalformedResponseError{Field: "optionsText", Raw: root.Raw}
			return false
		}
		options = append(options, DateOption(start, time.Time{}))
		return true
	})
	if mapErr != nil {
		return nil, mapErr
	}
	return options, nil
}

// mapDetailParticipants expands each participant's compact preference string
// into one Preference per option, aligned by position.
func mapDetailParticipants(root gjson.Result, options []Option) []Participant {
	var participants []Participant
	root.Get("participants").ForEach(func(_, entry gjson.Result) bool {
		p := Participant{
			ID:     entry.Get("id").Int(),
			Name:   strings.TrimSpace(entry.Get("name").String()),
			Avatar: entry.Get("avatar").String(),
		}
		codes := entry.Get("preferences").String()
		for i, option := range options {
			value := ""
			if i < len(codes) {
				value = preferenceValue(codes[i])
			}
			p.Preferences = append(p.Preferences, Preference{Option: option, Value: value})
		}
		participants = append(participants, p)
		return true
	})
	return participants
}

var brTag = regexp.MustCompile(`<br\s*/?>`)

// decodeHTML turns the service's HTML description into plain text.
func decodeHTML(s string) string {
	return html.UnescapeString(brTag.ReplaceAllString(s, "\n"))
}

func clipDescription(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > MaxDescriptionLength {
		return s[:MaxDescriptionLength]
	}
	return s
}

// exportURL resolves the service-relative export links.
func exportURL(root gjson.Result, field string) string {
	v := root.Get(field).String()
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return v
	}
	return defaultPublicBase + v
}

// wireTimeLayouts are the timestamp renderings observed across the service's
// API generations.
var wireTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseWireTime accepts either Unix milliseconds or one of the known string
// layouts.
func parseWireTime(v gjson.Result) (time.Time, error) {
	if v.Type == gjson.Number {
		return time.UnixMilli(v.Int()).UTC(), nil
	}
	s := strings.TrimSpace(v.String())
	for _, layout := range wireTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("[parseWireTime] unparsable timestamp %q", s)
}

// optionDateLayouts are the date renderings used for DATE poll options.
var optionDateLayouts = []string{
	"20060102T1504",
	"200601021504",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseOptionDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range optionDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("[parseOptionDate] unparsable option date %q", s)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

package polls

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	wireDateLayout     = "20060102"
	wireDateTimeLayout = "200601021504"
)

// Spec describes a poll to create. Exactly one of TextOptions (TEXT polls)
// and Dates (DATE polls) is used, selected by Type.
//
// Dates maps a yyyymmdd day to its time entries: an empty list yields a
// single whole-day option, "HHMM" a point-in-time option, and "HHMM-HHMM" a
// range. Days are emitted in ascending order.
type Spec struct {
	Title          string
	Type           Type
	OrganizerName  string
	OrganizerEmail string
	Location       string
	Description    string

	TextOptions []string
	Dates       map[string][]string

	IfNeedBe     bool
	Hidden       bool
	MultiDay     bool
	ByInvitation bool

	// Honored by the service for premium accounts only.
	AskAddress bool
	AskEmail   bool
	AskPhone   bool

	// Country the poll is anchored to; the service requires one.
	Country string
}

func (s Spec) validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("[Spec.validate] title is required")
	}
	switch s.Type {
	case TypeText:
		if len(s.TextOptions) == 0 {
			return errors.New("[Spec.validate] a TEXT poll needs at least one option")
		}
	case TypeDate:
		if len(s.Dates) == 0 {
			return errors.New("[Spec.validate] a DATE poll needs at least one date")
		}
	default:
		return errors.Errorf("[Spec.validate] unknown poll type %q", s.Type)
	}
	return nil
}

// wireOptions flattens the option specification into the options[] form
// values, in stable order.
func (s Spec) wireOptions() ([]string, error) {
	if s.Type == TypeText {
		options := make([]string, 0, len(s.TextOptions))
		for _, text := range s.TextOptions {
			options = append(options, strings.TrimSpace(text))
		}
		return options, nil
	}

	days := make([]string, 0, len(s.Dates))
	for day := range s.Dates {
		days = append(days, day)
	}
	sort.Strings(days) // yyyymmdd sorts chronologically

	var options []string
	for _, day := range days {
		if _, err := time.Parse(wireDateLayout, day); err != nil {
			return nil, errors.Wrapf(err, "[Spec.wireOptions] invalid date %q", day)
		}
		times := s.Dates[day]
		if len(times) == 0 {
			// A day with no times is a single whole-day option.
			options = append(options, day)
			continue
		}
		for _, t := range times {
			t = strings.TrimSpace(t)
			if t == "" {
				options = append(options, day)
				continue
			}
			entry, err := wireTimeEntry(day, t)
			if err != nil {
				return nil, err
			}
			options = append(options, entry)
		}
	}
	return options, nil
}

// wireTimeEntry renders one timed option: "HHMM" concatenates with the day,
// "HHMM-HHMM" becomes a start/end pair of Unix-millisecond timestamps.
func wireTimeEntry(day, entry string) (string, error) {
	start, end, isRange := strings.Cut(entry, "-")
	startAt, err := time.ParseInLocation(wireDateTimeLayout, day+start, time.UTC)
	if err != nil {
		return "", errors.Wrapf(err, "[wireTimeEntry] invalid time %q on %s", entry, day)
	}
	if !isRange {
		return day + start, nil
	}
	endAt, err := time.ParseInLocation(wireDateTimeLayout, day+end, time.UTC)
	if err != nil {
		return "", errors.Wrapf(err, "[wireTimeEntry] invalid range end %q on %s", entry, day)
	}
	return unixMillisString(startAt) + "-" + unixMillisString(endAt), nil
}

// unixMillisString renders a timestamp in the millisecond precision the
// service's Java backend expects. Options never carry sub-second precision,
// so the milliseconds are literal zero padding.
func unixMillisString(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10) + "000"
}

// buildCreateForm translates s into the creation form payload. The
// token and locale parameters are supplied by the transport and repository.
func (s Spec) buildCreateForm(now time.Time, locale string) (url.Values, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	options, err := s.wireOptions()
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(s.Title)
	if len(title) > MaxTitleLength {
		title = title[:MaxTitleLength]
	}
	description := strings.TrimSpace(s.Description)
	if len(description) > MaxDescriptionLength {
		description = description[:MaxDescriptionLength]
	}
	country := s.Country
	if country == "" {
		country = "CH"
	}

	form := url.Values{}
	form.Set("title", title)
	form.Set("locName", strings.TrimSpace(s.Location))
	form.Set("description", description)
	form.Set("initiatorAlias", strings.TrimSpace(s.OrganizerName))
	form.Set("initiatorEmail", strings.TrimSpace(s.OrganizerEmail))
	form.Set("hidden", boolParam(s.Hidden))
	form.Set("ifNeedBe", boolParam(s.IfNeedBe))
	form.Set("askAddress", boolParam(s.AskAddress))
	form.Set("askEmail", boolParam(s.AskEmail))
	form.Set("askPhone", boolParam(s.AskPhone))
	form.Set("multiDay", boolParam(s.MultiDay))
	form.Set("byInvitation", boolParam(s.ByInvitation))
	form.Set("withTzSupport", "false")
	form.Set("optionsMode", strings.ToLower(string(s.Type)))
	form.Set("currentYear", strconv.Itoa(now.Year()))
	form.Set("currentMonth", strconv.Itoa(int(now.Month())))
	form.Set("type", string(s.Type))
	form.Set("createdOnCalendarView", "false")
	form.Set("shownCalendars", "")
	form.Set("country", country)
	form.Set("locale", locale)
	form["options[]"] = options
	return form, nil
}

func boolParam(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

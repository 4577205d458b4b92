package polls

import "time"

const optionLabelLayout = "Mon 02.01.2006 15:04"

// Option is one answer choice of a poll: either a free-text label (TEXT
// polls) or a date/time range (DATE polls), never both.
type Option struct {
	Text  string
	Start time.Time
	End   time.Time
}

// TextOption builds a free-text option.
func TextOption(text string) Option {
	return Option{Text: text}
}

// DateOption builds a date option. end may be the zero time for a
// point-in-time or whole-day option.
func DateOption(start, end time.Time) Option {
	return Option{Start: start, End: end}
}

// IsDate reports whether the option carries a date rather than free text.
func (o Option) IsDate() bool {
	return !o.Start.IsZero()
}

// Label renders the human-readable form of the option: the raw text, or the
// formatted start date, extended with the end date when one exists.
func (o Option) Label() string {
	if !o.IsDate() {
		return o.Text
	}
	out := o.Start.Format(optionLabelLayout)
	if !o.End.IsZero() && o.End.Unix() > 0 {
		out += " - " + o.End.Format(optionLabelLayout)
	}
	return out
}

package polls

// Vote values a participant can express for an option.
const (
	VoteYes      = "yes"
	VoteNo       = "no"
	VoteIfNeedBe = "ifneedbe"
)

// Participant is one person who answered a poll. Preferences is aligned 1:1
// and in order with the parent poll's option list.
type Participant struct {
	ID          int64
	Name        string
	Avatar      string
	Preferences []Preference
}

// Preference is one participant's vote on one option. Option is a copy of
// the parent poll's option at the same position; Value is the opaque vote
// string the service uses.
type Preference struct {
	Option Option
	Value  string
}

// preferenceValue expands the wire's single-character vote codes to the vote
// strings. Unknown codes pass through verbatim.
func preferenceValue(code byte) string {
	switch code {
	case 'y':
		return VoteYes
	case 'n':
		return VoteNo
	case 'i':
		return VoteIfNeedBe
	default:
		return string(code)
	}
}

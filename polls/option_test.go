package polls_test

import (
	"testing"
	"time"

	"github.com/causal/go-doodle/polls"
	"github.com/stretchr/testify/require"
)

func TestOption_Label(t *testing.T) {
	t.Run("text option", func(t *testing.T) {
		o := polls.TextOption("Pizza")
		require.False(t, o.IsDate())
		require.Equal(t, "Pizza", o.Label())
	})

	t.Run("date option without end", func(t *testing.T) {
		start := time.Date(2015, 9, 29, 8, 30, 0, 0, time.UTC)
		o := polls.DateOption(start, time.Time{})
		require.True(t, o.IsDate())
		require.Equal(t, "Tue 29.09.2015 08:30", o.Label())
	})

	t.Run("date option with end renders a range", func(t *testing.T) {
		start := time.Date(2015, 9, 29, 8, 30, 0, 0, time.UTC)
		end := time.Date(2015, 9, 29, 10, 15, 0, 0, time.UTC)
		o := polls.DateOption(start, end)
		require.Equal(t, "Tue 29.09.2015 08:30 - Tue 29.09.2015 10:15", o.Label())
	})
}

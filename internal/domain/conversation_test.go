package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTitleFromMessageStripsGreeting(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello, can I exercise today?", "can I exercise today?"},
		{"hi doctor", "doctor"},
		{"Good morning, what should I eat?", "what should I eat?"},
		{"Can I take my pills with juice?", "Can I take my pills with juice?"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, TitleFromMessage(tc.in))
	}
}

func TestTitleFromMessageTruncatesAtWordBoundary(t *testing.T) {
	long := "What are the long term effects of taking beta blockers every single day"

	title := TitleFromMessage(long)

	require.LessOrEqual(t, len(title), 54)
	require.True(t, strings.HasSuffix(title, "..."))
	require.NotContains(t, strings.TrimSuffix(title, "..."), "  ")
}

func TestTitleFromMessageTruncatesOnRunes(t *testing.T) {
	long := strings.Repeat("é", 60)

	title := TitleFromMessage(long)

	require.True(t, utf8.ValidString(title))
	require.True(t, strings.HasSuffix(title, "..."))
	require.Equal(t, 53, utf8.RuneCountInString(title))
	require.Equal(t, strings.Repeat("é", 50)+"...", title)
}

func TestTitleFromMessageFallback(t *testing.T) {
	require.Equal(t, "New Conversation", TitleFromMessage("   "))
	require.Equal(t, "New Conversation", TitleFromMessage("hello"))
}

func TestDisplayName(t *testing.T) {
	var nilCtx *PatientContext
	require.Equal(t, "Anonymous", nilCtx.DisplayName())
	require.Equal(t, "Anonymous", (&PatientContext{Name: "  "}).DisplayName())
	require.Equal(t, "Jordan Lee", (&PatientContext{Name: "Jordan Lee"}).DisplayName())
}

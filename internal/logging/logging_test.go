package logging_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rootfleet/waitlist/internal/logging"
)

func TestNew(t *testing.T) {
	logger, err := logging.New("debug", "json")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = logging.New("loud", "json")
	require.Error(t, err)
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "b.com", logging.EmailDomain("a@b.com"))
	assert.Equal(t, "", logging.EmailDomain("nodomain"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", logging.Truncate("short", 300))
	assert.Len(t, logging.Truncate(strings.Repeat("x", 400), 300), 300)

	// "é" is two bytes; cutting inside it must back off to the rune boundary.
	got := logging.Truncate("aé", 2)
	assert.Equal(t, "a", got)

	// Four-byte runes: every cut point lands on a boundary.
	long := strings.Repeat("🚚", 100)
	for n := 295; n <= 300; n++ {
		cut := logging.Truncate(long, n)
		assert.True(t, utf8.ValidString(cut), "n=%d", n)
		assert.Equal(t, n/4*4, len(cut), "n=%d", n)
	}
}

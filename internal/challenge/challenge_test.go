package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildAppAPI/internal/apperr"
)

func TestParseOfficialCategory(t *testing.T) {
	for _, s := range []string{"social", "creative", "adventure"} {
		c, err := ParseOfficialCategory(s)
		require.NoError(t, err)
		assert.Equal(t, Category(s), c)
	}

	for _, s := range []string{"daily", "COWARD", "", "Social"} {
		_, err := ParseOfficialCategory(s)
		assert.ErrorIs(t, err, apperr.ErrInvalidCategory, s)
	}
}

func TestSubmissionIsTerminal(t *testing.T) {
	assert.False(t, (&Submission{Status: SubmissionPending}).IsTerminal())
	assert.True(t, (&Submission{Status: SubmissionApproved}).IsTerminal())
	assert.True(t, (&Submission{Status: SubmissionRejected}).IsTerminal())
}

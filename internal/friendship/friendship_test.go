package friendship

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wildAppAPI/internal/apperr"
)

func TestRelationFor(t *testing.T) {
	assert.Equal(t, RelationNone, RelationFor(nil, "a"))

	pending := &Friendship{RequesterID: "a", AddresseeID: "b", Status: StatusPending}
	assert.Equal(t, RelationSent, RelationFor(pending, "a"))
	assert.Equal(t, RelationPending, RelationFor(pending, "b"))

	accepted := &Friendship{RequesterID: "a", AddresseeID: "b", Status: StatusAccepted}
	assert.Equal(t, RelationFriends, RelationFor(accepted, "a"))
	assert.Equal(t, RelationFriends, RelationFor(accepted, "b"))

	declined := &Friendship{RequesterID: "a", AddresseeID: "b", Status: StatusDeclined}
	assert.Equal(t, RelationNone, RelationFor(declined, "a"))
	assert.Equal(t, RelationNone, RelationFor(declined, "b"))
}

func TestOther(t *testing.T) {
	f := &Friendship{RequesterID: "a", AddresseeID: "b"}
	assert.Equal(t, "b", f.Other("a"))
	assert.Equal(t, "a", f.Other("b"))
	assert.True(t, f.Involves("a"))
	assert.False(t, f.Involves("c"))
}

func TestParseDecision(t *testing.T) {
	st, err := ParseDecision("accepted")
	assert.NoError(t, err)
	assert.Equal(t, StatusAccepted, st)

	_, err = ParseDecision("pending")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

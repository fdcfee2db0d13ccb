package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageCarriesPayload(t *testing.T) {
	n := PostLiked("owner", "ana", "p1")
	m := Message("tok", n)

	assert.Equal(t, "tok", m.Token)
	assert.Equal(t, "New like", m.Notification.Title)
	assert.Equal(t, "ana liked your post", m.Notification.Body)
	assert.Equal(t, "p1", m.Data["post_id"])
	assert.Equal(t, "high", m.Android.Priority)
}

func TestPostCommentedTruncatesBody(t *testing.T) {
	long := make([]rune, 200)
	for i := range long {
		long[i] = 'x'
	}
	n := PostCommented("owner", "bo", "p1", string(long))
	assert.Len(t, []rune(n.Body), 80)
}

func TestInviteNamesChallenge(t *testing.T) {
	n := ChallengeInvite("u2", "ana", "Cold plunge", "inv1")
	assert.Equal(t, `ana invited you to "Cold plunge"`, n.Body)
	assert.Equal(t, TypeChallengeInvite, n.Type)
}

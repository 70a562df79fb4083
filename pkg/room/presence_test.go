package room

import (
	"testing"

	"github.com/cuemby/relay/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestPresenceLastWriteWins(t *testing.T) {
	p := NewPresenceStore()

	p.Set("alice", types.PresenceOnline)
	p.Set("alice", types.PresenceAway)

	presence := p.Get("alice")
	assert.Equal(t, types.PresenceAway, presence.Status)
	assert.False(t, presence.UpdatedAt.IsZero())
}

func TestPresenceUnknownUserIsOffline(t *testing.T) {
	p := NewPresenceStore()

	presence := p.Get("ghost")
	assert.Equal(t, types.PresenceOffline, presence.Status)
	assert.Equal(t, "ghost", presence.UserID)
}

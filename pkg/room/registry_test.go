package room

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinCreatesRoom(t *testing.T) {
	r := NewRegistry(NewMemoryHistory())

	members := r.Join("general", "alice", "Alice")
	assert.Equal(t, []string{"alice"}, members)
	assert.Equal(t, 1, r.Count())
	assert.True(t, r.IsMember("general", "alice"))
}

// TestJoinIdempotent verifies joining twice does not duplicate the member
func TestJoinIdempotent(t *testing.T) {
	r := NewRegistry(NewMemoryHistory())

	r.Join("general", "alice", "Alice")
	members := r.Join("general", "alice", "Alice")

	assert.Equal(t, []string{"alice"}, members)
}

func TestLeaveWhenAbsentIsNoOp(t *testing.T) {
	r := NewRegistry(NewMemoryHistory())
	r.Join("general", "alice", "Alice")

	removed, deleted := r.Leave("general", "bob")
	assert.False(t, removed)
	assert.False(t, deleted)

	removed, deleted = r.Leave("nowhere", "alice")
	assert.False(t, removed)
	assert.False(t, deleted)

	assert.Equal(t, 1, r.Count())
}

// TestLastLeaveDeletesRoomAndHistory verifies room lifetime bounds
// history lifetime
func TestLastLeaveDeletesRoomAndHistory(t *testing.T) {
	history := NewMemoryHistory()
	r := NewRegistry(history)

	r.Join("general", "alice", "Alice")
	r.Join("general", "bob", "Bob")
	history.Append("general", newTestMessage("general", "alice", "hello"))
	require.Equal(t, 1, history.Len("general"))

	removed, deleted := r.Leave("general", "alice")
	assert.True(t, removed)
	assert.False(t, deleted)

	removed, deleted = r.Leave("general", "bob")
	assert.True(t, removed)
	assert.True(t, deleted)

	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, history.Len("general"))

	msgs, hasMore := history.Query("general", 10, zeroTime())
	assert.Empty(t, msgs)
	assert.False(t, hasMore)
}

func TestMembersSorted(t *testing.T) {
	r := NewRegistry(NewMemoryHistory())
	r.Join("general", "carol", "Carol")
	r.Join("general", "alice", "Alice")
	r.Join("general", "bob", "Bob")

	assert.Equal(t, []string{"alice", "bob", "carol"}, r.Members("general"))
	assert.Nil(t, r.Members("nowhere"))
}

func TestRoomsOf(t *testing.T) {
	r := NewRegistry(NewMemoryHistory())
	r.Join("general", "alice", "Alice")
	r.Join("random", "alice", "Alice")
	r.Join("random", "bob", "Bob")

	assert.Equal(t, []string{"general", "random"}, r.RoomsOf("alice"))
	assert.Equal(t, []string{"random"}, r.RoomsOf("bob"))
	assert.Empty(t, r.RoomsOf("carol"))
}

// TestJoinSurvivesConcurrentRoomDeletion verifies a returned join is
// always visible: a last-member leave racing the join must not strand
// the new member in a deleted room
func TestJoinSurvivesConcurrentRoomDeletion(t *testing.T) {
	r := NewRegistry(NewMemoryHistory())

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})

	// Churner repeatedly makes "general" empty and deletable
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			r.Join("general", "churner", "Churner")
			r.Leave("general", "churner")
		}
	}()

	for i := 0; i < 2000; i++ {
		userID := fmt.Sprintf("user-%d", i)
		members := r.Join("general", userID, userID)
		require.Contains(t, members, userID)
		require.True(t, r.IsMember("general", userID),
			"join returned but membership is not visible")
		r.Leave("general", userID)
	}

	close(done)
	wg.Wait()
}

// TestNetEffectOfJoinLeaveSequences verifies membership reflects only
// the net effect of repeated join/leave by the same pair
func TestNetEffectOfJoinLeaveSequences(t *testing.T) {
	r := NewRegistry(NewMemoryHistory())
	r.Join("general", "bob", "Bob")

	r.Join("general", "alice", "Alice")
	r.Join("general", "alice", "Alice")
	r.Leave("general", "alice")
	r.Leave("general", "alice")
	r.Join("general", "alice", "Alice")

	assert.Equal(t, []string{"alice", "bob"}, r.Members("general"))
}

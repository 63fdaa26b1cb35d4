package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceLoadReplacesRoster(t *testing.T) {
	api := NewFakeAPI()
	api.SetMembers(1, "alice", "bob", "bob", "", "carol")
	rec := &recorder{}
	p := NewPresenceTracker(api, rec, "alice")
	p.Reset(RequestTag{ChannelID: 1, Generation: 1})

	require.NoError(t, p.Load(context.Background()))
	assert.Equal(t, []string{"alice", "bob", "carol"}, p.Members())

	deltas := rec.all()
	require.Len(t, deltas, 2)
	assert.Equal(t, RosterReplaced{ChannelID: 1}, deltas[0])
	assert.Equal(t, RosterReplaced{ChannelID: 1, Members: []string{"alice", "bob", "carol"}}, deltas[1])
}

func TestPresenceRosterFollowsChannelSwitch(t *testing.T) {
	api := NewFakeAPI()
	api.SetMembers(1, "bob", "carol")
	api.SetMembers(2, "dave")
	p := NewPresenceTracker(api, nil, "alice")

	p.Reset(RequestTag{ChannelID: 1, Generation: 1})
	require.NoError(t, p.Load(context.Background()))
	p.Joined("erin")

	p.Reset(RequestTag{ChannelID: 2, Generation: 2})
	assert.Empty(t, p.Members(), "nothing from the previous channel survives")
	require.NoError(t, p.Load(context.Background()))
	assert.Equal(t, []string{"dave"}, p.Members())
	assert.Equal(t, uint64(2), p.ChannelID())
}

func TestPresenceJoinLeave(t *testing.T) {
	rec := &recorder{}
	p := NewPresenceTracker(NewFakeAPI(), rec, "alice")

	assert.False(t, p.Joined("bob"), "no channel bound yet")

	p.Reset(RequestTag{ChannelID: 3, Generation: 1})
	rec.reset()

	assert.True(t, p.Joined("bob"))
	assert.False(t, p.Joined("bob"), "join is idempotent")
	assert.False(t, p.Joined("alice"), "self events are ignored")
	assert.False(t, p.Joined(""))
	assert.Equal(t, []string{"bob"}, p.Members())

	assert.False(t, p.Left("alice"))
	assert.False(t, p.Left("zed"))
	assert.True(t, p.Left("bob"))
	assert.Empty(t, p.Members())

	assert.Equal(t, []Delta{
		MemberJoined{ChannelID: 3, Nick: "bob"},
		MemberLeft{ChannelID: 3, Nick: "bob"},
	}, rec.all())
}

func TestPresenceDiscardsStaleRoster(t *testing.T) {
	api := NewFakeAPI()
	api.SetMembers(1, "bob")
	api.SetMembers(2, "carol")
	release := api.Gate(1)
	p := NewPresenceTracker(api, nil, "alice")
	p.Reset(RequestTag{ChannelID: 1, Generation: 1})

	done := make(chan error, 1)
	go func() { done <- p.Load(context.Background()) }()
	require.Eventually(t, func() bool { return api.MemberCalls() == 1 }, timeoutShort, tick)

	p.Reset(RequestTag{ChannelID: 2, Generation: 2})
	require.NoError(t, p.Load(context.Background()))

	release()
	assert.ErrorIs(t, <-done, ErrStaleResponse)
	assert.Equal(t, []string{"carol"}, p.Members())
}

func TestPresenceLoadErrors(t *testing.T) {
	api := NewFakeAPI()
	api.FailMembers(1)
	p := NewPresenceTracker(api, nil, "alice")

	assert.ErrorIs(t, p.Load(context.Background()), ErrNoChannel)

	p.Reset(RequestTag{ChannelID: 1, Generation: 1})
	assert.ErrorIs(t, p.Load(context.Background()), errFake)
}

func TestPresenceReplaysPushesDuringLoad(t *testing.T) {
	api := NewFakeAPI()
	api.SetMembers(1, "carol", "dave")
	release := api.Gate(1)
	rec := &recorder{}
	p := NewPresenceTracker(api, rec, "alice")
	p.Reset(RequestTag{ChannelID: 1, Generation: 1})

	done := make(chan error, 1)
	go func() { done <- p.Load(context.Background()) }()
	require.Eventually(t, func() bool { return api.MemberCalls() == 1 }, timeoutShort, tick)

	p.Joined("bob")
	p.Left("dave")
	p.Joined("erin")
	p.Left("erin")

	release()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"carol", "bob"}, p.Members())

	all := rec.all()
	last, ok := all[len(all)-1].(RosterReplaced)
	require.True(t, ok)
	assert.Equal(t, []string{"carol", "bob"}, last.Members)

	// Nothing is kept for replay once the load has landed
	p.Left("bob")
	require.NoError(t, p.Load(context.Background()))
	assert.Equal(t, []string{"carol", "dave"}, p.Members())
}

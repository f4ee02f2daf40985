package websocket

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedChanges struct {
	mu      sync.Mutex
	changes []PresenceChange
}

func (r *recordedChanges) add(c PresenceChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recordedChanges) all() []PresenceChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PresenceChange(nil), r.changes...)
}

func TestRegistry_LookupReturnsMostRecentRegistration(t *testing.T) {
	r := NewRegistry(nil)
	a, b := newFakeConn("a"), newFakeConn("b")

	require.NoError(t, r.Register("screen-1", a))
	require.NoError(t, r.Register("screen-1", b))

	got, ok := r.Lookup("screen-1")
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_ClosingSupersededConnectionKeepsNewMapping(t *testing.T) {
	changes := &recordedChanges{}
	r := NewRegistry(changes.add)
	a, b := newFakeConn("a"), newFakeConn("b")

	require.NoError(t, r.Register("screen-1", a))
	require.NoError(t, r.Register("screen-1", b))

	removed := r.Unregister(a)

	assert.Empty(t, removed)
	got, ok := r.Lookup("screen-1")
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, []PresenceChange{
		{DeviceKey: "screen-1", Online: true},
		{DeviceKey: "screen-1", Online: true},
	}, changes.all())

	assert.Equal(t, []string{"screen-1"}, r.Unregister(b))
	assert.Equal(t, PresenceChange{DeviceKey: "screen-1", Online: false}, changes.all()[2])
}

func TestRegistry_RegisterTwiceOnSameConnection(t *testing.T) {
	r := NewRegistry(nil)
	a := newFakeConn("a")

	require.NoError(t, r.Register("screen-1", a))
	require.NoError(t, r.Register("screen-1", a))

	assert.Equal(t, 1, r.Count())
	assert.Equal(t, []string{"screen-1"}, r.KeysFor(a))
	got, ok := r.Lookup("screen-1")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestRegistry_EmptyDeviceKey(t *testing.T) {
	changes := &recordedChanges{}
	r := NewRegistry(changes.add)

	err := r.Register("", newFakeConn("a"))

	assert.ErrorIs(t, err, ErrEmptyDeviceKey)
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, changes.all())
}

func TestRegistry_UnregisterUnknownConnectionIsNoop(t *testing.T) {
	changes := &recordedChanges{}
	r := NewRegistry(changes.add)
	require.NoError(t, r.Register("screen-1", newFakeConn("a")))

	assert.Nil(t, r.Unregister(newFakeConn("stranger")))
	assert.Equal(t, 1, r.Count())
	assert.Len(t, changes.all(), 1)
}

func TestRegistry_UnregisterRemovesEveryKeyOfConnection(t *testing.T) {
	changes := &recordedChanges{}
	r := NewRegistry(changes.add)
	a, b := newFakeConn("a"), newFakeConn("b")

	require.NoError(t, r.Register("screen-2", a))
	require.NoError(t, r.Register("screen-1", a))
	require.NoError(t, r.Register("screen-3", b))

	removed := r.Unregister(a)

	assert.Equal(t, []string{"screen-1", "screen-2"}, removed)
	assert.Equal(t, []string{"screen-3"}, r.DeviceKeys())
	all := changes.all()
	assert.Equal(t, []PresenceChange{
		{DeviceKey: "screen-1", Online: false},
		{DeviceKey: "screen-2", Online: false},
	}, all[len(all)-2:])
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(func(PresenceChange) {})
	conns := make([]*fakeConn, 16)
	for i := range conns {
		conns[i] = newFakeConn(fmt.Sprintf("c%d", i))
	}

	var wg sync.WaitGroup
	for i, c := range conns {
		wg.Add(1)
		go func(i int, c *fakeConn) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("screen-%d", (i+j)%8)
				_ = r.Register(key, c)
				r.Lookup(key)
				if j%10 == 0 {
					r.Unregister(c)
				}
			}
		}(i, c)
	}
	wg.Wait()

	for _, c := range conns {
		r.Unregister(c)
	}
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.byConn)
}

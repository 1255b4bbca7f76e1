package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu       sync.Mutex
	messages [][]byte
	fail     bool
}

func (c *fakeClient) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return false
	}
	c.messages = append(c.messages, message)
	return true
}

func (c *fakeClient) Close() {}

func (c *fakeClient) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func TestHub_BroadcastByTopic(t *testing.T) {
	h := NewHub()
	liquid := &fakeClient{}
	testnet := &fakeClient{}
	broken := &fakeClient{fail: true}

	h.Register("liquid", liquid)
	h.Register("liquid", broken)
	h.Register("testnet-liquid", testnet)
	require.Equal(t, 2, h.Subscribers("liquid"))

	h.Broadcast("liquid", []byte(`{"kind":"assets"}`))
	require.Equal(t, 1, liquid.received())
	require.Equal(t, 0, testnet.received())

	h.Unregister("liquid", liquid)
	h.Unregister("liquid", broken)
	require.Equal(t, 0, h.Subscribers("liquid"))

	h.Broadcast("liquid", []byte(`{}`))
	require.Equal(t, 1, liquid.received())
}

func TestGetHub_Singleton(t *testing.T) {
	require.Same(t, GetHub(), GetHub())
}

package balancer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"drpc/server"
)

// fakeCenter is an in-memory registry.Center for tests: Pull just returns
// whatever its snapshot field currently holds, and Push appends to it.
type fakeCenter struct {
	snapshot map[string][]string
}

func (f *fakeCenter) Pull(ctx context.Context) (map[string][]string, error) {
	return f.snapshot, nil
}

func (f *fakeCenter) Push(ctx context.Context, service, addr string, ttl time.Duration) error {
	if f.snapshot == nil {
		f.snapshot = make(map[string][]string)
	}
	f.snapshot[service] = append(f.snapshot[service], addr)
	return nil
}

func startEchoServer(t *testing.T, addr string) {
	t.Helper()

	s := server.New()
	server.RegisterFunc(s, "Echo", func(arg string) (string, error) {
		return arg, nil
	})

	go func() {
		_ = s.Serve(addr)
	}()
	time.Sleep(50 * time.Millisecond)

	t.Cleanup(func() { _ = s.Shutdown(time.Second) })
}

func TestManagerPullAndCall(t *testing.T) {
	startEchoServer(t, "127.0.0.1:19101")

	fc := &fakeCenter{snapshot: map[string][]string{
		"Echoer": {"127.0.0.1:19101"},
	}}

	m := NewManager(DefaultManagerConfig(), fc)

	require.NoError(t, m.Pull(context.Background()))

	got, err := Call[string, string](m, "Echoer", "Echo", "hello")
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestManagerPullEmptyClearsPools(t *testing.T) {
	startEchoServer(t, "127.0.0.1:19102")

	fc := &fakeCenter{snapshot: map[string][]string{
		"Echoer": {"127.0.0.1:19102"},
	}}

	m := NewManager(DefaultManagerConfig(), fc)
	require.NoError(t, m.Pull(context.Background()))

	fc.snapshot = nil
	require.NoError(t, m.Pull(context.Background()))

	_, err := Call[string, string](m, "Echoer", "Echo", "hi")
	require.Error(t, err)
}

func TestManagerCallUnknownService(t *testing.T) {
	fc := &fakeCenter{}
	m := NewManager(DefaultManagerConfig(), fc)

	_, err := Call[string, string](m, "Nope", "Echo", "hi")
	require.Error(t, err)
}

func TestManagerReconcileRemovesStale(t *testing.T) {
	startEchoServer(t, "127.0.0.1:19103")

	fc := &fakeCenter{snapshot: map[string][]string{
		"Echoer": {"127.0.0.1:19103"},
	}}
	m := NewManager(DefaultManagerConfig(), fc)
	require.NoError(t, m.Pull(context.Background()))

	pool := m.poolFor("Echoer")
	require.Equal(t, 1, pool.Len())

	fc.snapshot["Echoer"] = nil
	require.NoError(t, m.Pull(context.Background()))
	require.Equal(t, 0, pool.Len())
}

package network_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillwire/quill-node/pkg/codec"
	"github.com/quillwire/quill-node/pkg/network"
)

// testService echoes requests and records pushes. Requests carrying
// the literal "fail" are rejected.
type testService struct {
	mu     sync.Mutex
	pushes []string
	delay  time.Duration
}

func (s *testService) ServeRequest(value any, _ network.Encoder) (any, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	msg, _ := value.(string)
	if msg == "fail" {
		return nil, errors.New("service rejected the request")
	}
	return msg, nil
}

func (s *testService) ServePush(from string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes = append(s.pushes, fmt.Sprintf("%v", value))
}

func (s *testService) pushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pushes)
}

func startTestServer(t *testing.T, service network.RequestHandler) *network.Server {
	t.Helper()
	srv := network.NewServer("127.0.0.1:0", codec.NewFactory(), service, time.Minute)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })
	return srv
}

func TestClientServerRoundTrip(t *testing.T) {
	srv := startTestServer(t, &testService{})

	client, err := network.Dial(srv.Addr().String(), codec.NewFactory(), nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Request(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", resp)
}

func TestRequestErrorKeepsConnection(t *testing.T) {
	srv := startTestServer(t, &testService{})

	client, err := network.Dial(srv.Addr().String(), codec.NewFactory(), nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = client.Request(ctx, "fail")
	require.Error(t, err)

	var reqErr *network.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Contains(t, reqErr.Message, "service rejected")

	// The connection survives the failed request
	resp, err := client.Request(ctx, "still alive")
	require.NoError(t, err)
	assert.Equal(t, "still alive", resp)
}

func TestPipelinedRequests(t *testing.T) {
	srv := startTestServer(t, &testService{delay: 10 * time.Millisecond})

	client, err := network.Dial(srv.Addr().String(), codec.NewFactory(), nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const n = 20
	var wg sync.WaitGroup
	results := make([]any, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = client.Request(ctx, fmt.Sprintf("msg-%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("msg-%d", i), results[i], "responses must correlate to their requests")
	}
}

func TestClientPush(t *testing.T) {
	service := &testService{}
	srv := startTestServer(t, service)

	client, err := network.Dial(srv.Addr().String(), codec.NewFactory(), nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Push("one-way"))

	require.Eventually(t, func() bool {
		return service.pushCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	service.mu.Lock()
	defer service.mu.Unlock()
	assert.Equal(t, []string{"one-way"}, service.pushes)
}

func TestServerPush(t *testing.T) {
	srv := startTestServer(t, &testService{})

	received := make(chan any, 1)
	client, err := network.Dial(srv.Addr().String(), codec.NewFactory(), func(value any) {
		received <- value
	})
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool {
		return srv.ActiveConnections() == 1
	}, 5*time.Second, 10*time.Millisecond)

	fingerprints := srv.Fingerprints()
	require.Len(t, fingerprints, 1)
	require.NoError(t, srv.Push(fingerprints[0], "wake up"))

	select {
	case value := <-received:
		assert.Equal(t, "wake up", value)
	case <-time.After(5 * time.Second):
		t.Fatal("push never arrived")
	}
}

func TestPushToUnknownPeer(t *testing.T) {
	srv := startTestServer(t, &testService{})

	err := srv.Push("no-such-peer", "hello")
	assert.ErrorIs(t, err, network.ErrUnknownPeer)
}

func TestClientCloseUnblocksRequests(t *testing.T) {
	srv := startTestServer(t, &testService{delay: time.Second})

	client, err := network.Dial(srv.Addr().String(), codec.NewFactory(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	errCh := make(chan error, 1)
	go func() {
		_, err := client.Request(ctx, "slow")
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, client.Close())

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("request never unblocked after close")
	}

	select {
	case <-client.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection never terminated")
	}
}

func TestServerStopDisconnectsPeers(t *testing.T) {
	srv := startTestServer(t, &testService{})

	client, err := network.Dial(srv.Addr().String(), codec.NewFactory(), nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool {
		return srv.ActiveConnections() == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Stop())

	select {
	case <-client.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client never saw the disconnect")
	}

	assert.ErrorIs(t, srv.Stop(), network.ErrServerClosed)
}

package proxy

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type chunkRecorder struct {
	bytes.Buffer
	max int
}

func (w *chunkRecorder) Write(p []byte) (int, error) {
	w.max = max(w.max, len(p))
	return w.Buffer.Write(p)
}

func TestCopyStreamChunks(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 500)

	var w chunkRecorder
	n, err := copyStream(&w, bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), n)
	require.Equal(t, payload, w.Bytes())
	require.LessOrEqual(t, w.max, relayBufferSize)
}

func runRelay(ctx context.Context, client, upstream net.Conn) <-chan RelayStats {
	done := make(chan RelayStats, 1)
	go func() {
		stats, _ := Relay(ctx, client, upstream)
		done <- stats
	}()
	return done
}

func TestRelayBothDirections(t *testing.T) {
	clientPeer, client := net.Pipe()
	upstream, upstreamPeer := net.Pipe()
	defer clientPeer.Close()
	defer upstreamPeer.Close()

	done := runRelay(context.Background(), client, upstream)

	_, err := clientPeer.Write([]byte("request"))
	require.NoError(t, err)
	got := make([]byte, 7)
	_, err = io.ReadFull(upstreamPeer, got)
	require.NoError(t, err)
	require.Equal(t, "request", string(got))

	_, err = upstreamPeer.Write([]byte("response!"))
	require.NoError(t, err)
	got = make([]byte, 9)
	_, err = io.ReadFull(clientPeer, got)
	require.NoError(t, err)
	require.Equal(t, "response!", string(got))

	require.NoError(t, upstreamPeer.Close())

	select {
	case stats := <-done:
		require.Equal(t, int64(7), stats.Upstream)
		require.Equal(t, int64(9), stats.Downstream)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not finish after upstream closed")
	}

	_, err = clientPeer.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

func TestRelayClientClose(t *testing.T) {
	clientPeer, client := net.Pipe()
	upstream, upstreamPeer := net.Pipe()
	defer upstreamPeer.Close()

	done := runRelay(context.Background(), client, upstream)
	require.NoError(t, clientPeer.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not finish after client closed")
	}

	_, err := upstreamPeer.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

func TestRelayContextCancel(t *testing.T) {
	clientPeer, client := net.Pipe()
	upstream, upstreamPeer := net.Pipe()
	defer clientPeer.Close()
	defer upstreamPeer.Close()

	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := Relay(ctx, client, upstream)
		errc <- err
	}()

	cancel()

	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not finish after cancel")
	}
}

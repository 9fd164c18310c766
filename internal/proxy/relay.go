package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"
)

// relayBufferSize is the per-direction copy window.
const relayBufferSize = 1024

var relayBuffers = newBufferPool(relayBufferSize)

// RelayStats counts the bytes moved in each direction.
type RelayStats struct {
	Upstream   int64 // client to upstream
	Downstream int64 // upstream to client
}

// Relay copies bytes between client and upstream in both directions until
// both copy loops have stopped, then closes both connections. Whichever loop
// stops first closes both sockets so the other cannot block forever; half
// closes are not propagated. Canceling ctx forces the same teardown.
//
// Errors caused by the teardown itself are not reported; anything else
// (typically a peer reset) is returned for logging only.
func Relay(ctx context.Context, client, upstream net.Conn) (RelayStats, error) {
	var closeOnce sync.Once
	closeBoth := func() {
		closeOnce.Do(func() {
			_ = client.Close()
			_ = upstream.Close()
		})
	}
	defer closeBoth()

	stop := context.AfterFunc(ctx, closeBoth)
	defer stop()

	var stats RelayStats
	var g errgroup.Group

	g.Go(func() error {
		defer closeBoth()
		n, err := copyStream(upstream, client)
		stats.Upstream = n
		return quietClose(err)
	})

	g.Go(func() error {
		defer closeBoth()
		n, err := copyStream(client, upstream)
		stats.Downstream = n
		return quietClose(err)
	})

	err := g.Wait()
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return stats, err
}

// copyStream copies src to dst through a fixed-size buffer. A clean EOF on
// src ends the copy without error.
func copyStream(dst io.Writer, src io.Reader) (int64, error) {
	buf := relayBuffers.Get()
	defer relayBuffers.Put(buf)

	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return written, nil
			}
			return written, rerr
		}
	}
}

func quietClose(err error) error {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}

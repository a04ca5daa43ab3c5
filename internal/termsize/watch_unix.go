//go:build unix

package termsize

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Watch refreshes g on every SIGWINCH until ctx is done or stop is called.
func (g *Geometry) Watch(ctx context.Context) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGWINCH)
	return g.startWatch(ctx, ch, func() { signal.Stop(ch) })
}

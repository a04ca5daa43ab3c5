//go:build !unix

package termsize

import "context"

// Watch is a no-op where the platform has no resize signal.
func (g *Geometry) Watch(context.Context) (stop func()) {
	return func() {}
}

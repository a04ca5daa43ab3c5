//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package termsize

import (
	"os"

	"golang.org/x/sys/unix"
)

// Window-size request codes. The first is TIOCGWINSZ on BSD-derived
// systems (including macOS); the second is TIOCGWINSZ on Linux. Each fails
// with EINVAL or ENOTTY where it does not apply.
const (
	ioctlWinszBSD   = 0x40087468
	ioctlWinszLinux = 0x5413
)

// PlatformProbes returns the probes used to size the terminal attached to f.
func PlatformProbes(f *os.File) []Probe {
	fd := int(f.Fd())
	return []Probe{
		IoctlProbe("ioctl-bsd", fd, ioctlWinszBSD),
		IoctlProbe("ioctl-linux", fd, ioctlWinszLinux),
	}
}

// IoctlProbe queries the window size of fd with the given request code.
func IoctlProbe(name string, fd int, req uint) Probe {
	return Probe{
		Name: name,
		Query: func() (int, int, error) {
			ws, err := unix.IoctlGetWinsize(fd, req)
			if err != nil {
				return 0, 0, err
			}
			return int(ws.Row), int(ws.Col), nil
		},
	}
}

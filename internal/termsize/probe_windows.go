//go:build windows

package termsize

import (
	"os"

	"golang.org/x/sys/windows"
)

// PlatformProbes returns the probes used to size the console attached to f.
// Windows has no window-size ioctl, so only the console buffer query runs.
func PlatformProbes(f *os.File) []Probe {
	return []Probe{ConsoleProbe("console", windows.Handle(f.Fd()))}
}

// ConsoleProbe reads the visible window of the console screen buffer.
func ConsoleProbe(name string, h windows.Handle) Probe {
	return Probe{
		Name: name,
		Query: func() (int, int, error) {
			var info windows.ConsoleScreenBufferInfo
			if err := windows.GetConsoleScreenBufferInfo(h, &info); err != nil {
				return 0, 0, err
			}
			w := info.Window
			return int(w.Bottom-w.Top) + 1, int(w.Right-w.Left) + 1, nil
		},
	}
}

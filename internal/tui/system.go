package tui

import (
	"errors"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/apex/log"
)

// Opener reveals path in the desktop file manager.
type Opener func(path string, isDir bool) error

var errNoFileManager = errors.New("No suitable file manager found")

// OpenInFileManager opens a directory, or the directory of a file with the
// file selected where the platform supports it. The process is started and
// not waited for.
func OpenInFileManager(path string, isDir bool) error {
	dir := path
	if !isDir {
		dir = filepath.Dir(path)
	}

	switch runtime.GOOS {
	case "darwin":
		if isDir {
			return start("open", dir)
		}
		return start("open", "-R", path)
	case "windows":
		if isDir {
			return start("explorer", dir)
		}
		return start("explorer", "/select,", path)
	case "linux", "freebsd", "openbsd", "netbsd":
		return openUnix(dir, path, isDir)
	default:
		return errors.New("Opening system file browser not supported on this platform")
	}
}

func openUnix(dir, path string, isDir bool) error {
	if !isDir {
		for _, fm := range []string{"nautilus", "dolphin"} {
			if _, err := exec.LookPath(fm); err == nil {
				if err := start(fm, "--select", path); err == nil {
					return nil
				}
			}
		}
		if _, err := exec.LookPath("thunar"); err == nil {
			if err := start("thunar", path); err == nil {
				return nil
			}
			return start("thunar", dir)
		}
	}
	for _, fm := range []string{"xdg-open", "pcmanfm", "nautilus", "dolphin", "thunar"} {
		if _, err := exec.LookPath(fm); err == nil {
			return start(fm, dir)
		}
	}
	return errNoFileManager
}

func start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	log.WithFields(log.Fields{"cmd": name, "args": args}).Debug("opened file manager")
	go cmd.Wait() //nolint:errcheck
	return nil
}

package wbbcpanel

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// ExpandHome expands ~ to its proper path, where appropriate. Google Storage
// paths and paths that do not start with ~/ are returned unchanged.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Println(pfx.Err(err))
		return path
	}

	return filepath.Join(home, path[2:])
}

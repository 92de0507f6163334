package kvstore

import (
	"os"
	"path/filepath"
)

// Detect determines the database backend from directory markers.
//
// Badger keeps a KEYREGISTRY file next to its data. LevelDB names its data
// files *.ldb, pebble names them *.sst; both keep MANIFEST files, so the
// data-file extensions are checked first.
func Detect(path string) string {
	if _, err := os.Stat(filepath.Join(path, "KEYREGISTRY")); err == nil {
		return BackendBadger
	}
	if matches, _ := filepath.Glob(filepath.Join(path, "*.ldb")); len(matches) > 0 {
		return BackendLevelDB
	}
	if matches, _ := filepath.Glob(filepath.Join(path, "*.sst")); len(matches) > 0 {
		return BackendPebble
	}
	if matches, _ := filepath.Glob(filepath.Join(path, "MANIFEST-*")); len(matches) > 0 {
		// No data files yet; a CURRENT file pointing at the manifest is
		// the leveldb layout, pebble tracks the manifest differently.
		if _, err := os.Stat(filepath.Join(path, "CURRENT")); err == nil {
			return BackendLevelDB
		}
		return BackendPebble
	}
	return BackendLevelDB
}

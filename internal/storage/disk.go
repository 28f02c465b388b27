package storage

import (
	"errors"
	"io/fs"
	"os"
)

// sidecarSuffixes are the files SQLite keeps next to a database in WAL mode.
var sidecarSuffixes = []string{"", "-wal", "-shm"}

// DatabaseFiles lists the database file and its WAL sidecars for dbPath.
// The files are not required to exist.
func DatabaseFiles(dbPath string) []string {
	if dbPath == "" {
		return nil
	}
	files := make([]string, 0, len(sidecarSuffixes))
	for _, suffix := range sidecarSuffixes {
		files = append(files, dbPath+suffix)
	}
	return files
}

// DatabaseDiskUsage returns the size of a SQLite database including its WAL and
// shared-memory sidecar files. Missing files count as zero.
func DatabaseDiskUsage(dbPath string) (int64, error) {
	var total int64
	for _, p := range DatabaseFiles(dbPath) {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if info.IsDir() {
			return 0, &fs.PathError{Op: "stat", Path: p, Err: errors.New("is a directory")}
		}
		total += info.Size()
	}
	return total, nil
}

// Package archive packs a directory tree into a zip stream on demand, for
// the retrieve handler when a client requests an entire job's output
// directory rather than a single file.
//
// No library in the reference corpus wraps archive/zip with anything this
// package needs (directory-entry handling, relative-path naming, streaming
// writes), so this is built directly on the standard library's archive/zip
// and compress/flate.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	dirMode  = 0755
	fileMode = 0755
)

// WriteDir walks root and writes every regular file and directory beneath it
// into w as a DEFLATE-compressed zip stream; symlinks and other non-regular
// entries are skipped. Entry names are root-relative with
// forward slashes, matching the zip spec regardless of host OS. Directories
// get an explicit trailing-slash entry so empty directories survive the
// round trip.
func WriteDir(w io.Writer, root string) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("archive: relative path for %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("archive: stat %s: %w", path, err)
		}

		if d.IsDir() {
			hdr := &zip.FileHeader{Name: name + "/"}
			hdr.SetMode(os.FileMode(dirMode) | os.ModeDir)
			_, err := zw.CreateHeader(hdr)
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("archive: header for %s: %w", path, err)
		}
		hdr.Name = name
		hdr.Method = zip.Deflate
		// Every entry carries 0755 regardless of its on-disk mode: the
		// archive is re-extracted on an arbitrary client and on-disk
		// permissions at rest (e.g. 0644 from submit's intake write)
		// aren't meaningful there.
		hdr.SetMode(os.FileMode(fileMode))

		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("archive: open %s: %w", path, err)
		}
		defer f.Close()
		if _, err := io.Copy(entry, f); err != nil {
			return fmt.Errorf("archive: copy %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return zw.Close()
}

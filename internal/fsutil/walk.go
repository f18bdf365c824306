package fsutil

import (
	"io/fs"
	"path/filepath"
)

// RelFile is one regular file discovered under a directory tree, with Rel
// given as a slash-separated path relative to the root that was walked.
type RelFile struct {
	Rel  string
	Path string
	Size int64
}

// WalkFiles returns every regular file beneath root, in lexical order, with
// Rel paths relative to root using forward slashes. Non-regular entries
// (symlinks, sockets, etc.) and per-entry stat errors are skipped silently —
// this is a best-effort listing for building outgoing multipart parts, not a
// validator of the tree's contents.
func WalkFiles(root string) ([]RelFile, error) {
	var files []RelFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, RelFile{
			Rel:  filepath.ToSlash(rel),
			Path: path,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Package fsutil holds small filesystem helpers shared by the upload intake
// path and the sender loop: filename sanitization and a best-effort
// directory walk for building the multipart parts that a job's loc
// directory turns into.
package fsutil

import "path/filepath"

// Sanitize reduces a client-supplied filename to its basename, stripping any
// directory components so a path like "../../etc/passwd" becomes "passwd".
// An empty result (from a path with no name component, e.g. "" or "/")
// defaults to the literal "file". Non-ASCII names are preserved unchanged.
func Sanitize(name string) string {
	base := filepath.Base(filepath.FromSlash(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "file"
	}
	return base
}

package server

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmoreram/go-tftpd/pkg/tftp"
)

// resolvePath joins baseDir and filename. filename is cleaned as if rooted at
// "/", so a leading ".." or an absolute path resolves to a path inside
// baseDir rather than outside it; a name that cleans to baseDir itself is
// rejected. Symlinks are not resolved, so a symlink inside baseDir is
// followed wherever it points.
func resolvePath(baseDir, filename string) (string, error) {
	clean := filepath.Clean("/" + filename)
	full := filepath.Join(baseDir, clean)

	if !strings.HasPrefix(full, filepath.Clean(baseDir)+string(os.PathSeparator)) {
		return "", &tftp.Error{
			Kind: tftp.KindIO, WireCode: tftp.WireAccessViolation,
			Message: fmt.Sprintf("path %q escapes base directory", filename),
		}
	}

	return full, nil
}

// OpenReader opens filename under baseDir for an RRQ, reporting a
// FileNotFound/AccessViolation wire error rather than a bare os.PathError.
func OpenReader(baseDir, filename string) (tftp.FileReader, io.Closer, error) {
	full, err := resolvePath(baseDir, filename)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, &tftp.Error{
				Kind: tftp.KindIO, WireCode: tftp.WireFileNotFound,
				Message: fmt.Sprintf("%s not found", filename), Cause: err,
			}
		}

		return nil, nil, &tftp.Error{
			Kind: tftp.KindIO, WireCode: tftp.WireAccessViolation,
			Message: fmt.Sprintf("cannot open %s", filename), Cause: err,
		}
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()

		return nil, nil, &tftp.Error{
			Kind: tftp.KindIO, WireCode: tftp.WireAccessViolation,
			Message: fmt.Sprintf("%s is not a regular file", filename),
		}
	}

	return f, f, nil
}

// OpenWriter opens filename under baseDir for a WRQ, truncating any existing
// content. Missing parent directories, at any depth, are created on demand
// so a client can push into a fresh subtree.
func OpenWriter(baseDir, filename string) (tftp.FileWriter, io.Closer, error) {
	full, err := resolvePath(baseDir, filename)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return nil, nil, &tftp.Error{
			Kind: tftp.KindIO, WireCode: tftp.WireAccessViolation,
			Message: fmt.Sprintf("cannot create directory for %s", filename), Cause: err,
		}
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, &tftp.Error{
			Kind: tftp.KindIO, WireCode: tftp.WireAccessViolation,
			Message: fmt.Sprintf("cannot open %s for writing", filename), Cause: err,
		}
	}

	return f, f, nil
}

package parser

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// checkFile enforces the preconditions every parser shares: the path must
// name an existing regular file whose extension matches wantExt, ignoring
// case. Nothing is read from the file.
func checkFile(path, wantExt string) error {
	if err := checkRegular(path); err != nil {
		return err
	}

	ext := filepath.Ext(path)
	if !strings.EqualFold(ext, wantExt) {
		pe := newError(KindInvalidExtension, path, "unexpected file extension")
		pe.Expected = wantExt
		pe.Actual = ext
		return pe
	}
	return nil
}

func checkRegular(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		pe := newError(KindFileNotFound, path, "no such file")
		if !errors.Is(err, fs.ErrNotExist) {
			pe.Message = "cannot stat file"
		}
		pe.Err = err
		return pe
	}
	if !info.Mode().IsRegular() {
		return newError(KindFileNotFound, path, "not a regular file")
	}
	return nil
}

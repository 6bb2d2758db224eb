// package archive assembles the flat zip delivered at the end of a run.
//
// Entries are stored under their basename regardless of the directory the
// source files were downloaded to, so extracting the archive never recreates
// the run's temporary layout.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/antonioabatte/spotizip/internal/shared"
)

// Assemble writes {dir}/{sanitized archiveName}.zip containing one flat entry
// per input file and returns the path of the written archive. The zip is built
// in memory and written in a single pass so a failure never leaves a partial
// archive behind. All failures yield [shared.ErrArchiveWrite].
func Assemble(files []string, archiveName, dir string) (string, error) {
	name := shared.SanitizeFilename(archiveName) + ".zip"
	path := filepath.Join(dir, name)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, file := range files {
		if err := addEntry(zw, file); err != nil {
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("%w: finalize %s: %v", shared.ErrArchiveWrite, name, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", shared.ErrArchiveWrite, name, err)
	}
	return path, nil
}

func addEntry(zw *zip.Writer, file string) error {
	src, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", shared.ErrArchiveWrite, filepath.Base(file), err)
	}
	defer src.Close()

	entry, err := zw.Create(filepath.Base(file))
	if err != nil {
		return fmt.Errorf("%w: add %s: %v", shared.ErrArchiveWrite, filepath.Base(file), err)
	}
	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("%w: copy %s: %v", shared.ErrArchiveWrite, filepath.Base(file), err)
	}
	return nil
}

// Package tests gives access to the nes-test-roms collection, downloaded on
// first use.
package tests

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"nescart/emu/log"
)

const (
	romsURL  = `https://github.com/christopherpow/nes-test-roms/archive/refs/heads/master.zip`
	romsName = "nes-test-roms"
)

func decompress(zipFile, dest string) error {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fname := strings.Replace(f.Name, romsName+"-master", romsName, 1)
		fpath := filepath.Join(dest, fname)
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("%s: illegal file path", fpath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, os.ModePerm); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return err
		}
		if err := extract(f, fpath); err != nil {
			return err
		}
	}

	log.ModEmu.InfoZ("test roms decompressed").Int("files", len(r.File)).End()
	return nil
}

func extract(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func download(dest string) error {
	resp, err := http.Get(romsURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", romsURL, resp.Status)
	}

	tmpf, err := os.CreateTemp("", romsName+"-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmpf.Name())

	if _, err := io.Copy(tmpf, resp.Body); err != nil {
		tmpf.Close()
		return err
	}
	if err := tmpf.Close(); err != nil {
		return err
	}

	if err := decompress(tmpf.Name(), dest); err != nil {
		return fmt.Errorf("failed to decompress test roms: %w", err)
	}
	return nil
}

var fetchRoms = sync.OnceValues(func() (string, error) {
	_, b, _, _ := runtime.Caller(0)
	testsDir := filepath.Dir(b)
	romsDir := filepath.Join(testsDir, romsName)

	if _, err := os.Stat(romsDir); errors.Is(err, fs.ErrNotExist) {
		if err := download(testsDir); err != nil {
			return "", err
		}
	}
	return romsDir, nil
})

// RomsPath returns the directory holding the test roms, downloading them if
// needed. The test is skipped in short mode or if the download fails.
func RomsPath(tb testing.TB) string {
	tb.Helper()
	if testing.Short() {
		tb.Skip("test roms not used in short mode")
	}
	dir, err := fetchRoms()
	if err != nil {
		tb.Skipf("test roms unavailable: %s", err)
	}
	return dir
}

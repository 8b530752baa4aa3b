package build

import (
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// ZipAssets replaces dest with a deflated archive of the regular files
// directly inside dir, stored under their base names. It returns -1 and
// leaves dest alone when dir is missing or empty, otherwise the number of
// files written.
func ZipAssets(dir, dest string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return -1, nil
		}
		return 0, err
	}
	if len(entries) == 0 {
		return -1, nil
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	zw := zip.NewWriter(f)
	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := addFile(zw, filepath.Join(dir, e.Name())); err != nil {
			zw.Close()
			f.Close()
			return 0, err
		}
		n++
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return 0, err
	}
	return n, f.Close()
}

func addFile(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

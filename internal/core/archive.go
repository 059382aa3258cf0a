package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// archiveTimeLayout prefixes archived copies: YYYYMMDD_HHMMSS.
const archiveTimeLayout = "20060102_150405"

// maxArchiveSuffix bounds the _N suffixes tried when several uploads with the
// same name land in the same second.
const maxArchiveSuffix = 1000

// Archiver copies accepted source files into a managed storage directory.
type Archiver struct {
	dir     string
	maxSize int64
	now     func() time.Time
}

// NewArchiver creates an archiver writing into dir.
// Files larger than maxSize bytes are rejected; maxSize <= 0 disables the limit.
func NewArchiver(dir string, maxSize int64) *Archiver {
	return &Archiver{
		dir:     dir,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Dir returns the archive directory.
func (a *Archiver) Dir() string {
	return a.dir
}

// ArchiveName returns the archived file name for base at time t.
func ArchiveName(t time.Time, base string) string {
	return t.Format(archiveTimeLayout) + "_" + base
}

// suffixed inserts _n before the extension: 20260102_030405_users_1.csv.
func suffixed(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + strconv.Itoa(n) + ext
}

// create opens a fresh archive file for base. An existing copy is never
// reused; every attempt gets its own file.
func (a *Archiver) create(base string) (*os.File, string, error) {
	name := ArchiveName(a.now(), base)
	for n := 0; n < maxArchiveSuffix; n++ {
		dst := filepath.Join(a.dir, suffixed(name, n))
		out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return out, dst, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%d archive copies of %s already exist", maxArchiveSuffix, name)
}

// Archive copies src byte-for-byte into the archive directory and returns the new path.
// Failures are returned as *Error of KindFileSelection.
func (a *Archiver) Archive(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fileError("archive", "cannot open source file", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", fileError("archive", "cannot stat source file", err)
	}
	if info.IsDir() {
		return "", fileError("archive", "source is a directory", nil)
	}
	if a.maxSize > 0 && info.Size() > a.maxSize {
		return "", a.tooLarge(info.Size())
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fileError("archive", "cannot create archive directory", err)
	}

	out, dst, err := a.create(filepath.Base(src))
	if err != nil {
		return "", fileError("archive", "cannot create archive copy", err)
	}

	var r io.Reader = in
	if a.maxSize > 0 {
		r = io.LimitReader(in, a.maxSize+1)
	}
	counter := NewCountingReader(r)

	_, copyErr := io.Copy(out, counter)
	closeErr := out.Close()

	switch {
	case copyErr != nil:
		os.Remove(dst)
		return "", fileError("archive", "copy failed", copyErr)
	case closeErr != nil:
		os.Remove(dst)
		return "", fileError("archive", "copy failed", closeErr)
	case a.maxSize > 0 && counter.BytesRead > a.maxSize:
		os.Remove(dst)
		return "", a.tooLarge(counter.BytesRead)
	}

	return dst, nil
}

func (a *Archiver) tooLarge(size int64) *Error {
	return &Error{
		Kind:     KindFileSelection,
		Op:       "archive",
		Category: "file_too_large",
		Message:  fmt.Sprintf("file too large: %d bytes exceeds %d byte limit", size, a.maxSize),
	}
}

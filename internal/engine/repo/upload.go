package repo

import (
	"errors"
	"io"
	"os"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/zerr"
)

// upload holds a request body in a scratch file until it has been validated.
type upload struct {
	file *os.File
	size int64
}

func stageUpload(dir string, body io.Reader) (*upload, error) {
	f, err := os.CreateTemp(dir, "debrepo-upload-*.deb")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to create upload file"), "dir", dir)
	}
	u := &upload{file: f}
	n, err := io.Copy(f, body)
	if err != nil {
		u.discard()
		return nil, zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to receive upload")
	}
	u.size = n
	return u, nil
}

// reader rewinds the scratch file and returns it for one full read.
func (u *upload) reader() (io.Reader, error) {
	if _, err := u.file.Seek(0, io.SeekStart); err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to rewind upload file")
	}
	return u.file, nil
}

func (u *upload) discard() {
	_ = u.file.Close()
	_ = os.Remove(u.file.Name())
}

package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const stagedPrefix = "stg_"

var stagedRef = regexp.MustCompile(`^stg_[0-9a-f-]{36}(\.[a-z]+)?$`)

// Staging holds uploads that belong to an unsaved product form. A staged file is
// addressed by an opaque ref until the product is submitted and the file is
// promoted to durable Storage.
type Staging struct {
	Dir string
}

func NewStaging(dir string) *Staging { return &Staging{Dir: dir} }

func (s *Staging) Stage(ctx context.Context, r io.Reader, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	ref := stagedPrefix + uuid.NewString() + safeExt(filename)
	if err := writeFile(filepath.Join(s.Dir, ref), r); err != nil {
		return "", fmt.Errorf("stage %s: %w", filename, err)
	}
	return ref, nil
}

// Open returns the staged file. Unknown or malformed refs yield an error
// matching fs.ErrNotExist.
func (s *Staging) Open(ref string) (io.ReadCloser, PutInput, error) {
	if !stagedRef.MatchString(ref) {
		return nil, PutInput{}, fmt.Errorf("staged ref %q: %w", ref, fs.ErrNotExist)
	}
	path := filepath.Join(s.Dir, ref)
	f, err := os.Open(path)
	if err != nil {
		return nil, PutInput{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, PutInput{}, err
	}
	ext := filepath.Ext(ref)
	return f, PutInput{Filename: ref, ContentType: mime.TypeByExtension(ext), Size: st.Size()}, nil
}

func (s *Staging) Remove(ref string) error {
	if !stagedRef.MatchString(ref) {
		return fmt.Errorf("staged ref %q: %w", ref, fs.ErrNotExist)
	}
	return os.Remove(filepath.Join(s.Dir, ref))
}

// Sweep deletes staged files last modified before cutoff and returns how many it removed.
func (s *Staging) Sweep(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !stagedRef.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err == nil {
			n++
		}
	}
	return n, nil
}

// Package media stores generated images and videos on disk, one directory
// per user, and guards every access against path traversal.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/copilotx/copilotx-server/internal/model"
)

// Library is a per-user file store rooted at baseDir/<kind>/user-<id>/.
type Library struct {
	baseDir string
}

func NewLibrary(baseDir string) *Library {
	return &Library{baseDir: baseDir}
}

// FileInfo describes one stored file.
type FileInfo struct {
	Filename string    `json:"filename"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"timestamp"`
}

func (l *Library) userDir(kind, userID string) string {
	return filepath.Join(l.baseDir, kind, "user-"+userID)
}

// resolve joins filename under the user's directory and rejects anything
// escaping it. The check runs before any file I/O.
func (l *Library) resolve(kind, userID, filename string) (string, error) {
	dir, err := filepath.Abs(l.userDir(kind, userID))
	if err != nil {
		return "", err
	}
	path, err := filepath.Abs(filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}
	if path != dir && !strings.HasPrefix(path, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes user directory", model.ErrForbidden)
	}
	return path, nil
}

// Save writes data under the user's directory with a generated unique name.
func (l *Library) Save(kind, userID, ext string, data []byte) (FileInfo, error) {
	filename := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.New().String()[:8], ext)
	path, err := l.resolve(kind, userID, filename)
	if err != nil {
		return FileInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return FileInfo{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Filename: filename,
		URL:      fmt.Sprintf("/api/ai/%s/%s/%s", kind, userID, filename),
		Size:     int64(len(data)),
		ModTime:  time.Now().UTC(),
	}, nil
}

// Open reads a stored file. Returns model.ErrNotFound when absent and
// model.ErrForbidden when the name escapes the user's directory.
func (l *Library) Open(kind, userID, filename string) ([]byte, error) {
	path, err := l.resolve(kind, userID, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// List returns the user's files, newest first. A missing directory is an
// empty list, not an error.
func (l *Library) List(kind, userID string) ([]FileInfo, error) {
	dir := l.userDir(kind, userID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, err
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{
			Filename: e.Name(),
			URL:      fmt.Sprintf("/api/ai/%s/%s/%s", kind, userID, e.Name()),
			Size:     info.Size(),
			ModTime:  info.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

// Delete removes a stored file.
func (l *Library) Delete(kind, userID, filename string) error {
	path, err := l.resolve(kind, userID, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return model.ErrNotFound
		}
		return err
	}
	return nil
}

package config

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// KeywordList holds the trigger phrases that mark a turn as profile-worthy.
// The backing file can be edited while the bot runs; Watch hot-reloads it.
type KeywordList struct {
	mu       sync.RWMutex
	path     string
	keywords []string
}

// LoadKeywords reads the keyword file (one phrase per line, "#" comments,
// case-insensitive matching). A missing file yields an empty list: keyword
// triggering is then effectively off and only the disclosure patterns and
// word-count heuristic apply.
func LoadKeywords(path string) *KeywordList {
	kl := &KeywordList{path: path}
	kl.reload()
	return kl
}

// Phrases returns a snapshot of the current keyword phrases, lowercased.
func (kl *KeywordList) Phrases() []string {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	out := make([]string, len(kl.keywords))
	copy(out, kl.keywords)
	return out
}

// Reload re-reads the keyword file immediately, outside the watcher.
func (kl *KeywordList) Reload() {
	kl.reload()
}

func (kl *KeywordList) reload() {
	f, err := os.Open(kl.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("keyword file unreadable", "path", kl.path, "error", err)
		}
		kl.mu.Lock()
		kl.keywords = nil
		kl.mu.Unlock()
		return
	}
	defer f.Close()

	var keywords []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keywords = append(keywords, strings.ToLower(line))
	}

	kl.mu.Lock()
	kl.keywords = keywords
	kl.mu.Unlock()
	slog.Debug("keyword phrases loaded", "path", kl.path, "count", len(keywords))
}

// Watch hot-reloads the keyword file on change until ctx is done.
// Watches the parent directory so editor rename-on-save is caught.
func (kl *KeywordList) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(kl.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(kl.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					slog.Info("keyword file changed, reloading", "path", kl.path)
					kl.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("keyword file watcher error", "error", err)
			}
		}
	}()
	return nil
}

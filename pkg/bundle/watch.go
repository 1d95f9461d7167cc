package bundle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/logger"
	"github.com/trophyhq/trophy/pkg/openspec"
)

// DefaultDebounce coalesces editor save bursts into one reload
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc receives the freshly reloaded bundle and its lint result after
// each change settles. lintErr is nil when the bundle is clean.
type ReloadFunc func(ctx context.Context, b *Bundle, lintErr error)

// Watcher re-loads and re-lints a bundle whenever its files change
type Watcher struct {
	root     string
	debounce time.Duration
	onReload ReloadFunc
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithDebounce overrides the debounce interval
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher over the bundle rooted at root
func NewWatcher(root string, onReload ReloadFunc, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		onReload: onReload,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// watchedDirs returns the bundle directories that exist right now
func (w *Watcher) watchedDirs() []string {
	candidates := []string{
		filepath.Join(w.root, ".trophy", "agents"),
		filepath.Join(w.root, ".trophy", "skills"),
		filepath.Join(w.root, ".trophy", "commands"),
		filepath.Join(w.root, ".trophy", "rules"),
		filepath.Join(w.root, openspec.DefaultSpecsDir),
	}

	var dirs []string
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
			// Skill directories nest one level per skill.
			_ = filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
				if err == nil && fi.IsDir() && path != dir {
					dirs = append(dirs, path)
				}
				return nil
			})
		}
	}
	return dirs
}

// Run watches until the context is cancelled. The callback fires once
// immediately with the initial state, then after each settled change.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	dirs := w.watchedDirs()
	if len(dirs) == 0 {
		return errors.Errorf("no bundle directories found under '%s'", w.root)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch '%s'", dir)
		}
		logger.G(ctx).WithField("directory", dir).Debug("watching bundle directory")
	}

	w.reload(ctx)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	fire := make(chan struct{}, 1)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			logger.G(ctx).WithFields(map[string]interface{}{
				"file":      event.Name,
				"operation": event.Op.String(),
			}).Debug("bundle change detected")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			w.reload(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Error("file watcher error")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// relevant filters events down to markdown and yaml writes
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := strings.ToLower(event.Name)
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// reload loads and lints the bundle, then invokes the callback
func (w *Watcher) reload(ctx context.Context) {
	b, err := Load(ctx, w.root)
	if err != nil {
		logger.G(ctx).WithError(err).Error("failed to reload bundle")
		return
	}
	w.onReload(ctx, b, b.Lint(ctx))
}

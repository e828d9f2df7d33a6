package tlsmgr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is how long the reloader waits after a file event before
// reloading, so a renewal that rewrites cert and key as two writes lands
// as one reload.
const reloadDebounce = 200 * time.Millisecond

// Entry names one watched certificate: where it serves and where its
// material lives on disk.
type Entry struct {
	ListenAddr string
	ServerName string
	CertFile   string
	KeyFile    string
}

// Reloader watches certificate files and swaps renewed certificates into
// the resolver without a restart. A failed reload logs and leaves the
// previous certificate active; new handshakes pick up a successful reload
// immediately through the resolver's replace-on-add contract.
type Reloader struct {
	watcher *fsnotify.Watcher
	manager *Manager
	logger  *slog.Logger

	entries []Entry
	// watched directories, to avoid duplicate watches
	dirs map[string]bool
}

// NewReloader creates a reloader that feeds renewed certificates into
// manager.
func NewReloader(manager *Manager, logger *slog.Logger) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Reloader{
		watcher: watcher,
		manager: manager,
		logger:  logger,
		dirs:    make(map[string]bool),
	}, nil
}

// Watch registers a certificate entry. The parent directories of the cert
// and key files are watched rather than the files themselves, so renewals
// that replace files via rename (the atomic-write idiom) are observed.
func (r *Reloader) Watch(e Entry) error {
	for _, file := range []string{e.CertFile, e.KeyFile} {
		dir := filepath.Dir(file)
		if r.dirs[dir] {
			continue
		}
		if err := r.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
		r.dirs[dir] = true
	}

	r.entries = append(r.entries, e)
	return nil
}

// Start runs the watch loop until ctx is cancelled. Call it once, after
// every Watch registration.
func (r *Reloader) Start(ctx context.Context) {
	go r.watchLoop(ctx)
}

func (r *Reloader) watchLoop(ctx context.Context) {
	defer r.watcher.Close()

	// pending collects entries touched since the last reload pass.
	pending := make(map[int]bool)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			for i, e := range r.entries {
				if sameFile(event.Name, e.CertFile) || sameFile(event.Name, e.KeyFile) {
					pending[i] = true
				}
			}
			if len(pending) > 0 {
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			}

		case <-fire:
			fire = nil
			for i := range pending {
				r.reload(r.entries[i])
			}
			pending = make(map[int]bool)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("certificate watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

func (r *Reloader) reload(e Entry) {
	cert, err := LoadCertifiedKey(e.CertFile, e.KeyFile, r.logger)
	if err != nil {
		r.logger.Error("certificate reload failed, keeping previous certificate",
			"server_name", e.ServerName,
			"listen", e.ListenAddr,
			"error", err,
		)
		return
	}

	if err := r.manager.AddCertifiedKey(e.ListenAddr, e.ServerName, cert); err != nil {
		r.logger.Error("certificate reload failed, keeping previous certificate",
			"server_name", e.ServerName,
			"listen", e.ListenAddr,
			"error", err,
		)
		return
	}

	r.logger.Info("certificate reloaded",
		"server_name", e.ServerName,
		"listen", e.ListenAddr,
	)
}

// sameFile compares paths after cleaning; the watcher reports names
// relative to the watched directory's spelling.
func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

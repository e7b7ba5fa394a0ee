// Package fallback holds the static directory shipped with the binary. It is
// the last resort when the backend cannot be reached and a region is known.
package fallback

import (
	_ "embed"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"relocation/internal/logger"
	"relocation/internal/models"
	"relocation/pkg/geo"
)

//go:embed sites.yaml
var bundled []byte

type yamlSite struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
}

// Table maps region codes to ordered site lists. Safe for concurrent use;
// reloads swap the whole map atomically.
type Table struct {
	sites atomic.Pointer[map[string][]models.Site]

	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	watchDone chan struct{}
}

// Parse decodes a YAML document of the form `code: [ {name, url, description} ]`.
func Parse(data []byte) (map[string][]models.Site, error) {
	var raw map[string][]yamlSite
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode fallback table: %w", err)
	}
	out := make(map[string][]models.Site, len(raw))
	for code, list := range raw {
		sites := make([]models.Site, 0, len(list))
		for i, s := range list {
			if s.Name == "" || s.URL == "" {
				return nil, fmt.Errorf("fallback table: region %q entry %d needs name and url", code, i)
			}
			sites = append(sites, models.Site{Name: s.Name, URL: s.URL, Description: s.Description})
		}
		out[geo.NormalizeCode(code)] = sites
	}
	return out, nil
}

// New returns a table holding the given mapping.
func New(sites map[string][]models.Site) *Table {
	t := &Table{}
	t.sites.Store(&sites)
	return t
}

// Bundled returns a table loaded from the embedded sites.yaml.
func Bundled() *Table {
	sites, err := Parse(bundled)
	if err != nil {
		panic(err)
	}
	return New(sites)
}

// Sites returns a copy of the entries for a region code. Unknown codes give
// an empty, non-nil slice.
func (t *Table) Sites(code string) []models.Site {
	m := *t.sites.Load()
	list := m[geo.NormalizeCode(code)]
	out := make([]models.Site, len(list))
	copy(out, list)
	return out
}

// Len returns the number of regions in the table.
func (t *Table) Len() int {
	return len(*t.sites.Load())
}

// Load replaces the table with the contents of a YAML file.
func (t *Table) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fallback table %q: %w", path, err)
	}
	sites, err := Parse(data)
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		return fmt.Errorf("fallback table %q has no regions", path)
	}
	t.sites.Store(&sites)
	logger.GetLogger().WithField("path", path).Infof("Loaded fallback table with %d regions", len(sites))
	return nil
}

// WatchFile loads path and reloads it on every write or create event.
// Calling WatchFile again replaces the previous watch. A file that fails to
// parse leaves the current table in place.
func (t *Table) WatchFile(path string) error {
	if err := t.Load(path); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopWatchLocked()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %q: %w", path, err)
	}
	t.watcher = w
	t.watchDone = make(chan struct{})

	go t.watchLoop(w, path, t.watchDone)
	return nil
}

func (t *Table) watchLoop(w *fsnotify.Watcher, path string, done chan struct{}) {
	defer close(done)
	log := logger.GetLogger().WithField("path", path)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				if err := t.Load(path); err != nil {
					log.Warnf("Keeping previous fallback table: %v", err)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warnf("Fallback watcher error: %v", err)
		}
	}
}

func (t *Table) stopWatchLocked() {
	if t.watcher != nil {
		_ = t.watcher.Close()
		<-t.watchDone
		t.watcher = nil
		t.watchDone = nil
	}
}

// Close stops the file watcher, if any.
func (t *Table) Close() {
	t.mu.Lock()
	t.stopWatchLocked()
	t.mu.Unlock()
}

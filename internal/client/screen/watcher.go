package screen

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/profilekeeper/internal/client/notify"
	"github.com/dmitrijs2005/profilekeeper/internal/client/stores"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
)

// Watcher recomputes the screen on every auth or profile store change and
// notifies subscribers when it differs from the previous one.
type Watcher struct {
	auth     *stores.AuthStore
	profiles *stores.ProfileStore
	log      logging.Logger

	mu      sync.Mutex
	current Screen
	unsubs  []func()
	obs     notify.Observers[Screen]
}

func NewWatcher(auth *stores.AuthStore, profiles *stores.ProfileStore, log logging.Logger) *Watcher {
	if log == nil {
		log = logging.NewNop()
	}
	w := &Watcher{
		auth:     auth,
		profiles: profiles,
		log:      log.With("module", "screen"),
	}
	w.current = w.compute()
	w.unsubs = []func(){
		auth.Subscribe(func(stores.AuthState) { w.recompute() }),
		profiles.Subscribe(func(stores.ProfileState) { w.recompute() }),
	}
	return w
}

func (w *Watcher) compute() Screen {
	return Select(FromStores(w.auth.Snapshot(), w.profiles.Snapshot()))
}

func (w *Watcher) recompute() {
	w.mu.Lock()
	next := w.compute()
	if next == w.current {
		w.mu.Unlock()
		return
	}
	prev := w.current
	w.current = next
	w.mu.Unlock()

	w.log.Debug(context.Background(), "screen changed", "from", string(prev), "to", string(next))
	w.obs.Notify(next)
}

// Current returns the screen as of the last store notification.
func (w *Watcher) Current() Screen {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) Subscribe(fn func(Screen)) (unsubscribe func()) {
	return w.obs.Subscribe(fn)
}

// Close stops watching the stores.
func (w *Watcher) Close() {
	w.mu.Lock()
	unsubs := w.unsubs
	w.unsubs = nil
	w.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

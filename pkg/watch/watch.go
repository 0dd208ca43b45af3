// Package watch はステージディレクトリの変更を監視する
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zurustar/sheepedit/pkg/storage"
)

// DefaultDebounce は同じファイルのイベントをまとめる間隔
const DefaultDebounce = 100 * time.Millisecond

// Event はステージファイルの変更
type Event struct {
	Path    string
	LevelID int
	Removed bool // 削除または移動によってファイルがなくなった
}

// Watcher は Level2D_<id>.json の変更を Events に送る
// バックアップやエクスポート、一時ファイルは無視する
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	Events   chan Event
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// New はディレクトリの監視を開始する
// debounce が0以下の場合は DefaultDebounce を使う
func New(dir string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		watcher:  fw,
		debounce: debounce,
		Events:   make(chan Event, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close は監視を終了する
// Events と Errors は監視ゴルーチンの終了後に閉じられる
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

// Run は ctx がキャンセルされるまで、変更ごとに handle を呼び出す
// 監視自体のエラーは onError に渡す
func (w *Watcher) Run(ctx context.Context, handle func(Event), onError func(error)) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			handle(ev)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.Events)
	defer close(w.Errors)

	d := newDebouncer(w.debounce, w.closeCh)
	defer d.stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			ev, ok := filter(event)
			if !ok {
				continue
			}
			if !ev.Removed {
				d.schedule(ev)
				continue
			}
			// 削除はまとめずにすぐ送る
			d.cancel(ev.Path)
			if !w.send(ev) {
				return
			}
		case f := <-d.fired:
			ev, ok := d.take(f)
			if !ok {
				continue
			}
			if !w.send(ev) {
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			case <-w.closeCh:
				return
			}
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) send(ev Event) bool {
	select {
	case w.Events <- ev:
		return true
	case <-w.closeCh:
		return false
	}
}

// filter はステージファイルに関係するイベントだけを Event に変換する
func filter(event fsnotify.Event) (Event, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return Event{}, false
	}
	id, ok := storage.ParseFileName(filepath.Base(event.Name))
	if !ok {
		return Event{}, false
	}
	removed := event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && !event.Op.Has(fsnotify.Create)
	return Event{Path: event.Name, LevelID: id, Removed: removed}, true
}

// firing はタイマーが満了したパスと世代
type firing struct {
	path string
	gen  uint64
}

type pendingEvent struct {
	ev    Event
	gen   uint64
	timer *time.Timer
}

// debouncer はパスごとに、最後のイベントから delay の間イベントがなければ1回だけ通知する
// pending は監視ゴルーチンだけが触る
type debouncer struct {
	delay   time.Duration
	pending map[string]*pendingEvent
	fired   chan firing
	closeCh <-chan struct{}
	gen     uint64
}

func newDebouncer(delay time.Duration, closeCh <-chan struct{}) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*pendingEvent),
		fired:   make(chan firing),
		closeCh: closeCh,
	}
}

// schedule はパスのタイマーを延長し、満了時に送るイベントを ev に置き換える
func (d *debouncer) schedule(ev Event) {
	d.gen++
	f := firing{path: ev.Path, gen: d.gen}
	if p, ok := d.pending[ev.Path]; ok {
		p.timer.Stop()
	}
	d.pending[ev.Path] = &pendingEvent{
		ev:  ev,
		gen: f.gen,
		timer: time.AfterFunc(d.delay, func() {
			select {
			case d.fired <- f:
			case <-d.closeCh:
			}
		}),
	}
}

// cancel はパスの保留中イベントを破棄する
func (d *debouncer) cancel(path string) {
	if p, ok := d.pending[path]; ok {
		p.timer.Stop()
		delete(d.pending, path)
	}
}

// take は満了したタイマーに対応するイベントを取り出す
// 延長や破棄で古くなったタイマーは無視する
func (d *debouncer) take(f firing) (Event, bool) {
	p, ok := d.pending[f.path]
	if !ok || p.gen != f.gen {
		return Event{}, false
	}
	delete(d.pending, f.path)
	return p.ev, true
}

func (d *debouncer) stop() {
	for path := range d.pending {
		d.cancel(path)
	}
}

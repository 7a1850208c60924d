package viewer

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type watcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

func (w *watcher) close() {
	w.w.Close()
	<-w.done
}

// Watch queues a reload whenever an effect source file in dir is written.
// Reloads are applied at the start of the next tick.
func (v *Viewer) Watch(dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return err
	}
	w := &watcher{w: fw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Ext(ev.Name) != ".glsl" || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				v.QueueReload(ev.Name)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				v.logger.Warn("effects watcher error", zap.Error(err))
			}
		}
	}()
	if v.watch != nil {
		v.watch.close()
	}
	v.watch = w
	v.logger.Info("watching effects", zap.String("dir", dir))
	return nil
}

// QueueReload asks the render thread to reload the effect read from path.
// It is safe to call from any goroutine.
func (v *Viewer) QueueReload(path string) {
	select {
	case v.reloads <- path:
	default:
		v.logger.Debug("reload queue full, dropping event", zap.String("path", path))
	}
}

func (v *Viewer) applyReloads() {
	seen := map[string]bool{}
	for {
		select {
		case path := <-v.reloads:
			if !seen[path] {
				seen[path] = true
				v.reload(path)
			}
		default:
			return
		}
	}
}

func (v *Viewer) reload(path string) {
	e, ok := v.lib.ByPath(path)
	if !ok {
		v.logger.Debug("ignoring change to unknown file", zap.String("path", path))
		return
	}
	next, err := v.lib.Reload(e.Name)
	if err != nil {
		v.logger.Warn("effect reload failed", zap.String("effect", e.Name), zap.Error(err))
		return
	}
	if next.Name != v.state.Effect {
		return
	}
	if err := v.renderer.SetProgram(next.ProgramSource()); err != nil {
		v.logger.Warn("reloaded effect failed to compile, keeping previous program",
			zap.String("effect", next.Name), zap.Error(err))
		return
	}
	v.logger.Info("effect reloaded", zap.String("effect", next.Name))
}

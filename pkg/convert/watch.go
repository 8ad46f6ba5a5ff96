package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long Watch waits after the last change before
// converting.
const DefaultDebounce = 200 * time.Millisecond

// WatchFunc receives the outcome of every conversion Watch runs.
type WatchFunc func(res *Result, err error)

// Watch converts in to out once, then again whenever in changes, until ctx
// is cancelled. Bursts of events within debounce are coalesced into one
// conversion. The input's directory is watched so editors that replace the
// file on save are handled.
func (c *Converter) Watch(ctx context.Context, in, out string, debounce time.Duration, fn WatchFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	in, err := filepath.Abs(in)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("convert: watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(in)); err != nil {
		return fmt.Errorf("convert: watch %s: %w", in, err)
	}

	run := func() {
		res, err := c.Convert(ctx, in, out)
		if fn != nil {
			fn(res, err)
		}
	}
	run()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != in || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c.log.Debug("input changed", zap.String("path", e.Name), zap.Stringer("op", e.Op))
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			run()
		}
	}
}

// Package watcher reports changes to a fixed set of files: the app config,
// the build-profile document, and the assets and lockfiles they reference.
//
// fsnotify watches the parent directory of every target, since editors
// often save by renaming a temp file over the original. Where fsnotify is
// unavailable the watcher falls back to polling the targets. Bursts of
// events are coalesced by a Debouncer and delivered as batches.
//
// Usage:
//
//	w, err := watcher.New(watcher.DefaultOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	_ = w.SetTargets([]string{"/app/app.json", "/app/eas.json"})
//	go w.Run(ctx)
//	for batch := range w.Events() {
//	    // re-run the check
//	}
package watcher

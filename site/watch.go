package site

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// Watch polls the source tree and rebuilds the site whenever a source
// file changes. It blocks until a walk of the root fails, which
// normally means the tree was removed under us.
func (b *Builder) Watch() error {

	var old_timestamp time.Time
	var current_timestamp time.Time

	// Loop forever
	for {

		// Get the newest modified timestamp of the source tree
		ts, err := b.newestModTime()
		if err != nil {
			return err
		}
		current_timestamp = ts

		// If a source is newer than the previous pass, rebuild the site
		if old_timestamp.Before(current_timestamp) {
			old_timestamp = current_timestamp
			b.log.Infof("************Rebuilding*************")
			if _, _, err := b.Build(); err != nil {
				b.log.Errorw("rebuild failed", "error", err)
			}
		}

		// Check again in one second
		time.Sleep(1 * time.Second)

	}
}

// newestModTime returns the most recent modification time of the files
// under the source root. The output directory and hidden directories
// are skipped, so writing pages never retriggers a rebuild.
func (b *Builder) newestModTime() (time.Time, error) {
	var newest time.Time
	err := filepath.WalkDir(b.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if b.opts.Output != "" && samePath(path, b.opts.Output) {
				return fs.SkipDir
			}
			if strings.HasPrefix(d.Name(), ".") && !samePath(path, b.opts.Root) {
				return fs.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	return newest, err
}

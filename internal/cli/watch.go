package cli

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy/internal/ingest"
)

func newWatchCmd() *cobra.Command {
	var debounceMs int

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and keep the study material in sync",
		Long: `Start a long-running watcher on a directory of study material. Whenever
a supported file (PDF, Markdown, plain text) is added, changed, or
removed, the session's material is re-extracted from the directory.

Changes are debounced so that saving several files at once triggers a
single re-extraction pass.

Press Ctrl-C to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}

			a, err := newApp("")
			if err != nil {
				return err
			}
			defer a.close()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			if err := addWatchDirs(watcher, dir); err != nil {
				return fmt.Errorf("add watch directories: %w", err)
			}

			// Initial sync so the session reflects the directory up front.
			if err := syncDirectory(a, dir); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}

			debounce := time.Duration(debounceMs) * time.Millisecond
			fmt.Printf("Watching %s for changes (debounce %s). Press Ctrl-C to stop.\n", dir, debounce)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			timer := time.NewTimer(debounce)
			timer.Stop() // Don't fire immediately.
			dirty := false

			for {
				select {
				case <-sigCh:
					fmt.Println("\nStopping watcher.")
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}

					// New subdirectories need their own watch.
					if event.Has(fsnotify.Create) {
						if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
							_ = watcher.Add(event.Name)
							continue
						}
					}

					if !supportedDocument(event.Name) {
						continue
					}
					dirty = true
					timer.Reset(debounce)

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(os.Stderr, "  watch error: %v\n", err)

				case <-timer.C:
					if !dirty {
						continue
					}
					dirty = false
					if err := syncDirectory(a, dir); err != nil {
						fmt.Fprintf(os.Stderr, "  sync error: %v\n", err)
					}
				}
			}
		},
	}

	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "debounce interval in milliseconds")
	return cmd
}

// addWatchDirs recursively adds directories to the watcher.
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// syncDirectory re-extracts every supported document under dir and
// replaces the session's study material with the result.
func syncDirectory(a *app, dir string) error {
	var paths []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if supportedDocument(path) {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)

	sess := a.store.Load(a.key)

	if len(paths) == 0 {
		sess.DocumentText = ""
		if err := a.store.Save(a.key, sess); err != nil {
			return err
		}
		fmt.Printf("[%s] no documents; study material cleared\n", time.Now().Format("15:04:05"))
		return nil
	}

	res, err := ingest.ExtractFiles(paths)
	if err != nil {
		return err
	}

	sess.DocumentText = res.Text
	if err := a.store.Save(a.key, sess); err != nil {
		return err
	}

	fmt.Printf("[%s] synced %d document(s), %d characters\n",
		time.Now().Format("15:04:05"), len(res.Names), len(res.Text))
	return nil
}

func supportedDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md", ".markdown", ".rst", ".text":
		return true
	}
	return false
}

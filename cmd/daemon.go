package cmd

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/services"
	"github.com/pxvault/px/pkg/ui"
)

var (
	daemonQuiet bool
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch library roots and rescan on changes",
	Long: `Run a foreground daemon that watches the configured library roots and
rescans automatically when image files are created, modified, renamed
or removed.

Changes are debounced so a burst of file events triggers one scan.

Use --quiet to suppress rescan notifications.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().BoolVarP(&daemonQuiet, "quiet", "q", false, "Suppress rescan notifications")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	if len(appConfig.Roots) == 0 {
		fmt.Println(ui.FormatError("No roots configured"))
		fmt.Println(ui.FormatInfo("Add roots to the config or run 'px init <dir>'"))
		return fmt.Errorf("no roots configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range appConfig.Roots {
		if err := watchTree(watcher, root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	if !daemonQuiet {
		fmt.Println(ui.FormatScan("Starting px daemon..."))
		for _, root := range appConfig.Roots {
			fmt.Println(ui.FormatMuted("Watching: " + root))
		}
		fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
		fmt.Println()
	}

	// Debounce timer to avoid rescanning on every event in a burst
	var debounceTimer *time.Timer
	debounceDuration := time.Duration(appConfig.WatchDebounceMS) * time.Millisecond
	needsRescan := false

	doRescan := func() {
		if !needsRescan {
			return
		}
		needsRescan = false

		if !daemonQuiet {
			fmt.Println(ui.FormatInfo("File changes detected, rescanning..."))
		}

		resp, err := scanService.Execute(ctx, services.ScanRequest{
			Roots:         appConfig.Roots,
			Recursive:     appConfig.ScanRecursive,
			ComputeHashes: appConfig.ComputeHashes,
			Prune:         true,
		})
		if err != nil {
			if !daemonQuiet {
				fmt.Println(ui.FormatError("Rescan failed: " + err.Error()))
			}
			log.Printf("Rescan error: %v", err)
			return
		}

		if !daemonQuiet {
			fmt.Println(ui.FormatSuccess(fmt.Sprintf("Index updated (%d scanned, %d changed, %d pruned)",
				resp.Scanned, resp.Indexed, resp.Pruned)))
		}
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			baseName := filepath.Base(event.Name)
			if strings.HasPrefix(baseName, ".") || strings.HasPrefix(baseName, "~") {
				continue
			}

			// New directories join the watch so files inside them are seen
			if event.Has(fsnotify.Create) && appConfig.ScanRecursive {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						log.Printf("Watch error for %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !domain.IsSupportedPath(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) {

				needsRescan = true

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, doRescan)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			if !daemonQuiet {
				fmt.Println()
				fmt.Println(ui.FormatMuted("Daemon stopped"))
			}
			return nil
		}
	}
}

// watchTree adds a directory and, when recursive scanning is on, every
// subdirectory below it to the watcher
func watchTree(watcher *fsnotify.Watcher, root string) error {
	if !appConfig.ScanRecursive {
		return watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"typhon/internal/diag"
	"typhon/internal/diagfmt"
	"typhon/internal/source"
	"typhon/internal/workspace"
)

var (
	flagDebounce time.Duration
	flagShort    bool
)

func init() {
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", 200*time.Millisecond, "settle time before re-analysis")
	watchCmd.Flags().BoolVar(&flagShort, "short", false, "one line per diagnostic, no source context")
}

var watchCmd = &cobra.Command{
	Use:   "watch [directories]",
	Short: "Re-analyze documents as they change",
	Long: `Watch performs an initial check, then follows the document roots and
re-analyzes changed ` + workspace.DocExt + ` files until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, fileSet, err := loadCheckConfig(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		units, ioBag := loadUnits(fileSet, opts.docs)
		results, err := workspace.AnalyzeAll(ctx, units, opts.analysis)
		if err != nil {
			return err
		}
		store := workspace.NewStore()
		snap := store.Replace(results)
		printSnapshot(cmd, snap, fileSet, opts)
		if ioBag.Len() > 0 {
			diagfmt.Pretty(cmd.OutOrStdout(), ioBag, fileSet, prettyOpts(opts))
		}

		session := workspace.NewSession(ctx, store, opts.analysis)
		defer session.Close()

		watcher, err := workspace.NewWatcher(flagDebounce, func(changed, removed []string) {
			for _, path := range removed {
				session.Remove(path)
			}
			for _, path := range changed {
				data, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "read %s: %v\n", path, err)
					continue
				}
				unit, derr := decodeUnit(fileSet, path, data)
				if derr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", derr.Message)
					continue
				}
				session.Update(unit)
			}
			session.Wait()
			printSnapshot(cmd, store.Current(), fileSet, opts)
		})
		if err != nil {
			return err
		}
		defer watcher.Close()

		roots := args
		if len(roots) == 0 {
			roots = watchRoots(opts)
		}
		if err := watcher.Watch(roots...); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "watching for changes, ^C to stop")
		<-ctx.Done()
		return nil
	},
}

// watchRoots derives directories to follow from the resolved document
// list.
func watchRoots(opts checkOptions) []string {
	seen := make(map[string]struct{})
	var roots []string
	for _, doc := range opts.docs {
		dir := filepath.Dir(doc)
		if _, dup := seen[dir]; !dup {
			seen[dir] = struct{}{}
			roots = append(roots, dir)
		}
	}
	return roots
}

func printSnapshot(cmd *cobra.Command, snap *workspace.Snapshot, fileSet *source.FileSet, opts checkOptions) {
	if snap == nil {
		return
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "--- snapshot v%d ---\n", snap.Version)
	if flagJSON {
		_ = diagfmt.JSON(w, snap.Bag, fileSet, diagfmt.JSONOpts{
			PathMode:     diagfmt.PathModeRelative,
			BaseDir:      opts.baseDir,
			IncludeNotes: true,
		})
		return
	}
	if flagShort {
		fmt.Fprint(w, diag.FormatShortDiagnostics(snap.Bag.Items(), fileSet, false))
	} else {
		diagfmt.Pretty(w, snap.Bag, fileSet, prettyOpts(opts))
	}
	summarize(w, snap.Bag)
}

func prettyOpts(opts checkOptions) diagfmt.PrettyOpts {
	return diagfmt.PrettyOpts{
		Color:     colorEnabled(),
		PathMode:  diagfmt.PathModeRelative,
		BaseDir:   opts.baseDir,
		ShowNotes: true,
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"typhon/internal/astcodec"
	"typhon/internal/diag"
	"typhon/internal/diagfmt"
	"typhon/internal/observ"
	"typhon/internal/project"
	"typhon/internal/source"
	"typhon/internal/workspace"
)

var (
	flagJobs int
)

func init() {
	checkCmd.Flags().IntVar(&flagJobs, "jobs", 0, "concurrent analyses (0 = all CPUs)")
}

var errChecksFailed = errors.New("analysis reported errors")

var checkCmd = &cobra.Command{
	Use:   "check [documents or directories]",
	Short: "Analyze syntax tree documents",
	Long: `Check runs semantic analysis over ` + workspace.DocExt + ` documents and
prints the diagnostics. Without arguments it analyzes the document
roots of the nearest typhon.toml, or the current directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, fileSet, err := loadCheckConfig(args)
		if err != nil {
			return err
		}

		timer := observ.NewTimer()

		phase := timer.Begin("load")
		units, ioBag := loadUnits(fileSet, opts.docs)
		timer.End(phase, fmt.Sprintf("%d document(s)", len(opts.docs)))

		phase = timer.Begin("analyze")
		results, err := workspace.AnalyzeAll(context.Background(), units, opts.analysis)
		if err != nil {
			return err
		}
		snap := workspace.NewStore().Replace(results)
		snap.Bag.Merge(ioBag)
		snap.Bag.Sort()
		timer.End(phase, "")

		phase = timer.Begin("render")
		if err := render(cmd.OutOrStdout(), snap.Bag, fileSet, opts); err != nil {
			return err
		}
		timer.End(phase, "")

		if opts.exportIndex {
			exportIndex(results)
		}

		if flagTimings {
			fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
		}
		if snap.ErrorCount() > 0 || ioBag.HasErrors() {
			return errChecksFailed
		}
		return nil
	},
}

type checkOptions struct {
	docs        []string
	analysis    workspace.Options
	baseDir     string
	exportIndex bool
}

// loadCheckConfig merges typhon.toml with command-line flags; flags
// win.
func loadCheckConfig(args []string) (checkOptions, *source.FileSet, error) {
	opts := checkOptions{
		analysis: workspace.Options{
			Jobs:           flagJobs,
			MaxDiagnostics: flagMaxDiagnostics,
		},
	}

	manifest, ok, err := project.Load(".")
	if err != nil {
		return opts, nil, err
	}

	roots := []string{"."}
	if ok {
		opts.baseDir = manifest.Root
		opts.exportIndex = true
		roots = manifest.DocRoots()
		if opts.analysis.Jobs == 0 {
			opts.analysis.Jobs = manifest.Config.Check.Jobs
		}
		if opts.analysis.MaxDiagnostics == 0 {
			opts.analysis.MaxDiagnostics = manifest.Config.Check.MaxDiagnostics
		}
	}
	if len(args) > 0 {
		roots = args
	}

	opts.docs, err = collectDocs(roots)
	if err != nil {
		return opts, nil, err
	}
	if len(opts.docs) == 0 {
		return opts, nil, fmt.Errorf("no %s documents found", workspace.DocExt)
	}
	return opts, source.NewFileSetWithBase(opts.baseDir), nil
}

// collectDocs expands arguments: directories recursively, files as-is.
func collectDocs(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var docs []string
	add := func(path string) {
		if _, dup := seen[path]; !dup {
			seen[path] = struct{}{}
			docs = append(docs, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == workspace.DocExt {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(docs)
	return docs, nil
}

// loadUnits reads and decodes every document. Failures become IO
// diagnostics instead of aborting the run.
func loadUnits(fileSet *source.FileSet, docs []string) ([]workspace.Unit, *diag.Bag) {
	bag := diag.NewBag(len(docs))
	var units []workspace.Unit

	for _, path := range docs {
		data, err := os.ReadFile(path)
		if err != nil {
			bag.Add(diag.Diagnostic{
				Severity: diag.SevError,
				Code:     diag.IOReadFailed,
				Message:  fmt.Sprintf("%s: %v", path, err),
			})
			continue
		}
		unit, derr := decodeUnit(fileSet, path, data)
		if derr != nil {
			bag.Add(*derr)
			continue
		}
		units = append(units, unit)
	}
	return units, bag
}

// decodeUnit turns document bytes into an analyzable unit. The
// original source registers in the file set when still readable, so
// diagnostics can show carets; a missing source degrades to positions
// without context lines.
func decodeUnit(fileSet *source.FileSet, docPath string, data []byte) (workspace.Unit, *diag.Diagnostic) {
	doc, err := astcodec.DecodeDoc(data)
	if err != nil {
		return workspace.Unit{}, &diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.IODecodeFailed,
			Message:  fmt.Sprintf("%s: %v", docPath, err),
		}
	}

	var fileID source.FileID
	if doc.Path != "" {
		fileID, err = fileSet.Load(doc.Path)
	}
	if doc.Path == "" || err != nil {
		name := doc.Path
		if name == "" {
			name = docPath
		}
		fileID = fileSet.AddVirtual(name, nil)
	}

	module, err := astcodec.FromDoc(doc, fileID)
	if err != nil {
		code := diag.IODecodeFailed
		if doc.Version != astcodec.Version {
			code = diag.IOVersionSkew
		}
		return workspace.Unit{}, &diag.Diagnostic{
			Severity: diag.SevError,
			Code:     code,
			Message:  fmt.Sprintf("%s: %v", docPath, err),
		}
	}
	return workspace.Unit{Path: docPath, File: fileID, Module: module}, nil
}

// exportIndex persists per-document public symbol summaries for other
// tooling. Failures are silent; the cache is advisory.
func exportIndex(results []workspace.UnitResult) {
	cache, err := workspace.OpenCache("typhon", "")
	if err != nil {
		return
	}
	for _, r := range results {
		data, err := os.ReadFile(r.Unit.Path)
		if err != nil {
			continue
		}
		_ = cache.Put(workspace.DigestOf(data), workspace.PayloadFor(r))
	}
}

func render(w io.Writer, bag *diag.Bag, fileSet *source.FileSet, opts checkOptions) error {
	if flagJSON {
		return diagfmt.JSON(w, bag, fileSet, diagfmt.JSONOpts{
			PathMode:     diagfmt.PathModeRelative,
			BaseDir:      opts.baseDir,
			IncludeNotes: true,
			IncludeFixes: true,
		})
	}
	diagfmt.Pretty(w, bag, fileSet, diagfmt.PrettyOpts{
		Color:     colorEnabled(),
		PathMode:  diagfmt.PathModeRelative,
		BaseDir:   opts.baseDir,
		ShowNotes: true,
		ShowFixes: true,
	})
	summarize(w, bag)
	return nil
}

func summarize(w io.Writer, bag *diag.Bag) {
	errs, warns := 0, 0
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	switch {
	case errs > 0:
		fmt.Fprintf(w, "%d error(s), %d warning(s)\n", errs, warns)
	case warns > 0:
		fmt.Fprintf(w, "%d warning(s)\n", warns)
	default:
		fmt.Fprintln(w, "no issues found")
	}
}

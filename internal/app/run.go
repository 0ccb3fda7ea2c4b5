package app

import (
	"context"
	"fmt"

	"github.com/vk/labgate/internal/compose"
	"github.com/vk/labgate/internal/course"
	"github.com/vk/labgate/internal/ctxlog"
	"github.com/vk/labgate/internal/dag"
	"github.com/vk/labgate/internal/export"
	"github.com/vk/labgate/internal/gatekeeper"
	"github.com/vk/labgate/internal/history"
	"github.com/vk/labgate/internal/marker"
	"github.com/vk/labgate/internal/registry"
)

// Run executes one invocation. Every mode runs the same pipeline up to the
// validated graph; scanning and graph errors are structural and abort the
// run with no output written.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started.", "mode", cfg.Mode)

	root := cfg.ScanRoot()
	spans, err := marker.ScanTree(ctx, root, cfg.SparePaths)
	if err != nil {
		return err
	}
	decls, err := course.Load(ctx, root, cfg.SparePaths)
	if err != nil {
		return err
	}
	reg, err := registry.Build(ctx, spans, decls)
	if err != nil {
		return err
	}
	graph, err := dag.Build(ctx, reg, decls)
	if err != nil {
		return err
	}
	a.logger.Debug("Pipeline built.", "tasks", len(reg.Tasks), "labs", len(reg.Labs), "spans", spans.Count())

	switch cfg.Mode {
	case ModeCompose:
		return a.runCompose(ctx, cfg, spans, reg, graph)
	case ModeCheck, ModeCheckAll:
		return a.runCheck(ctx, cfg, spans, reg, graph)
	case ModeDumpAll:
		fmt.Fprint(a.outW, export.All(graph))
		return nil
	case ModeDumpGroup:
		lab, ok := reg.Lab(cfg.Group)
		if !ok {
			return fmt.Errorf("unknown lab: %s", cfg.Group)
		}
		fmt.Fprint(a.outW, export.Group(graph, lab))
		return nil
	case ModeStat:
		a.printStat(reg, spans)
		return nil
	}
	return fmt.Errorf("unsupported mode: %s", cfg.Mode)
}

func (a *App) runCompose(ctx context.Context, cfg *Config, spans marker.Spans, reg *registry.Registry, graph *dag.Graph) error {
	if _, err := compose.Compose(ctx, cfg.InPath, cfg.OutPath, cfg.SparePaths, spans); err != nil {
		return err
	}

	manifest := compose.BuildManifest(reg, graph)
	manifestPath := cfg.ManifestPath
	if manifestPath == "" {
		manifestPath = cfg.OutPath + ".manifest.yaml"
	}
	if err := manifest.WriteFile(manifestPath); err != nil {
		return &compose.IOError{Op: "write manifest", Path: manifestPath, Err: err}
	}
	a.logger.Info("Public view composed.", "out", cfg.OutPath, "manifest", manifestPath, "tasks", len(manifest.Tasks))
	return nil
}

func (a *App) runCheck(ctx context.Context, cfg *Config, spans marker.Spans, reg *registry.Registry, graph *dag.Graph) error {
	store, err := history.NewSQLiteStore(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	gk := gatekeeper.New(reg, graph, spans, store, gatekeeper.GitCLI{}, cfg.BranchPrefix)
	opts := gatekeeper.Options{
		NoPrerequisitesCheck: cfg.NoPrerequisitesCheck,
		DryRun:               cfg.DryRun,
	}

	var results []*gatekeeper.CheckResult
	if cfg.Mode == ModeCheckAll {
		results, err = gk.CheckAll(ctx, cfg.StudentRepo, cfg.OriginalRepo, cfg.UserID, opts)
		if err != nil {
			return err
		}
	} else {
		result, err := gk.Check(ctx, gatekeeper.Request{
			StudentRepo:  cfg.StudentRepo,
			OriginalRepo: cfg.OriginalRepo,
			Branch:       cfg.CIBranchName,
			UserID:       cfg.UserID,
			Options:      opts,
		})
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	failed := false
	for _, result := range results {
		a.printResult(result)
		if !result.Passed {
			failed = true
		}
	}
	if failed {
		return &SubmissionRejectedError{Results: results}
	}
	return nil
}

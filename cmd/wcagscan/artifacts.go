package main

import (
	"errors"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wcagscan/internal/config"
	"github.com/nao1215/wcagscan/internal/junit"
	"github.com/nao1215/wcagscan/internal/model"
	"github.com/nao1215/wcagscan/internal/report"
)

// artifact is one report file produced after a run.
type artifact struct {
	kind  string
	path  string
	write func() error
}

// plannedArtifacts lists the enabled report files of cfg.
func plannedArtifacts(cfg *config.Config, run *model.RunReport) []artifact {
	emitter := junit.NewEmitter(
		junit.WithPath(cfg.JUnitOutput),
		junit.WithSuiteName(cfg.SuiteName),
		junit.WithClassName(cfg.ClassName),
	)
	artifacts := []artifact{{
		kind:  "JUnit",
		path:  emitter.Path(),
		write: func() error { return emitter.Emit(run.Outcomes) },
	}}

	if cfg.HTMLOutput != "" {
		artifacts = append(artifacts, fileArtifact("HTML", cfg.HTMLOutput, run, func(w io.Writer) report.Writer {
			return report.NewHTMLWriter(w,
				report.WithHTMLTitle(cfg.HTMLTitle),
				report.WithHTMLTheme(cfg.HTMLTheme),
				report.WithHTMLFailureMessages(cfg.HTMLIncludeFailureMsg),
			)
		}))
	}
	if cfg.JSONOutput != "" {
		artifacts = append(artifacts, fileArtifact("JSON", cfg.JSONOutput, run, func(w io.Writer) report.Writer {
			return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
		}))
	}
	if cfg.MarkdownOutput != "" {
		artifacts = append(artifacts, fileArtifact("Markdown", cfg.MarkdownOutput, run, func(w io.Writer) report.Writer {
			return report.NewMarkdownWriter(w,
				report.WithMarkdownTitle(cfg.HTMLTitle),
				report.WithMarkdownFailureMessages(cfg.HTMLIncludeFailureMsg),
			)
		}))
	}
	return artifacts
}

func fileArtifact(kind, path string, run *model.RunReport, newWriter report.Factory) artifact {
	return artifact{
		kind:  kind,
		path:  path,
		write: func() error { return report.WriteFile(path, newWriter, run) },
	}
}

// writeArtifacts writes every enabled report concurrently. A failed
// artifact does not stop the others; all failures are returned joined.
func writeArtifacts(cfg *config.Config, run *model.RunReport, console *report.ConsoleWriter, logger *slog.Logger) error {
	artifacts := plannedArtifacts(cfg, run)
	errs := make([]error, len(artifacts))

	var g errgroup.Group
	for i, a := range artifacts {
		g.Go(func() error {
			errs[i] = a.write()
			return nil
		})
	}
	_ = g.Wait()

	for i, a := range artifacts {
		if errs[i] != nil {
			logger.Error("failed to write report", "kind", a.kind, "path", a.path, "error", errs[i])
			continue
		}
		consoleErr(logger, console.ArtifactWritten(a.kind, a.path))
	}
	return errors.Join(errs...)
}

package oficio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// surveyExtensions are the vector formats survey files are delivered in.
var surveyExtensions = []string{".gpkg", ".geojson", ".json", ".zip"}

// Summary collects the outcome of a batch. It is safe for concurrent use.
type Summary struct {
	mu        sync.Mutex
	Generated []*Result
	Skipped   []string
	Failures  map[string]error
}

func NewSummary() *Summary {
	return &Summary{Failures: map[string]error{}}
}

func (s *Summary) ok(res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Generated = append(s.Generated, res)
}

func (s *Summary) skip(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped = append(s.Skipped, path)
}

func (s *Summary) fail(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failures[path] = err
}

func (s *Summary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total()
}

func (s *Summary) total() int {
	return len(s.Generated) + len(s.Failures)
}

// Err joins the failures, or is nil when every memo was generated.
func (s *Summary) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Failures) == 0 {
		return nil
	}
	paths := make([]string, 0, len(s.Failures))
	for p := range s.Failures {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf("%s: %v", filepath.Base(p), s.Failures[p]))
	}
	return fmt.Errorf("%d of %d memos failed:\n%s", len(s.Failures), s.total(), strings.Join(lines, "\n"))
}

// SurveyFiles lists the files of dir named with a memo id and a type suffix.
func SurveyFiles(dir string) ([]string, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var files, skipped []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !slices.Contains(surveyExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		if _, err := TypeFromPath(path); err != nil {
			skipped = append(skipped, path)
			continue
		}
		if _, err := ParseID(path); err != nil {
			skipped = append(skipped, path)
			continue
		}
		files = append(files, path)
	}
	return files, skipped, nil
}

// Batch generates a memo for every survey file in dir. Failures are
// collected in the summary rather than stopping the batch; only a
// cancelled context does. Memos sharing an id share a report directory,
// so with bundle set each directory is zipped once after all of its memos
// are written.
func (g *Generator) Batch(ctx context.Context, dir string, bundle bool) (*Summary, error) {
	files, skipped, err := SurveyFiles(dir)
	if err != nil {
		return nil, err
	}

	summary := NewSummary()
	for _, p := range skipped {
		g.log.Warn().Str("path", p).Msg("skipping file without memo id and type suffix")
		summary.skip(p)
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, g.cfg.Workers))

	for _, path := range files {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			t, _ := TypeFromPath(path)
			res, err := g.Generate(gctx, Request{Type: t, Path: path})
			if err != nil {
				g.log.Error().Err(err).Str("path", path).Msg("failed to generate memo")
				summary.fail(path, err)
				return nil
			}
			summary.ok(res)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return summary, err
	}

	slices.SortFunc(summary.Generated, func(a, b *Result) int {
		return strings.Compare(a.Document, b.Document)
	})

	if bundle {
		if err := g.bundleAll(ctx, summary); err != nil {
			return summary, err
		}
	}

	if g.cfg.MetricsFile != "" {
		if err := g.health.WriteTextfile(g.cfg.MetricsFile); err != nil {
			g.log.Warn().Err(err).Msg("failed to write metrics")
		}
	}

	return summary, nil
}

// bundleAll zips and uploads the report directory of every generated id.
func (g *Generator) bundleAll(ctx context.Context, summary *Summary) error {
	byID := map[string][]*Result{}
	var ids []string
	for _, res := range summary.Generated {
		if _, ok := byID[res.ID]; !ok {
			ids = append(ids, res.ID)
		}
		byID[res.ID] = append(byID[res.ID], res)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		path, objectKey, err := g.bundle(ctx, id)
		if err != nil {
			g.log.Error().Err(err).Str("id", id).Msg("failed to bundle report")
			summary.fail(filepath.Join(g.cfg.ReportDir, id), err)
			continue
		}
		for _, res := range byID[id] {
			res.Bundle = path
			if objectKey != "" {
				res.Keys = append(res.Keys, objectKey)
			}
		}
	}
	return nil
}

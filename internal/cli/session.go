package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/sidebearing/internal/editor"
	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/metrics"
	"github.com/roach88/sidebearing/internal/rulestore"
	"github.com/roach88/sidebearing/internal/store"
)

// session is a font fixture loaded for editing. With --db every rule change
// is also appended to the snapshot log.
type session struct {
	font    *font.Font
	rules   *rulestore.Store
	editor  *editor.Editor
	log     *store.Store
	metrics *metrics.Metrics
}

func openSession(ctx context.Context, opts *RootOptions, path string, cmd *cobra.Command) (*session, error) {
	f, table, err := LoadFontFile(path)
	if err != nil {
		return nil, err
	}

	logger := opts.logger(cmd.ErrOrStderr())
	s := &session{font: f, metrics: metrics.New(prometheus.NewRegistry())}

	storeOpts := []rulestore.Option{
		rulestore.WithLogger(logger),
		rulestore.WithMetrics(s.metrics),
	}
	if opts.DB != "" {
		log, err := opts.openStore()
		if err != nil {
			return nil, err
		}
		s.log = log
		storeOpts = append(storeOpts, rulestore.WithPersister(log.Persister(ctx, opts.FontID)))
	}

	s.rules = rulestore.FromSnapshot(ir.NewSnapshot(table), storeOpts...)
	s.editor = editor.New(f, s.rules, editor.WithLogger(logger), editor.WithMetrics(s.metrics))
	return s, nil
}

func (s *session) Close() error {
	if s.log == nil {
		return nil
	}
	return s.log.Close()
}

// writeFixture saves the edited font and rules to path.
func (s *session) writeFixture(path string) error {
	data, err := s.font.Fixture(s.rules.AllRules()).Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// glyphMetrics returns the metrics of names, skipping glyphs not in the font.
func (s *session) glyphMetrics(names []string) map[string]font.Metrics {
	all := s.font.Metrics()
	out := make(map[string]font.Metrics, len(names))
	for _, name := range names {
		if m, ok := all[name]; ok {
			out[name] = m
		}
	}
	return out
}

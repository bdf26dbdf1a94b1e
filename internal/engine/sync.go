package engine

// Sync re-evaluates rules in one pass. With sources it covers every glyph
// affected by any of them, in BatchOrder; with none it covers every
// rule-bearing glyph in FullOrder. Each glyph is evaluated once and only
// margins whose value changes are written.
//
// Use it after a series of raw edits made with ApplyRules off: shared
// dependents are recomputed once instead of once per source.
func (a *Arbiter) Sync(rec Recorder, sources []string) *Outcome {
	if rec == nil {
		rec = NopRecorder{}
	}
	var order []string
	if len(sources) == 0 {
		order = a.eval.FullOrder()
	} else {
		order = a.eval.BatchOrder(sources)
	}

	out := &Outcome{}
	a.replay(rec, order, true, out)

	a.cfg.logger.Debug("rules synced",
		"sources", len(sources),
		"ordered", len(order),
		"changed", out.Changed,
		"warnings", len(out.Warnings),
	)
	return out
}

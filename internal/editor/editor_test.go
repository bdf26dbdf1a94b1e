package editor

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/rulestore"
	"github.com/roach88/sidebearing/internal/testutil"
)

const editorFont = `
glyphs:
  A: {left: 20, right: 20, width: 600, contours: 2}
  E: {left: 10, right: 10, width: 500, contours: 1}
  H: {left: 40, right: 33, width: 700, contours: 2}
  O: {left: 30, right: 30, width: 650, contours: 1}
  Aacute: {left: 20, right: 20, width: 600, components: [{base: A}]}
  Agrave: {left: 20, right: 20, width: 600, components: [{base: A}]}
  space: {width: 250}
rules:
  E: {left: "=H"}
  O: {right: "=|"}
`

type EditorSuite struct {
	suite.Suite

	font  *font.Font
	rules *rulestore.Store
	ed    *Editor
}

func TestEditorSuite(t *testing.T) {
	suite.Run(t, new(EditorSuite))
}

func (s *EditorSuite) SetupTest() {
	f, table := testutil.MustFixture(editorFont)
	s.font = f
	s.rules = rulestore.FromSnapshot(ir.NewSnapshot(table), rulestore.WithLogger(testutil.DiscardLogger()))
	s.ed = New(f, s.rules, WithLogger(testutil.DiscardLogger()))
}

func (s *EditorSuite) margin(glyph string, side ir.Side) float64 {
	v, ok := s.font.Margin(glyph, side)
	s.Require().True(ok, "%s.%s undefined", glyph, side)
	return v
}

func (s *EditorSuite) execute(cmd Command) *Result {
	res, err := s.ed.Execute(cmd)
	s.Require().NoError(err)
	return res
}

func (s *EditorSuite) TestSetMarginUndoRedo() {
	res := s.execute(NewSetMargin("H", ir.SideLeft, 50))
	s.Equal("Set left margin H = 50", res.Message)
	s.NotEqual(uuid.Nil, uuid.MustParse(res.ID))
	s.Equal(50.0, s.margin("H", ir.SideLeft))
	s.Equal(50.0, s.margin("E", ir.SideLeft), "cascade")
	s.Equal(710.0, s.font.Width("H"))

	undo, err := s.ed.Undo()
	s.Require().NoError(err)
	s.Equal("Undid: Set left margin H = 50", undo.Message)
	s.Equal(res.ID, undo.ID)
	s.ElementsMatch([]string{"H", "E"}, undo.Affected)
	s.Equal(40.0, s.margin("H", ir.SideLeft))
	s.Equal(33.0, s.margin("H", ir.SideRight))
	s.Equal(700.0, s.font.Width("H"))
	s.Equal(10.0, s.margin("E", ir.SideLeft))
	s.Equal(500.0, s.font.Width("E"))

	redo, err := s.ed.Redo()
	s.Require().NoError(err)
	s.Equal("Redid: Set left margin H = 50", redo.Message)
	s.Equal(50.0, s.margin("H", ir.SideLeft))
	s.Equal(50.0, s.margin("E", ir.SideLeft))

	_, err = s.ed.Undo()
	s.Require().NoError(err)
	s.Equal(40.0, s.margin("H", ir.SideLeft))
	s.Equal(10.0, s.margin("E", ir.SideLeft))
}

func (s *EditorSuite) TestAdjustMarginUndoesPropagation() {
	res := s.execute(NewAdjustMargin("A", ir.SideLeft, 10))
	s.Equal("Adjust left margin A +10", res.Message)
	s.Equal(30.0, s.margin("A", ir.SideLeft))
	s.Equal(30.0, s.margin("Aacute", ir.SideLeft))
	s.Equal(30.0, s.margin("Agrave", ir.SideLeft))

	_, err := s.ed.Undo()
	s.Require().NoError(err)
	for _, g := range []string{"A", "Aacute", "Agrave"} {
		s.Equal(20.0, s.margin(g, ir.SideLeft), g)
		s.Equal(20.0, s.margin(g, ir.SideRight), g)
		s.Equal(600.0, s.font.Width(g), g)
	}
}

func (s *EditorSuite) TestNegativeAdjustDescription() {
	s.Equal("Adjust right margin A -2.5", NewAdjustMargin("A", ir.SideRight, -2.5).Description())
}

func (s *EditorSuite) TestEmptyGlyphWidthRestored() {
	s.execute(NewAdjustMargin("space", ir.SideLeft, 10))
	s.Equal(260.0, s.font.Width("space"))

	_, err := s.ed.Undo()
	s.Require().NoError(err)
	s.Equal(250.0, s.font.Width("space"))
}

func (s *EditorSuite) TestSetRuleApplyAndUndo() {
	cmd := &SetRule{Glyph: "A", Side: ir.SideRight, Rule: "=H|", Apply: true}
	s.Equal("Set rule A.right = '=H|'", cmd.Description())

	res := s.execute(cmd)
	s.Equal(40.0, s.margin("A", ir.SideRight))
	s.Contains(res.Affected, "A")

	_, err := s.ed.Undo()
	s.Require().NoError(err)
	s.False(s.rules.HasRule("A", ir.SideRight))
	s.Equal(20.0, s.margin("A", ir.SideRight))

	_, err = s.ed.Redo()
	s.Require().NoError(err)
	rule, ok := s.rules.Rule("A", ir.SideRight)
	s.True(ok)
	s.Equal("=H|", rule)
	s.Equal(40.0, s.margin("A", ir.SideRight))
}

func (s *EditorSuite) TestSetRuleWithoutApplyLeavesMargins() {
	s.execute(&SetRule{Glyph: "A", Side: ir.SideBoth, Rule: "=H"})
	s.True(s.rules.HasRule("A", ir.SideLeft))
	s.True(s.rules.HasRule("A", ir.SideRight))
	s.Equal(20.0, s.margin("A", ir.SideLeft))
}

func (s *EditorSuite) TestRemoveRuleRestoresExactRule() {
	res := s.execute(&RemoveRule{Glyph: "E", Side: ir.SideLeft})
	s.Equal("Removed rule for E", res.Message)
	s.False(s.rules.HasAnyRule("E"))

	_, err := s.ed.Undo()
	s.Require().NoError(err)
	rule, ok := s.rules.Rule("E", ir.SideLeft)
	s.True(ok)
	s.Equal("=H", rule)
	s.Equal([]string{"E"}, s.rules.Dependents("H"))
}

func (s *EditorSuite) TestRemoveAbsentRuleIsRecorded() {
	res := s.execute(&RemoveRule{Glyph: "A", Side: ir.SideBoth})
	s.Equal("No rule to remove for A", res.Message)
	s.True(s.ed.CanUndo())
}

func (s *EditorSuite) TestClearAllRules() {
	before := s.rules.AllRules()
	res := s.execute(&ClearRules{})
	s.Equal("Cleared rules for 2 glyphs", res.Message)
	s.Zero(s.rules.Len())

	_, err := s.ed.Undo()
	s.Require().NoError(err)
	s.Equal(before, s.rules.AllRules())
}

func (s *EditorSuite) TestSyncRules() {
	// Raw writes bypass the cascade and leave rules stale.
	s.Require().NoError(s.font.SetMargin("H", ir.SideLeft, 55))
	s.Require().NoError(s.font.SetMargin("O", ir.SideLeft, 45))

	res := s.execute(&SyncRules{})
	s.Equal("Synced 2 margins", res.Message)
	s.Equal(55.0, s.margin("E", ir.SideLeft))
	s.Equal(45.0, s.margin("O", ir.SideRight))

	again := s.execute(&SyncRules{})
	s.Equal("No changes needed", again.Message)
	s.Empty(again.Affected)

	_, err := s.ed.Undo()
	s.Require().NoError(err)
	_, err = s.ed.Undo()
	s.Require().NoError(err)
	s.Equal(10.0, s.margin("E", ir.SideLeft))
	s.Equal(30.0, s.margin("O", ir.SideRight))
	s.Equal(55.0, s.margin("H", ir.SideLeft), "raw write is not part of the history")
}

func (s *EditorSuite) TestSyncRulesFromSources() {
	s.Require().NoError(s.font.SetMargin("H", ir.SideLeft, 55))
	s.Require().NoError(s.font.SetMargin("O", ir.SideLeft, 45))

	cmd := &SyncRules{Sources: []string{"H"}}
	s.Equal("Sync rules from H", cmd.Description())
	res := s.execute(cmd)
	s.Equal("Synced 1 margins", res.Message)
	s.Equal([]string{"E"}, res.Affected)
	s.Equal(30.0, s.margin("O", ir.SideRight), "O is not downstream of H")
}

func (s *EditorSuite) TestApplyRules() {
	table := ir.RuleTable{
		"E":      {ir.SideLeft: "=O"},
		"Aacute": {ir.SideLeft: "=A", ir.SideRight: "=A"},
	}
	res := s.execute(&ApplyRules{Rules: table, Sync: true})
	s.Equal("Applied rules to 1 glyphs", res.Message)
	s.Equal([]string{"Aacute"}, res.Affected)
	rule, _ := s.rules.Rule("E", ir.SideLeft)
	s.Equal("=H", rule, "existing rules kept without Overwrite")

	res = s.execute(&ApplyRules{Rules: table, Overwrite: true, Sync: true})
	s.Equal("Applied rules to 2 glyphs", res.Message)
	s.Equal(30.0, s.margin("E", ir.SideLeft))

	_, err := s.ed.Undo()
	s.Require().NoError(err)
	rule, _ = s.rules.Rule("E", ir.SideLeft)
	s.Equal("=H", rule)
	s.Equal(10.0, s.margin("E", ir.SideLeft))
}

func (s *EditorSuite) TestFailedCommandRollsBack() {
	table := ir.RuleTable{
		"A": {ir.SideLeft: "=H"},
		"B": {ir.SideLeft: "=A++1"},
	}
	_, err := s.ed.Execute(&ApplyRules{Rules: table})
	s.Require().Error(err)
	s.Contains(err.Error(), "Apply rules to 2 glyphs")
	s.False(s.rules.HasAnyRule("A"), "partial write rolled back")
	s.False(s.ed.CanUndo())
}

func (s *EditorSuite) TestUnknownGlyphIsNotRecorded() {
	_, err := s.ed.Execute(NewSetMargin("Z", ir.SideLeft, 5))
	s.Require().Error(err)
	s.False(s.ed.CanUndo())
}

func (s *EditorSuite) TestNothingToUndoOrRedo() {
	_, err := s.ed.Undo()
	s.ErrorIs(err, ErrNothingToUndo)
	_, err = s.ed.Redo()
	s.ErrorIs(err, ErrNothingToRedo)
}

func (s *EditorSuite) TestNewCommandClearsRedo() {
	s.execute(NewSetMargin("A", ir.SideLeft, 25))
	_, err := s.ed.Undo()
	s.Require().NoError(err)
	s.True(s.ed.CanRedo())

	s.execute(NewSetMargin("A", ir.SideRight, 25))
	s.False(s.ed.CanRedo())
	desc, ok := s.ed.UndoDescription()
	s.True(ok)
	s.Equal("Set right margin A = 25", desc)
}

func (s *EditorSuite) TestHistoryLimit() {
	s.ed = New(s.font, s.rules, WithLogger(testutil.DiscardLogger()), WithHistoryLimit(2))
	for _, v := range []float64{21, 22, 23} {
		s.execute(NewSetMargin("A", ir.SideLeft, v))
	}

	hist := s.ed.History()
	s.Require().Len(hist, 2)
	s.Equal("Set left margin A = 22", hist[0].Description)
	s.Equal("Set left margin A = 23", hist[1].Description)

	_, err := s.ed.Undo()
	s.Require().NoError(err)
	_, err = s.ed.Undo()
	s.Require().NoError(err)
	s.Equal(21.0, s.margin("A", ir.SideLeft))
	_, err = s.ed.Undo()
	s.ErrorIs(err, ErrNothingToUndo)
}

func (s *EditorSuite) TestClearHistory() {
	s.execute(NewSetMargin("A", ir.SideLeft, 25))
	s.ed.ClearHistory()
	s.False(s.ed.CanUndo())
	s.False(s.ed.CanRedo())
	_, ok := s.ed.RedoDescription()
	s.False(ok)
}

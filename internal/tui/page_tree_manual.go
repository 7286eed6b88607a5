package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/mltree"
	"github.com/san-kum/mlviz/internal/stats"
	"github.com/san-kum/mlviz/internal/story"
	"github.com/san-kum/mlviz/internal/treebuilder"
)

// treeManualPage builds a decision tree by hand: a cursor walks the
// node outline, f cycles the analyzed feature, arrows slide along the
// candidate thresholds and s commits the split. Statistics arrive
// asynchronously; the page polls the engine on the frame tick.
type treeManualPage struct {
	page    story.Page
	eng     *treebuilder.Engine
	ctx     context.Context
	palette []lipgloss.Style

	snap   treebuilder.Snapshot
	order  []mltree.Path
	cursor int

	width   int
	errLine string
}

func newTreeManualPage(p story.Page, reg *dataset.Registry, provider ProviderFunc,
	pers treebuilder.Persister, logger *slog.Logger) (*treeManualPage, error) {

	ds, err := reg.Load(p.Dataset)
	if err != nil {
		return nil, err
	}
	crit, err := mltree.ParseCriterion(p.Criterion)
	if err != nil {
		return nil, err
	}
	opts := []treebuilder.Option{
		treebuilder.WithCriterion(crit),
		treebuilder.WithLogger(logger),
	}
	if pers != nil {
		opts = append(opts, treebuilder.WithPersister(pers))
	}
	eng := treebuilder.New(ds, provider(ds, crit), opts...)

	ctx := context.Background()
	restored, err := eng.Restore(ctx)
	if err != nil {
		logger.Warn("session restore failed, starting fresh", "error", err)
		restored = false
	}
	if !restored {
		if err := eng.Initialize(ctx); err != nil {
			return nil, err
		}
	}

	tp := &treeManualPage{
		page:    p,
		eng:     eng,
		ctx:     ctx,
		palette: classPalette(ds.NumClasses()),
		width:   76,
	}
	tp.sync()
	return tp, nil
}

func (tp *treeManualPage) init() tea.Cmd { return nil }

// sync pulls a fresh snapshot and rebuilds the cursor's node list.
func (tp *treeManualPage) sync() {
	tp.snap = tp.eng.Snapshot()
	tp.order = tp.order[:0]
	if tp.snap.Tree != nil {
		tp.snap.Tree.Walk(func(p mltree.Path, _ *mltree.Node) bool {
			tp.order = append(tp.order, p)
			return true
		})
	}
	if tp.cursor > len(tp.order)-1 {
		tp.cursor = len(tp.order) - 1
	}
	if tp.cursor < 0 {
		tp.cursor = 0
	}
}

func (tp *treeManualPage) update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case sizeMsg:
		tp.width = msg.w
		return nil, false
	case tickMsg:
		tp.sync()
		return nil, false
	case tea.KeyMsg:
		return nil, tp.key(msg.String())
	}
	return nil, false
}

func (tp *treeManualPage) key(key string) bool {
	switch key {
	case "j", "down":
		if tp.cursor < len(tp.order)-1 {
			tp.cursor++
		}
	case "k", "up":
		if tp.cursor > 0 {
			tp.cursor--
		}
	case "enter", " ":
		if len(tp.order) == 0 {
			return true
		}
		path := tp.order[tp.cursor].Clone()
		tp.do(tp.eng.SelectNode(&path))
	case "u":
		tp.do(tp.eng.SelectNode(nil))
	case "f":
		tp.cycleFeature(+1)
	case "F":
		tp.cycleFeature(-1)
	case "left":
		tp.moveThreshold(-1)
	case "right":
		tp.moveThreshold(+1)
	case "s":
		tp.do(tp.eng.SplitNode(tp.ctx))
	case "m":
		tp.do(tp.eng.MarkAsLeaf(tp.ctx))
	default:
		return false
	}
	return true
}

// do runs an engine operation, keeps its error for the status line and
// refreshes the snapshot.
func (tp *treeManualPage) do(err error) {
	tp.errLine = ""
	if err != nil {
		tp.errLine = err.Error()
	}
	tp.sync()
}

// cycleFeature analyzes the next feature of the selected node.
func (tp *treeManualPage) cycleFeature(dir int) {
	nf := tp.eng.Dataset().NumFeatures()
	next := 0
	if dir < 0 {
		next = nf - 1
	}
	if sel := tp.snap.Selection; sel != nil && sel.Feature != nil {
		next = (*sel.Feature + dir + nf) % nf
	}
	tp.do(tp.eng.LoadFeatureStats(tp.ctx, next))
}

// moveThreshold walks the candidate threshold list for the selected
// feature. Without fetched statistics there is nothing to walk yet.
func (tp *treeManualPage) moveThreshold(dir int) {
	sel := tp.snap.Selection
	if sel == nil || sel.Feature == nil {
		tp.errLine = "pick a feature first (f)"
		return
	}
	fs := sel.Stats[*sel.Feature]
	if fs == nil || len(fs.Thresholds) == 0 {
		tp.errLine = "statistics still loading"
		return
	}
	i := fs.BestIndex
	if sel.Threshold != nil {
		i = nearestThreshold(fs.Thresholds, *sel.Threshold)
	}
	i += dir
	if i < 0 {
		i = 0
	}
	if i > len(fs.Thresholds)-1 {
		i = len(fs.Thresholds) - 1
	}
	tp.do(tp.eng.UpdateThreshold(fs.Thresholds[i].Threshold))
}

// nearestThreshold finds the candidate closest to v.
func nearestThreshold(ts []stats.ThresholdStat, v float64) int {
	best, bestD := 0, math.Inf(1)
	for i, t := range ts {
		if d := math.Abs(t.Threshold - v); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

func (tp *treeManualPage) view() string {
	var b strings.Builder
	if tp.page.Text != "" {
		b.WriteString("  " + dim.Render(tp.page.Text) + "\n\n")
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, tp.viewTree(), tp.viewStats())
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	if tp.errLine != "" {
		b.WriteString("  " + red.Render(tp.errLine) + "\n")
	}
	b.WriteString(dim.Render("  j/k node  enter select  u unselect  f feature  ←→ threshold  s split  m leaf") + "\n")
	return b.String()
}

// viewTree renders the tree as an indented outline with the cursor and
// the engine selection marked.
func (tp *treeManualPage) viewTree() string {
	var b strings.Builder
	b.WriteString("  " + dimmer.Render("tree") + "\n")
	if tp.snap.Tree == nil {
		return b.String()
	}
	var selPath mltree.Path
	selected := false
	if tp.snap.Selection != nil {
		selPath, selected = tp.snap.Selection.Path, true
	}
	i := 0
	tp.snap.Tree.Walk(func(path mltree.Path, n *mltree.Node) bool {
		marker := "  "
		if i == tp.cursor {
			marker = cyan.Render("▸ ")
		}
		line := tp.nodeLine(n)
		if selected && selPath.Equal(path) {
			line = yellow.Render("● ") + line
		}
		b.WriteString("  " + strings.Repeat("  ", len(path)) + marker + line + "\n")
		i++
		return true
	})
	return b.String()
}

func (tp *treeManualPage) nodeLine(n *mltree.Node) string {
	ds := tp.eng.Dataset()
	if n.Kind == mltree.KindSplit {
		name := n.FeatureName
		if name == "" && n.Feature >= 0 && n.Feature < ds.NumFeatures() {
			name = ds.FeatureNames[n.Feature]
		}
		return white.Render(fmt.Sprintf("%s ≤ %.2f", name, n.Threshold)) +
			dim.Render(fmt.Sprintf("  n=%d", n.Samples))
	}
	class, _ := n.MajorityClass()
	label := "leaf"
	style := white
	if class < len(ds.ClassNames) {
		label = ds.ClassNames[class]
		style = tp.palette[class]
	}
	return style.Render(label) + dim.Render(fmt.Sprintf("  %v  %s=%.3f",
		n.ClassCounts, tp.eng.Criterion(), n.Impurity))
}

// viewStats renders the selection panel: fetched feature histogram,
// the candidate threshold slider and split quality numbers.
func (tp *treeManualPage) viewStats() string {
	var b strings.Builder
	sel := tp.snap.Selection
	if sel == nil {
		b.WriteString("  " + dim.Render("no node selected") + "\n")
		b.WriteString("  " + dimmer.Render("enter selects the node under the cursor") + "\n")
		return b.String()
	}
	b.WriteString("  " + dimmer.Render("node "+sel.Path.String()) + "\n")
	if sel.Feature == nil {
		b.WriteString("  " + dim.Render("f analyzes a feature") + "\n")
		return b.String()
	}
	ds := tp.eng.Dataset()
	b.WriteString("  " + white.Render(ds.FeatureNames[*sel.Feature]) + "\n")

	fs := sel.Stats[*sel.Feature]
	if fs == nil {
		b.WriteString("  " + yellow.Render("fetching statistics...") + "\n")
		return b.String()
	}
	if fs.Histogram != nil {
		b.WriteString(tp.viewHistogram(fs.Histogram))
	}

	cur := fs.Best()
	if sel.Threshold != nil {
		cur = fs.Thresholds[nearestThreshold(fs.Thresholds, *sel.Threshold)]
	}
	b.WriteString(fmt.Sprintf("  %s %s\n",
		dim.Render("threshold"), magenta.Render(fmt.Sprintf("%.3f", cur.Threshold))))
	b.WriteString("  " + thresholdSlider(fs, cur.Threshold, tp.sliderWidth()) + "\n")
	b.WriteString(fmt.Sprintf("  %s %s  %s %s\n",
		dim.Render("gain"), green.Render(fmt.Sprintf("%.4f", cur.Gain)),
		dim.Render("weighted"), white.Render(fmt.Sprintf("%.4f", cur.WeightedImpurity))))
	b.WriteString(fmt.Sprintf("  %s %d│%d  %s %.3f│%.3f\n",
		dim.Render("samples"), cur.Left.Samples, cur.Right.Samples,
		dim.Render("impurity"), cur.Left.Impurity, cur.Right.Impurity))
	best := fs.Best()
	b.WriteString(dimmer.Render(fmt.Sprintf("  best %.3f  gain %.4f  %d candidates",
		best.Threshold, best.Gain, len(fs.Thresholds))) + "\n")
	return b.String()
}

// viewHistogram plots the per-class bucket counts as overlaid series.
func (tp *treeManualPage) viewHistogram(h *mltree.Histogram) string {
	classes := make([]string, 0, len(h.CountsByClass))
	for class := range h.CountsByClass {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool {
		a, _ := strconv.Atoi(classes[i])
		b, _ := strconv.Atoi(classes[j])
		return a < b
	})
	series := make([][]float64, 0, len(classes))
	for _, class := range classes {
		counts := h.CountsByClass[class]
		row := make([]float64, len(counts))
		for j, c := range counts {
			row[j] = float64(c)
		}
		series = append(series, row)
	}
	if len(series) == 0 {
		return ""
	}
	graph := asciigraph.PlotMany(series,
		asciigraph.Height(8),
		asciigraph.Width(tp.sliderWidth()),
		asciigraph.SeriesColors(seriesColors(len(series))...),
	)
	var b strings.Builder
	indent(&b, graph)
	return b.String()
}

// sliderWidth sizes the stats panel widgets against the terminal.
func (tp *treeManualPage) sliderWidth() int {
	w := tp.width/2 - 14
	if w < 20 {
		w = 20
	}
	if w > 48 {
		w = 48
	}
	return w
}

// thresholdSlider marks the current candidate on a track spanning the
// feature's value range.
func thresholdSlider(fs *stats.FeatureStats, current float64, width int) string {
	lo, hi := fs.Range[0], fs.Range[1]
	pos := 0.0
	if hi > lo {
		pos = (current - lo) / (hi - lo)
	}
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	filled := int(pos * float64(width-1))
	return dimmer.Render(strings.Repeat("─", filled)) + magenta.Render("◆") +
		dimmer.Render(strings.Repeat("─", width-1-filled))
}

// done reports whether the tree has at least one committed split.
func (tp *treeManualPage) done() bool {
	return tp.snap.Tree != nil && tp.snap.Tree.Kind == mltree.KindSplit
}

func (tp *treeManualPage) close() {}

package treebuilder

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/mltree"
	"github.com/san-kum/mlviz/internal/stats"
)

// Snapshot is an immutable view of the engine state. The tree is shared
// (it is never edited in place); the selection is a deep copy.
type Snapshot struct {
	Tree      *mltree.Node
	Selection *Selection
}

// Selection describes the node under inspection and the split the user
// is composing on it. Stats caches provider results per feature for the
// current node only.
type Selection struct {
	Path      mltree.Path
	Feature   *int
	Threshold *float64
	Stats     map[int]*stats.FeatureStats
}

// fetchKey identifies one in-flight statistics request.
type fetchKey struct {
	path    string
	feature int
}

// fetchPlan carries everything a fetch goroutine needs, captured while
// the engine lock was held.
type fetchPlan struct {
	key fetchKey
	gen uint64
	q   stats.Query
}

// Engine owns the tree being built and the selection around it. All
// operations are atomic: they either commit fully or leave the state
// untouched. Methods are safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	ds        *dataset.Dataset
	provider  stats.Provider
	crit      mltree.Criterion
	persister Persister
	logger    *slog.Logger

	tree         *mltree.Node
	selected     bool
	selPath      mltree.Path
	selFeature   *int
	selThreshold *float64
	selStats     map[int]*stats.FeatureStats

	// pending maps in-flight stat requests to the generation that issued
	// them; a completion whose generation no longer matches is stale.
	pending  map[fetchKey]uint64
	fetchSeq uint64

	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures an Engine.
type Option func(*Engine)

// WithCriterion sets the impurity measure. Default is Gini.
func WithCriterion(c mltree.Criterion) Option {
	return func(e *Engine) { e.crit = c }
}

// WithPersister stores committed state through p.
func WithPersister(p Persister) Option {
	return func(e *Engine) { e.persister = p }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an engine over ds. provider supplies split statistics and
// may be nil, in which case LoadFeatureStats returns ErrNoProvider. The
// tree is empty until Initialize or Restore.
func New(ds *dataset.Dataset, provider stats.Provider, opts ...Option) *Engine {
	e := &Engine{
		ds:       ds,
		provider: provider,
		crit:     mltree.CriterionGini,
		logger:   slog.Default(),
		selStats: make(map[int]*stats.FeatureStats),
		pending:  make(map[fetchKey]uint64),
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Dataset returns the samples the engine builds over.
func (e *Engine) Dataset() *dataset.Dataset { return e.ds }

// Criterion returns the impurity measure in use.
func (e *Engine) Criterion() mltree.Criterion { return e.crit }

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn to run once per committed change, on the
// goroutine that committed it and outside the engine lock. The returned
// function unsubscribes.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// Initialize resets the tree to a root leaf over all samples and clears
// the selection.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	counts := e.ds.ClassCounts()
	e.tree = mltree.NewLeaf(counts, e.crit.Impurity(counts))
	e.clearSelectionLocked()
	snap, fns := e.commitLocked()
	e.mu.Unlock()

	e.persist(ctx, snap)
	notify(snap, fns)
	return nil
}

// SelectNode selects the node at path; nil clears the selection.
// Selecting the already selected node keeps its fetched statistics;
// any other change drops them along with in-flight requests.
func (e *Engine) SelectNode(path *mltree.Path) error {
	e.mu.Lock()
	snap, fns, err := e.selectLocked(path)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	notify(snap, fns)
	return nil
}

func (e *Engine) selectLocked(path *mltree.Path) (Snapshot, []func(Snapshot), error) {
	if path == nil {
		if !e.selected {
			return Snapshot{}, nil, nil
		}
		e.clearSelectionLocked()
		snap, fns := e.commitLocked()
		return snap, fns, nil
	}
	if _, err := mltree.Resolve(e.tree, *path); err != nil {
		return Snapshot{}, nil, err
	}
	if e.selected && e.selPath.Equal(*path) {
		return Snapshot{}, nil, nil
	}
	e.clearSelectionLocked()
	e.selected = true
	e.selPath = path.Clone()
	snap, fns := e.commitLocked()
	return snap, fns, nil
}

// LoadFeatureStats picks feature for the selected leaf and requests its
// split statistics from the provider. The feature choice applies
// immediately; statistics arrive asynchronously and are committed only
// if this request is still the newest one for the (node, feature) pair.
// When they land and no threshold has been chosen yet, the threshold
// defaults to the best candidate.
func (e *Engine) LoadFeatureStats(ctx context.Context, feature int) error {
	e.mu.Lock()
	plan, snap, fns, err := e.planFetchLocked(feature)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	notify(snap, fns)
	go e.fetch(ctx, plan)
	return nil
}

func (e *Engine) planFetchLocked(feature int) (fetchPlan, Snapshot, []func(Snapshot), error) {
	if e.provider == nil {
		return fetchPlan{}, Snapshot{}, nil, ErrNoProvider
	}
	if !e.selected {
		return fetchPlan{}, Snapshot{}, nil, ErrNoSelection
	}
	node, err := mltree.Resolve(e.tree, e.selPath)
	if err != nil {
		return fetchPlan{}, Snapshot{}, nil, err
	}
	if node.Kind != mltree.KindLeaf {
		return fetchPlan{}, Snapshot{}, nil, ErrNotLeaf
	}
	if feature < 0 || feature >= e.ds.NumFeatures() {
		return fetchPlan{}, Snapshot{}, nil, fmt.Errorf("%w: %d", dataset.ErrBadFeature, feature)
	}
	rules, err := stats.PathRules(e.tree, e.selPath)
	if err != nil {
		return fetchPlan{}, Snapshot{}, nil, err
	}

	if e.selFeature == nil || *e.selFeature != feature {
		f := feature
		e.selFeature = &f
		e.selThreshold = nil
	}
	e.fetchSeq++
	plan := fetchPlan{
		key: fetchKey{path: e.selPath.String(), feature: feature},
		gen: e.fetchSeq,
		q:   stats.Query{Rules: rules, Feature: feature},
	}
	e.pending[plan.key] = plan.gen

	snap, fns := e.commitLocked()
	return plan, snap, fns, nil
}

func (e *Engine) fetch(ctx context.Context, plan fetchPlan) {
	fs, err := e.provider.FeatureStats(ctx, plan.q)

	e.mu.Lock()
	gen, live := e.pending[plan.key]
	if !live || gen != plan.gen {
		e.mu.Unlock()
		e.logger.Debug("dropping stale stats response",
			"node", plan.key.path, "feature", plan.key.feature)
		return
	}
	delete(e.pending, plan.key)
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn("feature stats fetch failed",
			"node", plan.key.path, "feature", plan.key.feature, "error", err)
		return
	}
	e.selStats[plan.key.feature] = fs
	if e.selFeature != nil && *e.selFeature == plan.key.feature && e.selThreshold == nil {
		t := fs.Best().Threshold
		e.selThreshold = &t
	}
	snap, fns := e.commitLocked()
	e.mu.Unlock()
	notify(snap, fns)
}

// UpdateThreshold moves the candidate threshold for the selected
// feature.
func (e *Engine) UpdateThreshold(v float64) error {
	e.mu.Lock()
	snap, fns, err := e.thresholdLocked(v)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	notify(snap, fns)
	return nil
}

func (e *Engine) thresholdLocked(v float64) (Snapshot, []func(Snapshot), error) {
	if !e.selected {
		return Snapshot{}, nil, ErrNoSelection
	}
	if e.selFeature == nil {
		return Snapshot{}, nil, ErrNoFeature
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Snapshot{}, nil, ErrBadThreshold
	}
	e.selThreshold = &v
	snap, fns := e.commitLocked()
	return snap, fns, nil
}

// SplitNode splits the selected leaf at the chosen feature and
// threshold. Samples with value <= threshold go left. The tree is
// swapped wholesale; the selection is cleared on success.
func (e *Engine) SplitNode(ctx context.Context) error {
	e.mu.Lock()
	snap, fns, err := e.splitLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.persist(ctx, snap)
	notify(snap, fns)
	return nil
}

func (e *Engine) splitLocked() (Snapshot, []func(Snapshot), error) {
	if !e.selected {
		return Snapshot{}, nil, ErrNoSelection
	}
	node, err := mltree.Resolve(e.tree, e.selPath)
	if err != nil {
		return Snapshot{}, nil, err
	}
	if node.Kind != mltree.KindLeaf {
		return Snapshot{}, nil, ErrNotLeaf
	}
	if e.selFeature == nil {
		return Snapshot{}, nil, ErrNoFeature
	}
	if e.selThreshold == nil {
		return Snapshot{}, nil, ErrNoThreshold
	}
	feature, threshold := *e.selFeature, *e.selThreshold

	rules, err := stats.PathRules(e.tree, e.selPath)
	if err != nil {
		return Snapshot{}, nil, err
	}
	idx, err := stats.SubsetIndex(e.ds, rules)
	if err != nil {
		return Snapshot{}, nil, err
	}
	var leftY, rightY []int
	for _, i := range idx {
		if e.ds.X[i][feature] <= threshold {
			leftY = append(leftY, e.ds.Y[i])
		} else {
			rightY = append(rightY, e.ds.Y[i])
		}
	}
	if len(leftY) == 0 || len(rightY) == 0 {
		return Snapshot{}, nil, ErrEmptyPartition
	}

	nc := e.ds.NumClasses()
	lc := mltree.CountClasses(leftY, nc)
	rc := mltree.CountClasses(rightY, nc)
	split := mltree.NewSplit(feature, threshold, node.Impurity,
		mltree.NewLeaf(lc, e.crit.Impurity(lc)),
		mltree.NewLeaf(rc, e.crit.Impurity(rc)))
	split.FeatureName = e.ds.FeatureNames[feature]
	if fs := e.selStats[feature]; fs != nil && fs.Histogram != nil {
		h := *fs.Histogram
		t := threshold
		h.Threshold = &t
		split.Hist = &h
	}

	next, err := mltree.ReplaceAt(e.tree, e.selPath, split)
	if err != nil {
		return Snapshot{}, nil, err
	}
	e.tree = next
	e.clearSelectionLocked()
	snap, fns := e.commitLocked()
	return snap, fns, nil
}

// MarkAsLeaf collapses the selected split into a leaf carrying the
// aggregated populations of its descendants.
func (e *Engine) MarkAsLeaf(ctx context.Context) error {
	e.mu.Lock()
	snap, fns, err := e.markLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.persist(ctx, snap)
	notify(snap, fns)
	return nil
}

func (e *Engine) markLocked() (Snapshot, []func(Snapshot), error) {
	if !e.selected {
		return Snapshot{}, nil, ErrNoSelection
	}
	node, err := mltree.Resolve(e.tree, e.selPath)
	if err != nil {
		return Snapshot{}, nil, err
	}
	if node.Kind != mltree.KindSplit {
		return Snapshot{}, nil, ErrNotSplit
	}
	_, counts, imp := mltree.Aggregate(node, e.crit)

	next, err := mltree.ReplaceAt(e.tree, e.selPath, mltree.NewLeaf(counts, imp))
	if err != nil {
		return Snapshot{}, nil, err
	}
	e.tree = next
	e.clearSelectionLocked()
	snap, fns := e.commitLocked()
	return snap, fns, nil
}

// Restore loads persisted state. It reports false without error when
// the engine has no persister or nothing was saved.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	if e.persister == nil {
		return false, nil
	}
	saved, ok, err := e.persister.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok || saved.Tree == nil {
		return false, nil
	}
	if err := mltree.CheckPartition(saved.Tree); err != nil {
		return false, err
	}

	e.mu.Lock()
	e.tree = saved.Tree
	e.clearSelectionLocked()
	snap, fns := e.commitLocked()
	e.mu.Unlock()
	notify(snap, fns)
	return true, nil
}

// clearSelectionLocked drops the selection, its cached statistics and
// every in-flight request keyed against it.
func (e *Engine) clearSelectionLocked() {
	e.selected = false
	e.selPath = nil
	e.selFeature = nil
	e.selThreshold = nil
	e.selStats = make(map[int]*stats.FeatureStats)
	e.pending = make(map[fetchKey]uint64)
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{Tree: e.tree}
	if !e.selected {
		return snap
	}
	sel := &Selection{
		Path:  e.selPath.Clone(),
		Stats: make(map[int]*stats.FeatureStats, len(e.selStats)),
	}
	for f, fs := range e.selStats {
		sel.Stats[f] = fs
	}
	if e.selFeature != nil {
		f := *e.selFeature
		sel.Feature = &f
	}
	if e.selThreshold != nil {
		t := *e.selThreshold
		sel.Threshold = &t
	}
	snap.Selection = sel
	return snap
}

// commitLocked captures the snapshot and subscriber list for a change
// that just landed. The caller invokes the callbacks after unlocking.
func (e *Engine) commitLocked() (Snapshot, []func(Snapshot)) {
	snap := e.snapshotLocked()
	if len(e.subs) == 0 {
		return snap, nil
	}
	fns := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	return snap, fns
}

func (e *Engine) persist(ctx context.Context, snap Snapshot) {
	if e.persister == nil {
		return
	}
	if err := e.persister.Save(ctx, snap); err != nil {
		e.logger.Warn("session save failed", "error", err)
	}
}

func notify(snap Snapshot, fns []func(Snapshot)) {
	for _, fn := range fns {
		fn(snap)
	}
}

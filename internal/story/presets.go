package story

import "sort"

// Presets are the built-in walkthroughs available without a story
// file.
var Presets = map[string]*Story{
	"iris-tree": {
		Name:        "iris-tree",
		Description: "build a decision tree for the iris flowers by hand, then watch one grow",
		StartPage:   0,
		Pages: []Page{
			{
				Kind: KindStatic, Title: "Growing a decision tree",
				Text: "A decision tree classifies by asking yes/no questions about one feature at a time. In this walkthrough you will split the iris dataset yourself, one node at a time, and then compare your tree against a greedily trained one.",
			},
			{
				Kind: KindScatter, Title: "The iris dataset",
				Text:    "Each point is a flower, colored by species. Petal length and petal width separate the three species well, which makes them good features to split on. Zoom in around the class boundary before moving on.",
				Dataset: "iris", Features: []int{2, 3},
				Zoom: &ZoomSettings{MinScale: 0.5, MaxScale: 10, Pan: true},
			},
			{
				Kind: KindTreeManual, Title: "Split it yourself",
				Text:    "Select the root, pick a feature, and drag the threshold until the histogram shows a clean separation. Split, then keep refining the impure children. Mark a node as a leaf when its samples are pure enough.",
				Dataset: "iris", Criterion: "gini",
			},
			{
				Kind: KindTreeTrain, Title: "Watch a tree grow",
				Text:    "The same dataset, split greedily by impurity reduction. Each playback step reveals one more level of depth in the decision boundary.",
				Dataset: "iris", Features: []int{2, 3},
				Criterion: "gini", MaxDepth: 3,
				Playback: &PlaybackSettings{StepMillis: 800, InterpolationSteps: 6, Slider: true, AutoPlay: true},
			},
			{
				Kind: KindStatic, Title: "What you built",
				Text: "Every split you made is an axis-aligned cut through feature space. Deeper trees cut finer regions but start memorizing noise, which is why the trained tree stopped at depth three.",
			},
		},
		Edges: []Edge{
			{From: 0, To: 1},
			{From: 1, To: 2},
			{From: 2, To: 3, Condition: CondCompleted},
			{From: 3, To: 4},
		},
	},
	"knn-intro": {
		Name:        "knn-intro",
		Description: "classify by proximity with k-nearest neighbors",
		StartPage:   0,
		Pages: []Page{
			{
				Kind: KindStatic, Title: "Nearest neighbors",
				Text: "k-nearest neighbors has no training step at all: to classify a point, look at the k closest labeled points and take a vote. The whole model is the dataset.",
			},
			{
				Kind: KindScatter, Title: "Two blobs",
				Text:    "Two gaussian clusters, one per class. Points near a cluster center are easy; the interesting region is the gap between them.",
				Dataset: "blobs",
				Zoom:    &ZoomSettings{MinScale: 0.5, MaxScale: 10, Pan: true},
			},
			{
				Kind: KindKNN, Title: "Vote of five",
				Text:    "Move the query point with the arrow keys and watch its five nearest neighbors light up. The shaded decision boundary shows which class wins the vote everywhere.",
				Dataset: "blobs", K: 5, Weights: "uniform", Boundary: true,
			},
			{
				Kind: KindKNN, Title: "k = 1 memorizes",
				Text:    "On the interleaved moons, a single neighbor decides alone. The boundary tracks every point exactly, noise included. Raise k with + and watch it smooth out.",
				Dataset: "moons", K: 1, Boundary: true,
			},
			{
				Kind: KindKNN, Title: "Weighting by distance",
				Text:    "With distance weighting, close neighbors outvote far ones, so a large k stops blurring the moons into each other.",
				Dataset: "moons", K: 15, Weights: "distance", Boundary: true,
			},
		},
		Edges: []Edge{
			{From: 0, To: 1},
			{From: 1, To: 2},
			{From: 2, To: 3},
			{From: 3, To: 4},
		},
	},
}

func Get(name string) *Story {
	s, ok := Presets[name]
	if !ok {
		return nil
	}
	return s
}

func List() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

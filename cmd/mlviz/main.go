package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/mlviz/internal/colorscale"
	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/export"
	"github.com/san-kum/mlviz/internal/mltree"
	"github.com/san-kum/mlviz/internal/plot"
	"github.com/san-kum/mlviz/internal/session"
	"github.com/san-kum/mlviz/internal/stats"
	"github.com/san-kum/mlviz/internal/statshttp"
	"github.com/san-kum/mlviz/internal/story"
	"github.com/san-kum/mlviz/internal/tui"
)

var (
	dataDir string
	verbose bool

	storyName string
	statsURL  string
	noSave    bool

	addr string

	features   []int
	outFile    string
	svgWidth   int
	svgHeight  int
	maxDepth   int
	criterion  string
	schemeName string
	resolution int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mlviz",
		Short: "interactive machine learning visualizations in the terminal",
		RunE:  runWalkthrough,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mlviz", "data directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")
	rootCmd.Flags().StringVar(&storyName, "story", "iris-tree", "built-in story name or story yaml path")
	rootCmd.Flags().StringVar(&statsURL, "stats-url", "", "remote stats service url (default: compute in process)")
	rootCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist tree building progress")

	storiesCmd := &cobra.Command{
		Use:   "stories",
		Short: "list built-in stories",
		RunE:  listStories,
	}

	datasetsCmd := &cobra.Command{
		Use:   "datasets",
		Short: "list available datasets",
		RunE:  listDatasets,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the stats http service",
		RunE:  serveStats,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	exportCmd := &cobra.Command{
		Use:   "export [dataset]",
		Short: "render a dataset scatter to svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportCmd.Flags().IntSliceVar(&features, "features", nil, "feature columns to plot (default: first two)")
	exportCmd.Flags().StringVar(&outFile, "out", "scatter.svg", "output file")
	exportCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")
	exportCmd.Flags().IntVar(&maxDepth, "depth", 0, "overlay a trained tree boundary of this depth (0 = none)")
	exportCmd.Flags().StringVar(&criterion, "criterion", "gini", "impurity criterion for the trained tree")
	exportCmd.Flags().StringVar(&schemeName, "scheme", "category10", "color scheme")
	exportCmd.Flags().IntVar(&resolution, "resolution", 64, "boundary mesh resolution")

	validateCmd := &cobra.Command{
		Use:   "validate [story.yaml]",
		Short: "validate a story file",
		Args:  cobra.ExactArgs(1),
		RunE:  validateStory,
	}

	rootCmd.AddCommand(storiesCmd, datasetsCmd, serveCmd, exportCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWalkthrough(cmd *cobra.Command, args []string) error {
	st, err := resolveStory(storyName)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal, so the walkthrough logs to
	// a file under the data directory instead of stderr.
	logger, closeLog, err := fileLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []tui.Option{tui.WithLogger(logger)}
	if statsURL != "" {
		opts = append(opts, tui.WithProvider(func(ds *dataset.Dataset, crit mltree.Criterion) stats.Provider {
			return statshttp.NewClient(statsURL, ds.Name,
				statshttp.WithCriterion(crit), statshttp.WithLogger(logger))
		}))
	}
	if !noSave {
		store, err := openStore(logger)
		if err != nil {
			logger.Warn("session store unavailable, progress will not be saved", "error", err)
		} else {
			defer store.Close()
			opts = append(opts, tui.WithStore(store))
		}
	}

	return tui.Run(st, dataset.NewRegistry(), opts...)
}

// resolveStory tries the built-in stories first and falls back to
// loading the name as a yaml path.
func resolveStory(name string) (*story.Story, error) {
	if st := story.Get(name); st != nil {
		return st, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("unknown story %q (built-in: %s)", name, strings.Join(story.List(), ", "))
	}
	st, err := story.Load(name)
	if err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

func openStore(logger *slog.Logger) (*session.Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	store, err := session.Open(filepath.Join(dataDir, "sessions.db"), logger)
	if err != nil {
		return nil, err
	}
	if err := store.Init(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func fileLogger() (*slog.Logger, func(), error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "mlviz.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel()}))
	return logger, func() { f.Close() }, nil
}

func stderrLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()}))
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func listStories(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPAGES\tDESCRIPTION")
	for _, name := range story.List() {
		st := story.Get(name)
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(st.Pages), st.Description)
	}
	return w.Flush()
}

func listDatasets(cmd *cobra.Command, args []string) error {
	reg := dataset.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSAMPLES\tFEATURES\tCLASSES")
	for _, name := range reg.Names() {
		ds, err := reg.Load(name)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", name, ds.NumSamples(),
			strings.Join(ds.FeatureNames, ", "), strings.Join(ds.ClassNames, ", "))
	}
	return w.Flush()
}

func serveStats(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := statshttp.NewService(dataset.NewRegistry(), stderrLogger())
	return svc.Serve(ctx, addr)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	reg := dataset.NewRegistry()
	ds, err := reg.Load(args[0])
	if err != nil {
		return err
	}
	if len(features) == 0 && ds.NumFeatures() > 2 {
		features = []int{0, 1}
	}
	if len(features) > 0 {
		if ds, err = ds.SelectFeatures(features...); err != nil {
			return err
		}
	}

	scheme, err := colorscale.ParseScheme(schemeName)
	if err != nil {
		return err
	}
	colors, err := colorscale.Indexed(ds.NumClasses(), scheme)
	if err != nil {
		return err
	}
	palette := make([]string, len(colors))
	for i, c := range colors {
		palette[i] = c.Hex()
	}

	scene := plot.Scene{Points: plot.FromDataset(ds)}
	if maxDepth > 0 {
		boundary, tree, err := trainBoundary(ds)
		if err != nil {
			return err
		}
		scene.Boundary = boundary
		fmt.Printf("trained tree: depth %d, %d leaves, %.1f%% training accuracy\n",
			tree.Depth(), tree.NumLeaves(), 100*trainingAccuracy(tree, ds))
	}

	svg, err := export.ScatterToSVG(scene, svgWidth, svgHeight, palette)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outFile, []byte(svg), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d points)\n", outFile, len(scene.Points))
	return nil
}

// trainBoundary fits a depth-limited tree on the projected dataset and
// meshes its predictions over the padded feature extent.
func trainBoundary(ds *dataset.Dataset) (*plot.Boundary, *mltree.Node, error) {
	crit, err := mltree.ParseCriterion(criterion)
	if err != nil {
		return nil, nil, err
	}
	cfg := mltree.DefaultTrainConfig()
	cfg.MaxDepth = maxDepth
	cfg.MaxThresholds = 32
	tree := mltree.Train(ds.X, ds.Y, ds.NumClasses(), crit, cfg)

	bounds, err := plot.CalculateBounds(ds.X, nil, 0.1)
	if err != nil {
		return nil, nil, err
	}
	mesh, err := plot.MeshGrid(bounds, resolution)
	if err != nil {
		return nil, nil, err
	}
	classes, err := plot.ClassifyMesh(mesh, func(pt []float64) (int, error) {
		return tree.Predict(pt), nil
	})
	if err != nil {
		return nil, nil, err
	}
	dims, err := plot.DimensionsOf(ds.X)
	if err != nil {
		return nil, nil, err
	}
	return &plot.Boundary{Dims: dims, Mesh: mesh, Classes: classes}, tree, nil
}

func trainingAccuracy(root *mltree.Node, ds *dataset.Dataset) float64 {
	if ds.NumSamples() == 0 {
		return 0
	}
	correct := 0
	for i, row := range ds.X {
		if root.Predict(row) == ds.Y[i] {
			correct++
		}
	}
	return float64(correct) / float64(ds.NumSamples())
}

func validateStory(cmd *cobra.Command, args []string) error {
	st, err := story.Load(args[0])
	if err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d pages, %d edges)\n", st.Name, len(st.Pages), len(st.Edges))
	return nil
}

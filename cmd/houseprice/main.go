package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/gangfang/kaggle-scripts/internal/config"
	"github.com/gangfang/kaggle-scripts/internal/pipeline"
	"github.com/gangfang/kaggle-scripts/internal/version"
)

type cliFlags struct {
	version  bool
	config   string
	profile  string
	train    string
	test     string
	out      string
	features string
}

func customUsage(fs *flag.FlagSet) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "House price pipeline (version %s)\n\n", version.Version)
		fmt.Fprintf(w, "Usage: houseprice [options]\n\n")
		fmt.Fprintf(w, "With no options the pipeline reads train.csv and test.csv from the\n")
		fmt.Fprintf(w, "working directory and writes submission.csv.\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nEnvironment variables prefixed %s override the config file.\n", config.EnvPrefix)
		fmt.Fprintf(w, "Built-in profiles: %v\n", config.BuiltinProfiles())
	}
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet("houseprice", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{}
	fs.BoolVar(&f.version, "v", false, "Print version and exit")
	fs.BoolVar(&f.version, "version", false, "Print version and exit") // alias
	fs.StringVar(&f.config, "config", "", "Config file (.json, .yaml or .yml)")
	fs.StringVar(&f.profile, "profile", "", "Built-in profile name or path to a profile YAML")
	fs.StringVar(&f.train, "train", "", "Training CSV")
	fs.StringVar(&f.test, "test", "", "Prediction CSV")
	fs.StringVar(&f.out, "out", "", "Submission CSV to write")
	fs.StringVar(&f.features, "features", "", "Optional Parquet dump of the engineered features")
	fs.Usage = customUsage(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// resolveConfig layers defaults, the config file, the environment and the
// flags, later sources winning.
func resolveConfig(f *cliFlags) (config.Config, error) {
	cfg := config.NewConfig()
	if f.config != "" {
		loaded, err := config.LoadFromFile(f.config)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg = config.ApplyEnv(cfg)

	overrides := []struct {
		value string
		dst   *string
	}{
		{f.profile, &cfg.Profile},
		{f.train, &cfg.TrainPath},
		{f.test, &cfg.TestPath},
		{f.out, &cfg.OutputPath},
		{f.features, &cfg.FeaturesPath},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.dst = o.value
		}
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if f.version {
		fmt.Fprint(stdout, version.Info().String())
		return 0
	}

	failure := color.New(color.FgRed, color.Bold)

	cfg, err := resolveConfig(f)
	if err != nil {
		failure.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	p, err := pipeline.New(cfg, pipeline.Options{})
	if err != nil {
		failure.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	result, err := p.Run(ctx)
	if err != nil {
		failure.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	printResult(stdout, result)
	return 0
}

func printResult(w io.Writer, result *pipeline.Result) {
	label := color.New(color.FgCyan)
	value := color.New(color.Bold)

	if result.CV != nil {
		label.Fprint(w, "train_RMSE: ")
		value.Fprintf(w, "%g\n", result.CV.TrainRMSE)
		label.Fprint(w, "test_RMSE:  ")
		value.Fprintf(w, "%g\n", result.CV.TestRMSE)
	}
	label.Fprint(w, "features:   ")
	value.Fprintf(w, "%d\n", len(result.Features))
	color.New(color.FgGreen).Fprintf(w, "File writing done: %s (%d rows)\n", result.OutputPath, result.PredictRows)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

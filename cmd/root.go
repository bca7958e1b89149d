package cmd

import (
	"os"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"HLL-EVAL/configuration"
	"HLL-EVAL/general"
	"HLL-EVAL/metrics"
)

var (
	cfgFile string
	config  *configuration.Config

	stopProfile func()
	stopMetrics func()
)

func init() {
	cobra.OnInitialize(initConfig)

	defaults := configuration.NewDefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml or json)")
	flags.String("logLevel", defaults.LogLevel, "log level: debug, info, warn or error")
	flags.String("metricsAddr", defaults.MetricsAddr, "serve prometheus metrics on this address, e.g. :9090")
	flags.String("profile", defaults.Profile, "write a cpu or mem profile to the working directory")
	flags.StringSliceP("estimators", "e", defaults.Estimators, "estimators to evaluate, or all")
	flags.IntSliceP("precisions", "p", defaults.Precisions, "register exponents to evaluate")
	bindFlags("", flags, "logLevel", "metricsAddr", "profile", "estimators", "precisions")

	rootCmd.AddCommand(accuracyCmd(), trialCmd(), perfCmd(), biasCmd(), listCmd())
}

var rootCmd = &cobra.Command{
	Use:   "hll-eval",
	Short: "Measure the accuracy and throughput of cardinality estimators",
	Long: `
Measure the accuracy and throughput of cardinality estimators.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:

estimators: [hll/dense, hll/plusplus]
precisions: [12, 14, 16]
accuracy:
  maxSize: 1000000000
  step: pow2:6
  trials: 32
perf:
  workers: [1, 4, 16]
  insertOps: 100000000

Every key can also be set through HLLEVAL_* environment variables, e.g. HLLEVAL_ACCURACY_TRIALS.
`,
	SilenceUsage:     true,
	PersistentPreRun: startInstrumentation,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	stopInstrumentation()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// bindFlags ties each named flag to the viper key prefix+name.
func bindFlags(prefix string, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := viper.BindPFlag(prefix+name, flags.Lookup(name)); err != nil {
			log.WithError(err).Fatalf("binding flag %s", name)
		}
	}
}

func initConfig() {
	var err error
	config, err = configuration.Load(viper.GetViper(), cfgFile)
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
	general.SetLogLevel(config.LogLevel)
	if used := viper.ConfigFileUsed(); used != "" {
		log.Infof("using config file %s", used)
	}
}

func startInstrumentation(*cobra.Command, []string) {
	switch config.Profile {
	case "cpu":
		p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		stopProfile = p.Stop
	case "mem":
		p := profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		stopProfile = p.Stop
	}
	if config.MetricsAddr != "" {
		stopMetrics = metrics.Serve(config.MetricsAddr)
	}
}

func stopInstrumentation() {
	if stopProfile != nil {
		stopProfile()
	}
	if stopMetrics != nil {
		stopMetrics()
	}
}

package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/masscalc/pkg/core"
	"github.com/ChrisMcGann/masscalc/pkg/filter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configBaseName   = "masscalc"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "MASSCALC"

	chargeKey                  = "calc.charge"
	minimumIsotopeAbundanceKey = "calc.minimum_isotope_abundance"
	minimumFormulaAbundanceKey = "calc.minimum_formula_abundance"
	monoisotopicKey            = "calc.monoisotopic"
	decimalsKey                = "calc.decimals"
	sortMassKey                = "calc.sort_mass"

	topNKey      = "filter.top_n"
	cutoffKey    = "filter.cutoff"
	normalizeKey = "filter.normalize"
	minMassKey   = "filter.min_mass"
	maxMassKey   = "filter.max_mass"

	formatKey     = "output.format"
	adductFileKey = "adducts.file"
	threadsKey    = "export.threads"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultAdductFile = "adducts_custom.csv"

	defaultLogFilename   = ".masscalc.log"
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	defaults := core.DefaultOptions()
	viper.SetDefault(chargeKey, defaults.Charge)
	viper.SetDefault(minimumIsotopeAbundanceKey, defaults.MinimumIsotopeAbundance)
	viper.SetDefault(minimumFormulaAbundanceKey, defaults.MinimumFormulaAbundance)
	viper.SetDefault(monoisotopicKey, defaults.Monoisotopic)
	viper.SetDefault(decimalsKey, defaults.Decimals)
	viper.SetDefault(sortMassKey, !defaults.SortByAbundance)

	viper.SetDefault(topNKey, 0)
	viper.SetDefault(cutoffKey, 0.0)
	viper.SetDefault(normalizeKey, filter.NormalizeNone)
	viper.SetDefault(minMassKey, 0.0)
	viper.SetDefault(maxMassKey, 0.0)
	viper.SetDefault(formatKey, "table")
	viper.SetDefault(adductFileKey, defaultAdductFile)
	viper.SetDefault(threadsKey, 4)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	// A missing or unreadable config file leaves defaults, env and flags.
	_ = viper.ReadInConfig()
}

// bindFlags wires command flags to viper keys so config and env values feed
// them. Binding happens when the command runs because calc and export share
// keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("flag %q for config key %q not found", name, key)
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

// addCalcFlags registers the flags shared by calc and export.
func addCalcFlags(cmd *cobra.Command) map[string]string {
	defaults := core.DefaultOptions()

	cmd.Flags().IntP("charge", "z", defaults.Charge, "Net charge; non-zero reports m/z (overridden by --adduct)")
	cmd.Flags().Float64("minimum-isotope-abundance", defaults.MinimumIsotopeAbundance, "Drop isotopes at or below this natural abundance")
	cmd.Flags().Float64("minimum-formula-abundance", defaults.MinimumFormulaAbundance, "Prune isotope combinations at or below this abundance")
	cmd.Flags().BoolP("monoisotopic", "m", defaults.Monoisotopic, "Use only the most abundant isotope of each element")
	cmd.Flags().Int("decimals", defaults.Decimals, "Merge masses equal to this many decimals")
	cmd.Flags().Bool("sort-mass", !defaults.SortByAbundance, "Order peaks by mass instead of abundance")
	cmd.Flags().String("adducts", defaultAdductFile, "CSV of extra adduct definitions (name,add,remove,charge[,multimer])")

	return map[string]string{
		"charge":                    chargeKey,
		"minimum-isotope-abundance": minimumIsotopeAbundanceKey,
		"minimum-formula-abundance": minimumFormulaAbundanceKey,
		"monoisotopic":              monoisotopicKey,
		"decimals":                  decimalsKey,
		"sort-mass":                 sortMassKey,
		"adducts":                   adductFileKey,
	}
}

// calcOptionsFromConfig reads the computation options from viper.
func calcOptionsFromConfig() (core.Options, error) {
	opts := core.Options{
		MinimumIsotopeAbundance: viper.GetFloat64(minimumIsotopeAbundanceKey),
		MinimumFormulaAbundance: viper.GetFloat64(minimumFormulaAbundanceKey),
		Charge:                  viper.GetInt(chargeKey),
		Monoisotopic:            viper.GetBool(monoisotopicKey),
		Decimals:                viper.GetInt(decimalsKey),
		SortByAbundance:         !viper.GetBool(sortMassKey),
	}

	if opts.MinimumIsotopeAbundance < 0 || opts.MinimumIsotopeAbundance >= 1 {
		return opts, fmt.Errorf("minimum isotope abundance must be in [0,1), got %g", opts.MinimumIsotopeAbundance)
	}
	if opts.MinimumFormulaAbundance < 0 || opts.MinimumFormulaAbundance >= 1 {
		return opts, fmt.Errorf("minimum formula abundance must be in [0,1), got %g", opts.MinimumFormulaAbundance)
	}
	if opts.Decimals < 0 || opts.Decimals > 12 {
		return opts, fmt.Errorf("decimals must be between 0 and 12, got %d", opts.Decimals)
	}
	return opts, nil
}

// filterConfigFromConfig reads the post-processing settings from viper.
func filterConfigFromConfig() *filter.Config {
	return &filter.Config{
		TopN:            viper.GetInt(topNKey),
		IntensityCutoff: viper.GetFloat64(cutoffKey),
		Normalize:       viper.GetString(normalizeKey),
		MinMass:         viper.GetFloat64(minMassKey),
		MaxMass:         viper.GetFloat64(maxMassKey),
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger points the default slog logger at a rotating log file.
//
// By default it logs at the configured level; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) *slog.Logger {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: verbose,
		Level:     logLevel,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

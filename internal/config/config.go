package config

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/powerlog/internal/errors"
	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFile  = "/etc/power-profiled.conf"
	DefaultEnvPrefix   = "POWERLOG"
	DefaultThreshold   = 30
	DefaultInterval    = 60
	DefaultLogInterval = 300

	minThreshold = 1
	maxThreshold = 99
	minInterval  = 1
	maxInterval  = 600

	dataDirName = ".local/share/power-profile-manager"
)

// Config is the effective configuration. Threshold and Interval are consumed
// as-is by the core; range checks belong to this reader.
type Config struct {
	Threshold   int      `mapstructure:"threshold" toml:"threshold"`
	Interval    int      `mapstructure:"interval" toml:"interval"`
	LogInterval int      `mapstructure:"log_interval" toml:"log_interval"`
	LogDir      string   `mapstructure:"log_dir" toml:"log_dir"`
	PIDFile     string   `mapstructure:"pid_file" toml:"pid_file"`
	DaemonLog   string   `mapstructure:"daemon_log" toml:"daemon_log"`
	SysfsRoot   string   `mapstructure:"sysfs_root" toml:"sysfs_root"`
	Battery     string   `mapstructure:"battery" toml:"battery"`
	ACAdapter   string   `mapstructure:"ac_adapter" toml:"ac_adapter"`
	LogLevel    LogLevel `mapstructure:"log_level" toml:"log_level"`
	Debug       bool     `mapstructure:"debug" toml:"debug"`
	Verbose     bool     `mapstructure:"verbose" toml:"verbose"`
	Telemetry   bool     `mapstructure:"telemetry" toml:"telemetry"`
	TelemetryDB string   `mapstructure:"telemetry_db" toml:"telemetry_db"`
	DBus        bool     `mapstructure:"dbus" toml:"dbus"`

	// ConfigFile is the file the values were read from, if it existed.
	ConfigFile string `mapstructure:"-" toml:"-"`
}

// DefaultConfig returns the built-in defaults rooted at the user's data dir.
func DefaultConfig() *Config {
	dataDir := filepath.Join(homeDir(), dataDirName)

	return &Config{
		Threshold:   DefaultThreshold,
		Interval:    DefaultInterval,
		LogInterval: DefaultLogInterval,
		LogDir:      filepath.Join(dataDir, "logs"),
		PIDFile:     filepath.Join(dataDir, "battery-logger.pid"),
		DaemonLog:   filepath.Join(dataDir, "battery-logger.log"),
		SysfsRoot:   "/sys",
		Battery:     "BAT0",
		ACAdapter:   "AC",
		TelemetryDB: filepath.Join(dataDir, "telemetry.db"),
	}
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.TempDir()
}

// RegisterFlags defines the command line flags understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.Int("threshold", d.Threshold, "Battery threshold percentage")
	fs.Int("interval", d.Interval, "Profile check interval in seconds")
	fs.Int("log-interval", d.LogInterval, "Sampling interval in seconds")
	fs.String("log-dir", d.LogDir, "Directory for daily CSV logs")
	fs.String("pid-file", d.PIDFile, "Path of the sampler PID file")
	fs.String("daemon-log", d.DaemonLog, "Output file of the background sampler")
	fs.String("sysfs-root", d.SysfsRoot, "Root of the sysfs tree")
	fs.String("battery", d.Battery, "Battery power supply name")
	fs.String("ac-adapter", d.ACAdapter, "AC adapter power supply name")
	fs.String("log-level", "", "Log level (debug, info, warning, error)")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.Bool("telemetry", false, "Mirror observations into a SQLite database")
	fs.String("telemetry-db", d.TelemetryDB, "Path of the telemetry database")
	fs.Bool("dbus", false, "Export the sampler on the D-Bus session bus")
}

// Loader reads configuration from flags, environment and the key=value file.
type Loader struct {
	v    *viper.Viper
	opts options
}

// NewLoader creates a Loader for the given options.
func NewLoader(opts ...Option) (*Loader, error) {
	errFactory := errors.New()

	o := options{
		configPath: DefaultConfigFile,
		envPrefix:  DefaultEnvPrefix,
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigFile(o.configPath)
	v.SetConfigType("properties")

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if o.flags != nil {
		for _, key := range v.AllKeys() {
			f := o.flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err)
			}
		}
	}

	return &Loader{v: v, opts: o}, nil
}

// Load is shorthand for NewLoader followed by Loader.Load.
func Load(opts ...Option) (*Config, error) {
	l, err := NewLoader(opts...)
	if err != nil {
		return nil, err
	}
	return l.Load()
}

// Load reads the configuration file, if present, and returns the effective
// configuration.
func (l *Loader) Load() (*Config, error) {
	errFactory := errors.New()

	found := true
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
		found = false
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	if found {
		cfg.ConfigFile = l.opts.configPath
	}

	return cfg, nil
}

func (l *Loader) decode() (*Config, error) {
	errFactory := errors.New()

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	cfg.LogLevel = LogLevel(strings.ToLower(strings.TrimSpace(string(cfg.LogLevel))))
	if !cfg.LogLevel.IsValid() {
		return nil, errFactory.WithData(errors.ErrInvalidLogLevel, cfg.LogLevel)
	}

	normalize(cfg)

	return cfg, nil
}

// Watch re-reads the configuration file whenever it changes and passes the
// new configuration to callback. Reloads that fail to decode are skipped.
func (l *Loader) Watch(ctx context.Context, callback func(*Config)) error {
	if ctx.Err() != nil {
		return errors.New().Wrap(errors.ErrWatchConfig, ctx.Err())
	}

	l.v.OnConfigChange(func(_ fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			return
		}
		cfg.ConfigFile = l.opts.configPath
		callback(cfg)
	})
	l.v.WatchConfig()

	return nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("log_interval", d.LogInterval)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("pid_file", d.PIDFile)
	v.SetDefault("daemon_log", d.DaemonLog)
	v.SetDefault("sysfs_root", d.SysfsRoot)
	v.SetDefault("battery", d.Battery)
	v.SetDefault("ac_adapter", d.ACAdapter)
	v.SetDefault("log_level", "")
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("telemetry", false)
	v.SetDefault("telemetry_db", d.TelemetryDB)
	v.SetDefault("dbus", false)
}

// normalize applies the profile daemon's fallback rules: out of range values
// revert to their defaults instead of failing the load.
func normalize(cfg *Config) {
	if cfg.Threshold < minThreshold || cfg.Threshold > maxThreshold {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Interval < minInterval || cfg.Interval > maxInterval {
		cfg.Interval = DefaultInterval
	}
	if cfg.LogInterval <= 0 {
		cfg.LogInterval = DefaultLogInterval
	}
}

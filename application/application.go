package application

import (
	"os"

	"github.com/blang/semver/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	zlog "github.com/lk2023060901/structclone-go/pkg/log"
	"github.com/lk2023060901/structclone-go/pkg/structclone"
	"github.com/lk2023060901/structclone-go/pkg/structclone/stream"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
	zviper "github.com/lk2023060901/structclone-go/pkg/util/viper"
)

// Version is the tool version.
var Version = semver.MustParse("0.4.0")

// Application is the runtime container of the CLI. It owns configuration
// and the loggers built from it.
type Application struct {
	cfg     *zviper.Config
	conf    Config
	loggers map[string]*zlog.MLogger
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Run loads configuration and initializes logging. The config file is
// resolved with the following priority:
//  1. configPath, usually the --config flag
//  2. Env: STRUCTCLONE_CONFIG_FILE_PATH
//  3. Default: ./config.yaml
//
// An explicitly named file must exist; a missing default file only means
// every key keeps its default value.
func (a *Application) Run(configPath string) error {
	cfg, err := a.loadConfig(configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := cfg.Unmarshal(&a.conf); err != nil {
		return merr.WrapErrParameterInvalidMsg("decode config: %s", err.Error())
	}
	if err := a.conf.Validate(Version); err != nil {
		return err
	}

	return a.initLogging()
}

// Config returns the decoded configuration.
func (a *Application) Config() *Config {
	return &a.conf
}

// Logger returns a named logger created from the logging section.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return zlog.With(zlog.FieldModule(name))
}

// CodecOptions returns the Reader/Writer options implied by configuration.
func (a *Application) CodecOptions() []structclone.Option {
	opts := []structclone.Option{structclone.WithLogger(a.Logger("codec"))}
	if versions := a.conf.Codec.FixedStringLengthVersions; len(versions) > 0 {
		opts = append(opts, structclone.WithFixedStringLength(versions...))
	}
	return opts
}

// StreamOptions returns the Source/Sink options implied by configuration.
func (a *Application) StreamOptions(name string) []stream.Option {
	return []stream.Option{
		stream.WithByteOrder(a.conf.Codec.ByteOrder()),
		stream.WithName(name),
	}
}

func (a *Application) loadConfig(configPath string) (*zviper.Config, error) {
	explicit := configPath != ""
	if !explicit {
		if envPath := os.Getenv(envConfigFilePath); envPath != "" {
			configPath = envPath
			explicit = true
		} else {
			configPath = defaultConfigPath
		}
	}

	cfg := zviper.New(envPrefix)
	setDefaults(cfg)

	if !explicit {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, merr.WrapErrIoFailed(configPath, err)
	}
	return cfg, nil
}

// initLogging initializes the global logger and the named module loggers.
func (a *Application) initLogging() error {
	logger, props, err := zlog.InitLogger(&a.conf.Log)
	if err != nil {
		return errors.Wrap(err, "init global logger")
	}
	zlog.ReplaceGlobals(logger, props)

	a.loggers = make(map[string]*zlog.MLogger, len(a.conf.Logging))
	for name, lc := range a.conf.Logging {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return errors.Wrapf(err, "init module logger %q", name)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zap.String(zlog.FieldNameModule, name))}
	}

	zlog.Debug("application initialized",
		zap.String("config", a.cfg.ConfigFileUsed()),
		zap.Stringer("version", Version))
	return nil
}

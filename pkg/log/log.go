// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 限流相关环境变量，未开启时 Rated* 系列日志从不丢弃。
const (
	envRateEnable    = "STRUCTCLONE_LOG_RATE_ENABLE"
	envRateCredit    = "STRUCTCLONE_LOG_RATE_CREDIT_PER_SECOND"
	envRateMaxBalance = "STRUCTCLONE_LOG_RATE_MAX_BALANCE"
)

var (
	globalLogger   atomic.Pointer[zap.Logger]
	globalSugar    atomic.Pointer[zap.SugaredLogger]
	globalProps    atomic.Pointer[ZapProperties]
	globalLimiter  atomic.Value // RateLimiter
	leveledLoggers sync.Map     // zapcore.Level -> *zap.Logger

	namedRateLimiters sync.Map // group name -> *utils.ReconfigurableRateLimiter
)

// RateLimiter 是限流日志所需的最小接口，jaeger 的 ReconfigurableRateLimiter 满足该接口。
type RateLimiter interface {
	CheckCredit(delta float64) bool
}

type nopRateLimiter struct{}

func (nopRateLimiter) CheckCredit(float64) bool { return true }

func init() {
	lg, props, _ := InitLogger(&Config{Level: "info", Stderr: true}, zap.OnFatal(zapcore.WriteThenPanic))
	ReplaceGlobals(lg, props)
	globalLimiter.Store(rateLimiterFromEnv())
}

// InitLogger 按配置构建 Logger：文件输出经 lumberjack 轮转，标准输出与标准错误按开关叠加。
// 底层 core 以 debug 级别构建，实际级别由返回的 ZapProperties.Level 控制。
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	cfg.initialize()

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var outputs []zapcore.WriteSyncer
	if cfg.File.Filename != "" {
		lg, err := newFileSyncer(&cfg.File)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, zapcore.AddSync(lg))
	}
	for _, std := range []struct {
		enabled bool
		path    string
	}{{cfg.Stdout, "stdout"}, {cfg.Stderr, "stderr"}} {
		if !std.enabled {
			continue
		}
		ws, _, err := zap.Open(std.path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open %s", std.path)
		}
		outputs = append(outputs, ws)
	}

	debugCfg := *cfg
	debugCfg.Level = zapcore.DebugLevel.String()
	lg, props, err := InitLoggerWithWriteSyncer(&debugCfg, zap.CombineWriteSyncers(outputs...), opts...)
	if err != nil {
		return nil, nil, err
	}
	props.Level.SetLevel(level)
	return lg.WithOptions(zap.AddCallerSkip(1)), props, nil
}

// InitTestLogger 构建一个输出到 testing.T 的 Logger。
func InitTestLogger(t zaptest.TestingT, cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	atom := zap.NewAtomicLevelAt(level)
	lg := zaptest.NewLogger(t, zaptest.Level(atom), zaptest.WrapOptions(opts...))
	return lg, &ZapProperties{Core: lg.Core(), Level: atom}, nil
}

// InitLoggerWithWriteSyncer 使用指定输出构建 Logger。
func InitLoggerWithWriteSyncer(cfg *Config, output zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	atom := zap.NewAtomicLevelAt(level)
	core := zapcore.NewCore(cfg.newEncoder(), output, atom)
	lg := zap.New(core, append(cfg.buildOptions(output), opts...)...)
	return lg, &ZapProperties{Core: core, Level: atom}, nil
}

// parseLevel 解析日志级别，"trace" 视为 debug，空串视为 info。
func parseLevel(text string) (zapcore.Level, error) {
	switch {
	case text == "":
		return zapcore.InfoLevel, nil
	case strings.EqualFold(text, "trace"):
		return zapcore.DebugLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return level, errors.Wrapf(err, "invalid log level %q", text)
	}
	return level, nil
}

func newFileSyncer(cfg *FileLogConfig) (*lumberjack.Logger, error) {
	path := filepath.Join(cfg.RootPath, cfg.Filename)
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		return nil, errors.Newf("log file %s is a directory", path)
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultLogMaxSize
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxDays,
		LocalTime:  true,
	}, nil
}

// L 返回全局 Logger，可通过 ReplaceGlobals 替换，并发安全。
func L() *zap.Logger {
	return globalLogger.Load()
}

// S 返回全局 SugaredLogger。
func S() *zap.SugaredLogger {
	return globalSugar.Load()
}

// R 返回全局限流器。
func R() RateLimiter {
	if rl, ok := globalLimiter.Load().(RateLimiter); ok && rl != nil {
		return rl
	}
	return nopRateLimiter{}
}

// ctxL 返回与当前全局级别对应的 Logger。
func ctxL() *zap.Logger {
	if l, ok := leveledLoggers.Load(globalProps.Load().Level.Level()); ok {
		return l.(*zap.Logger)
	}
	return L()
}

// ReplaceGlobals 替换全局 Logger，并发安全。
func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	globalLogger.Store(logger)
	globalSugar.Store(logger.Sugar())
	globalProps.Store(props)
	// zap.IncreaseLevel 不能降低级别，低于 core 当前级别的直接回退到 L()。
	base := zapcore.LevelOf(logger.Core())
	for level := zapcore.DebugLevel; level <= zapcore.FatalLevel; level++ {
		if level < base {
			leveledLoggers.Delete(level)
			continue
		}
		leveledLoggers.Store(level, logger.WithOptions(zap.IncreaseLevel(level)))
	}
}

// Sync 刷新所有缓冲中的日志。
func Sync() error {
	err := L().Sync()
	leveledLoggers.Range(func(_, val any) bool {
		if serr := val.(*zap.Logger).Sync(); serr != nil && err == nil {
			err = serr
		}
		return true
	})
	return err
}

func rateLimiterFromEnv() RateLimiter {
	enabled, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(envRateEnable)))
	if err != nil || !enabled {
		return nopRateLimiter{}
	}
	return utils.NewRateLimiter(getenvFloat(envRateCredit, 1.0), getenvFloat(envRateMaxBalance, 60.0))
}

func getenvFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return f
}

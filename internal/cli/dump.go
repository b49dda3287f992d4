package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lk2023060901/structclone-go/internal/compressor"
	"github.com/lk2023060901/structclone-go/internal/tokenfmt"
	"github.com/lk2023060901/structclone-go/pkg/log"
	"github.com/lk2023060901/structclone-go/pkg/metrics"
	"github.com/lk2023060901/structclone-go/pkg/structclone"
	"github.com/lk2023060901/structclone-go/pkg/structclone/stream"
	"github.com/lk2023060901/structclone-go/pkg/util/conc"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
	"github.com/lk2023060901/structclone-go/pkg/util/typeutil"
)

const stdinName = "-"

type dumpFlags struct {
	workers     int
	compression string
	tags        []string
	stats       bool
}

func newDumpCmd(state *rootState) *cobra.Command {
	flags := &dumpFlags{}
	cmd := &cobra.Command{
		Use:   "dump [file...]",
		Short: "Decode inputs and print their tokens",
		Long: `Decode each input into its token sequence. Inputs are decoded concurrently,
one reader per input; "-" or no argument reads standard input. Decoding of
an input stops at its first error, which is reported next to the tokens
decoded so far.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, state, flags, args)
		},
	}
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "number of inputs decoded concurrently (default from dump.workers)")
	cmd.Flags().StringVar(&flags.compression, "compression", "", "block compression of the inputs: none, zstd, snappy, lz4 (default from dump.compression)")
	cmd.Flags().StringSliceVar(&flags.tags, "tags", nil, "only print tokens with these tag names")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "print codec counters to stderr after decoding")
	return cmd
}

func runDump(cmd *cobra.Command, state *rootState, flags *dumpFlags, args []string) error {
	ctx, span := state.intent("dump")
	defer span.End()
	logger := log.Ctx(ctx)

	conf := state.app.Config()
	if flags.workers != 0 {
		conf.Dump.Workers = flags.workers
	}
	if flags.compression != "" {
		conf.Dump.Compression = flags.compression
	}
	if conf.Dump.Workers <= 0 {
		return merr.WrapErrParameterInvalidMsg("workers must be positive, got %d", conf.Dump.Workers)
	}
	formatter, err := tokenfmt.NewFormatter(conf.Dump.Format)
	if err != nil {
		return err
	}
	comp, err := compressor.New(conf.Dump.Compression)
	if err != nil {
		return err
	}
	if z, ok := comp.(*compressor.ZstdCompressor); ok {
		defer z.Close()
	}
	filter, err := parseTagFilter(flags.tags)
	if err != nil {
		return err
	}
	if filter != nil {
		logger.Debug("tag filter", zap.Stringers("tags", typeutil.Sorted(filter)))
	}

	var registry *prometheus.Registry
	if flags.stats {
		registry = metrics.NewStatsRegistry()
	}

	if len(args) == 0 {
		args = []string{stdinName}
	}
	inputs, err := loadInputs(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	d := &dumper{
		ctx:       ctx,
		comp:      comp,
		filter:    filter,
		codecOpts: state.app.CodecOptions(),
		streamOpt: state.app.StreamOptions,
		format:    conf.Dump.Format,
	}
	pool := conc.NewPool[tokenfmt.Dump](conf.Dump.Workers, conc.WithPreAlloc(true))
	defer pool.Release()
	futures := lo.Map(inputs, func(in input, _ int) *conc.Future[tokenfmt.Dump] {
		return pool.Submit(func() (tokenfmt.Dump, error) {
			return d.dump(in), nil
		})
	})
	if err := conc.AwaitAll(futures...); err != nil {
		return err
	}
	dumps := lo.Map(futures, func(f *conc.Future[tokenfmt.Dump], _ int) tokenfmt.Dump { return f.Value() })

	if err := formatter.Format(cmd.OutOrStdout(), dumps); err != nil {
		return merr.WrapErrIoFailed("stdout", err)
	}
	if registry != nil {
		if err := writeStats(cmd.ErrOrStderr(), registry); err != nil {
			return err
		}
	}

	failed := lo.CountBy(dumps, func(d tokenfmt.Dump) bool { return d.Error != "" })
	logger.Debug("dump finished", zap.Int("inputs", len(dumps)), zap.Int("failed", failed))
	if failed > 0 {
		return errors.Wrapf(merr.ErrInvalidPayload, "%d of %d inputs failed to decode", failed, len(dumps))
	}
	return nil
}

type input struct {
	name string
	data []byte
}

func loadInputs(stdin io.Reader, names []string) ([]input, error) {
	inputs := make([]input, 0, len(names))
	for _, name := range names {
		var (
			data []byte
			err  error
		)
		if name == stdinName {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, merr.WrapErrIoFailed(name, err)
		}
		inputs = append(inputs, input{name: name, data: data})
	}
	return inputs, nil
}

func parseTagFilter(names []string) (typeutil.Set[structclone.Tag], error) {
	if len(names) == 0 {
		return nil, nil
	}
	set := typeutil.NewSet[structclone.Tag]()
	for _, name := range names {
		tag, ok := structclone.TagByName(name)
		if !ok {
			return nil, merr.WrapErrParameterInvalidMsg("unknown tag %q", name)
		}
		set.Insert(tag)
	}
	return set, nil
}

// dumper 每次调用解码一个输入，由池中的 worker 共享，每次调用各自创建 Reader。
type dumper struct {
	ctx       context.Context
	comp      compressor.Compressor
	filter    typeutil.Set[structclone.Tag]
	codecOpts []structclone.Option
	streamOpt func(name string) []stream.Option
	format    string
}

func (d *dumper) dump(in input) tokenfmt.Dump {
	start := time.Now()
	defer func() {
		metrics.DumpFileLatency.WithLabelValues(d.format).Observe(float64(time.Since(start).Milliseconds()))
	}()

	out := tokenfmt.Dump{Input: in.name, Tokens: []tokenfmt.Entry{}}
	plain, err := d.comp.Decompress(nil, in.data)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	metrics.DumpFileSize.Observe(float64(len(plain)))

	src := stream.NewSource(bytes.NewReader(plain), d.streamOpt(in.name)...)
	r := structclone.NewReader(src, d.codecOpts...)
	for {
		offset := src.Offset()
		tok, err := r.ReadToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			out.Error = err.Error()
			break
		}
		if d.filter == nil || d.filter.Contain(tok.Tag) {
			out.Tokens = append(out.Tokens, tokenfmt.Entry{Offset: offset, Doc: tokenfmt.FromToken(tok)})
		}
	}
	if v, ok := r.Version(); ok {
		out.Version = &v
	}
	ctx := log.WithFields(d.ctx, log.FieldInput(in.name))
	log.Ctx(ctx).Debug("input decoded",
		zap.Int("tokens", len(out.Tokens)),
		zap.Int64("bytes", src.Offset()),
		zap.String("error", out.Error))
	return out
}

func writeStats(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return merr.WrapErrIoFailed("stderr", err)
		}
	}
	return nil
}

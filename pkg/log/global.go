// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxLogKeyType struct{}

// CtxLogKey 是上下文中保存 *MLogger 的键。
var CtxLogKey = ctxLogKeyType{}

// Debug 在 Debug 级别输出一条日志，组件代码请优先使用 Ctx(ctx) 或 Binder。
func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

// With 创建一个携带额外字段的子 Logger，字段在首次输出时才编码。
func With(fields ...zap.Field) *MLogger {
	return &MLogger{
		Logger: L().WithLazy(fields...).WithOptions(zap.AddCallerSkip(-1)),
	}
}

// SetLevel 设置全局日志级别。
func SetLevel(l zapcore.Level) {
	globalProps.Load().Level.SetLevel(l)
}

// WithModule 为 ctx 中的 Logger 添加模块名字段。
func WithModule(ctx context.Context, module string) context.Context {
	return WithFields(ctx, FieldModule(module))
}

// WithFields 返回一个附加了指定字段的上下文。
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	zlogger := ctxL()
	if ctxLogger, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
		zlogger = ctxLogger.Logger
	}
	return context.WithValue(ctx, CtxLogKey, &MLogger{Logger: zlogger.With(fields...)})
}

// NewIntentContext 为一次命令执行开启 span，并把 role、intent 与 traceID 写入 ctx 中的 Logger。
func NewIntentContext(name string, intent string) (context.Context, trace.Span) {
	intentCtx, span := otel.Tracer(name).Start(context.Background(), intent)
	intentCtx = WithFields(intentCtx,
		zap.String("role", name),
		zap.String("intent", intent),
		zap.String("traceID", span.SpanContext().TraceID().String()))
	return intentCtx, span
}

// Ctx 返回 ctx 中携带的 Logger，没有时回退到全局 Logger。
func Ctx(ctx context.Context) *MLogger {
	if ctx != nil {
		if ctxLogger, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
			return ctxLogger
		}
	}
	return &MLogger{Logger: ctxL()}
}

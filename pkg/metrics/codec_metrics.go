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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	codecMetricSubsystem = "codec"
	dumpMetricSubsystem  = "dump"
)

var (
	codecMetricsRegisterOnce sync.Once
	dumpMetricsRegisterOnce  sync.Once

	CodecTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: structcloneNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "tokens_total",
		Help:      "按方向和标签统计的已编解码 token 数量",
	}, []string{directionLabelName, tagLabelName})

	CodecPayloadBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: structcloneNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "payload_bytes_total",
		Help:      "ARRAY_BUFFER 与 STRING 负载的原始字节总数",
	}, []string{directionLabelName})

	CodecErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: structcloneNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "errors_total",
		Help:      "按方向和错误类别统计的编解码失败次数",
	}, []string{directionLabelName, errorKindLabelName})

	DumpFileLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: structcloneNamespace,
		Subsystem: dumpMetricSubsystem,
		Name:      "file_latency",
		Help:      "单个输入文件解码耗时，单位毫秒",
		Buckets:   buckets,
	}, []string{formatLabelName})

	DumpFileSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: structcloneNamespace,
		Subsystem: dumpMetricSubsystem,
		Name:      "file_size",
		Help:      "解压后输入文件的大小，单位字节",
		Buckets:   sizeBuckets,
	})
)

// RegisterCodecMetrics 将编解码相关的指标注册到 Prometheus Registry 中。
func RegisterCodecMetrics(registry prometheus.Registerer) {
	codecMetricsRegisterOnce.Do(func() {
		registry.MustRegister(CodecTokens)
		registry.MustRegister(CodecPayloadBytes)
		registry.MustRegister(CodecErrors)
	})
}

// RegisterDumpMetrics 将 dump 命令相关的指标注册到 Prometheus Registry 中。
func RegisterDumpMetrics(registry prometheus.Registerer) {
	dumpMetricsRegisterOnce.Do(func() {
		registry.MustRegister(DumpFileLatency)
		registry.MustRegister(DumpFileSize)
	})
}

// NewStatsRegistry 返回一个只包含编解码与 dump 指标的独立 Registry，
// 供命令行在结束时输出统计信息。
func NewStatsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(CodecTokens, CodecPayloadBytes, CodecErrors, DumpFileLatency, DumpFileSize)
	return registry
}

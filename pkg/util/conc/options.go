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

package conc

import (
	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/structclone-go/pkg/log"
)

type poolOption struct {
	preAlloc bool
	// concealPanic 为 true 时任务 panic 只记录日志并以错误结束 Future，不再向上传播。
	concealPanic bool
	panicHandler func(any)
	preHandler   func()
}

// PoolOption 用于配置协程池行为。
type PoolOption func(opt *poolOption)

func (opt *poolOption) antsOptions() []ants.Option {
	return []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		// ants 默认会吞掉 panic，这里统一记录并按 concealPanic 决定是否继续抛出。
		ants.WithPanicHandler(func(v any) {
			log.Error("conc pool task panicked", zap.Any("panic", v))
			if opt.panicHandler != nil {
				opt.panicHandler(v)
			}
			if !opt.concealPanic {
				panic(v)
			}
		}),
	}
}

// WithPreAlloc 在创建时预分配 worker 队列。
func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.preAlloc = v
	}
}

func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.concealPanic = v
	}
}

// WithPanicHandler 在默认的日志记录之后额外调用 fn。
func WithPanicHandler(fn func(any)) PoolOption {
	return func(opt *poolOption) {
		opt.panicHandler = fn
	}
}

// WithPreHandler 在每个任务执行前调用 fn。
func WithPreHandler(fn func()) PoolOption {
	return func(opt *poolOption) {
		opt.preHandler = fn
	}
}

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

package typeutil

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Set 是基于 map[T]struct{} 的集合类型。
// nil Set 可以安全地读取，但不能写入。
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](elements ...T) Set[T] {
	set := make(Set[T], len(elements))
	set.Insert(elements...)
	return set
}

func (set Set[T]) Insert(elements ...T) {
	for i := range elements {
		set[elements[i]] = struct{}{}
	}
}

// Contain 判断一个或多个元素是否都存在于集合中。
func (set Set[T]) Contain(elements ...T) bool {
	for i := range elements {
		if _, ok := set[elements[i]]; !ok {
			return false
		}
	}
	return true
}

func (set Set[T]) Len() int {
	return len(set)
}

func (set Set[T]) Clone() Set[T] {
	ret := make(Set[T], len(set))
	for k := range set {
		ret[k] = struct{}{}
	}
	return ret
}

// Collect 以无序方式返回集合中的所有元素。
func (set Set[T]) Collect() []T {
	ret := make([]T, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}
	return ret
}

// Sorted 返回升序排列的集合元素，用于稳定输出。
func Sorted[T constraints.Ordered](set Set[T]) []T {
	ret := set.Collect()
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

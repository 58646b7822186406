// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorn/osmpbf/internal/queue"
)

func TestSortedQueue_PushInOrder(t *testing.T) {
	q := queue.New[string]()

	q.Push("a", 0)
	q.Push("b", 1)
	q.Push("c", 2)

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	assert.True(t, q.Empty())
}

func TestSortedQueue_PushOutOfOrder(t *testing.T) {
	q := queue.New[int]()

	q.Push(30, 2)
	q.Push(10, 0)

	assert.False(t, q.Empty(), "item 0 is at the front, so it is poppable although item 1 hasn't arrived")

	// Item 0 is available; only item 1 is missing, which blocks 2.
	v, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = q.TryPop()
	assert.False(t, ok)

	q.Push(20, 1)

	v, ok = q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 20, v)

	v, ok = q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 30, v)
}

func TestSortedQueue_ZeroValuePushIsNotMistakenForEmpty(t *testing.T) {
	q := queue.New[int]()

	q.Push(0, 0)

	v, ok := q.TryPop()
	require.True(t, ok, "a legitimately pushed zero value must still be poppable")
	assert.Equal(t, 0, v)
}

func TestSortedQueue_WaitAndPopBlocksUntilPush(t *testing.T) {
	q := queue.New[int]()

	var wg sync.WaitGroup
	wg.Add(1)

	var got int

	go func() {
		defer wg.Done()

		v, err := q.WaitAndPop(context.Background())
		if err == nil {
			got = v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42, 0)
	wg.Wait()

	assert.Equal(t, 42, got)
}

func TestSortedQueue_WaitAndPopRespectsContext(t *testing.T) {
	q := queue.New[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.WaitAndPop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSortedQueue_ConcurrentPushersSerializedPop(t *testing.T) {
	q := queue.New[int]()

	const n = 200

	var wg sync.WaitGroup
	for i := n - 1; i >= 0; i-- {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			q.Push(i, uint64(i))
		}(i)
	}

	wg.Wait()

	for i := 0; i < n; i++ {
		v, err := q.WaitAndPop(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

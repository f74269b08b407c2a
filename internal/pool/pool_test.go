package pool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"phishguard/internal/logger"
	"phishguard/internal/pool"
)

// TestPool_Basic 验证任务能正常执行
func TestPool_Basic(t *testing.T) {
	p := pool.New(2, 50, logger.NewNop())
	p.Start(context.Background())
	defer p.Stop()

	var count int32
	wg := sync.WaitGroup{}
	numTasks := 20

	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		ok := p.Submit(func(context.Context) {
			atomic.AddInt32(&count, 1)
			wg.Done()
		})
		if !ok {
			t.Errorf("任务 %d 提交失败", i)
			wg.Done()
		}
	}

	wg.Wait()
	if atomic.LoadInt32(&count) != int32(numTasks) {
		t.Errorf("期望执行 %d 个任务, 实际执行 %d", numTasks, count)
	}
}

// TestPool_ConcurrencyLimit 验证并发数限制
func TestPool_ConcurrencyLimit(t *testing.T) {
	size := 3
	p := pool.New(size, 20, nil)
	p.Start(context.Background())
	defer p.Stop()

	var active, maxActive int32
	wg := sync.WaitGroup{}
	block := make(chan struct{})

	for i := 0; i < 10; i++ {
		wg.Add(1)
		p.Submit(func(context.Context) {
			defer wg.Done()
			current := atomic.AddInt32(&active, 1)
			for {
				prev := atomic.LoadInt32(&maxActive)
				if current <= prev || atomic.CompareAndSwapInt32(&maxActive, prev, current) {
					break
				}
			}
			<-block
			atomic.AddInt32(&active, -1)
		})
	}

	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&maxActive); got != int32(size) {
		t.Errorf("期望最大并发数为 %d, 实际为 %d", size, got)
	}

	close(block)
	wg.Wait()
}

// TestPool_Drop 验证队列满时的丢弃策略
func TestPool_Drop(t *testing.T) {
	p := pool.New(1, 1, nil)
	p.Start(context.Background())

	block := make(chan struct{})
	defer func() {
		close(block)
		p.Stop()
	}()

	if !p.Submit(func(context.Context) { <-block }) {
		t.Fatal("任务 A 提交失败")
	}
	for i := 0; i < 50 && p.Stats().QueueLen != 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}

	if !p.Submit(func(context.Context) { <-block }) {
		t.Fatal("任务 B 提交失败")
	}
	if p.Submit(func(context.Context) { <-block }) {
		t.Error("任务 C 应该提交失败，但成功了")
	}

	s := p.Stats()
	if s.Submitted != 3 {
		t.Errorf("期望提交计数为 3, 实际为 %d", s.Submitted)
	}
	if s.Dropped != 1 {
		t.Errorf("期望丢弃计数为 1, 实际为 %d", s.Dropped)
	}
}

// TestPool_Unbounded 验证 size=0 时不限制并发
func TestPool_Unbounded(t *testing.T) {
	p := pool.New(0, 0, nil)
	if p.IsEnabled() {
		t.Error("size=0 时 IsEnabled 应该返回 false")
	}

	var count int32
	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		p.Submit(func(context.Context) {
			atomic.AddInt32(&count, 1)
			wg.Done()
		})
	}
	wg.Wait()
	if atomic.LoadInt32(&count) != 50 {
		t.Errorf("期望执行 50 个任务, 实际执行 %d", count)
	}
}

// TestPool_PanicRecovered 任务 panic 不影响 worker
func TestPool_PanicRecovered(t *testing.T) {
	p := pool.New(1, 4, nil)
	p.Start(context.Background())
	defer p.Stop()

	done := make(chan struct{})
	p.Submit(func(context.Context) { panic("boom") })
	p.Submit(func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panic 后 worker 未继续处理任务")
	}
	for i := 0; i < 50 && p.Stats().Panicked == 0; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	if p.Stats().Panicked != 1 {
		t.Errorf("期望 panic 计数为 1, 实际为 %d", p.Stats().Panicked)
	}
}

// TestPool_Stop 验证 Stop 后任务不再被处理
func TestPool_Stop(t *testing.T) {
	p := pool.New(2, 10, nil)
	p.Start(context.Background())
	p.Stop()

	ran := make(chan struct{})
	p.Submit(func(context.Context) { close(ran) })

	select {
	case <-ran:
		t.Error("Stop 后不应处理任务")
	case <-time.After(100 * time.Millisecond):
	}
}

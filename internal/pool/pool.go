package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"phishguard/internal/logger"
)

// Task 检测任务，ctx 随工作池生命周期取消
type Task func(ctx context.Context)

// Stats 工作池统计
type Stats struct {
	QueueLen  int   `json:"queueLen"`
	QueueCap  int   `json:"queueCap"`
	Active    int64 `json:"active"`
	Submitted int64 `json:"submitted"`
	Dropped   int64 `json:"dropped"`
	Completed int64 `json:"completed"`
	Panicked  int64 `json:"panicked"`
}

// Pool 固定数量的 worker 消费有界队列，队列满时直接丢弃任务
type Pool struct {
	size      int
	queue     chan Task
	log       logger.Logger
	submitted atomic.Int64
	dropped   atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
	active    atomic.Int64
	wg        sync.WaitGroup
	startOnce sync.Once
	cancel    context.CancelFunc
}

// New 创建工作池
// size: worker 数量，<=0 时不限制并发，每个任务独立协程执行；queueCap<=0 时为 size*8
func New(size, queueCap int, l logger.Logger) *Pool {
	if l == nil {
		l = logger.NewNop()
	}
	p := &Pool{size: size, log: l.With("component", "pool")}
	if size <= 0 {
		return p
	}
	if queueCap <= 0 {
		queueCap = size * 8
	}
	p.queue = make(chan Task, queueCap)
	return p
}

// Start 启动 worker 与状态监控，重复调用无效
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		ctx, p.cancel = context.WithCancel(ctx)
		if p.queue == nil {
			return
		}
		for i := 0; i < p.size; i++ {
			p.wg.Add(1)
			go p.worker(ctx)
		}
		go p.monitor(ctx)
	})
}

// Stop 停止所有 worker 并等待正在执行的任务结束，队列中未执行的任务被放弃
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) monitor(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := p.Stats()
			if s.Submitted == 0 {
				continue
			}
			p.log.Info("工作池状态监控",
				"queueLen", s.QueueLen,
				"queueCap", s.QueueCap,
				"active", s.Active,
				"submitted", s.Submitted,
				"dropped", s.Dropped,
				"dropRate", fmt.Sprintf("%.2f%%", float64(s.Dropped)/float64(s.Submitted)*100))
		}
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.queue:
			p.run(ctx, task)
		}
	}
}

func (p *Pool) run(ctx context.Context, task Task) {
	if task == nil {
		return
	}
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.log.Error("检测任务异常退出", "panic", fmt.Sprint(r))
			return
		}
		p.completed.Add(1)
	}()
	task(ctx)
}

// Submit 提交任务，队列已满时丢弃并返回 false
func (p *Pool) Submit(task Task) bool {
	p.submitted.Add(1)
	if p.queue == nil {
		go p.run(context.Background(), task)
		return true
	}
	select {
	case p.queue <- task:
		return true
	default:
		dropped := p.dropped.Add(1)
		p.log.Warn("工作池队列已满，任务被丢弃", "queueCap", cap(p.queue), "dropped", dropped)
		return false
	}
}

// Stats 返回统计信息
func (p *Pool) Stats() Stats {
	s := Stats{
		Active:    p.active.Load(),
		Submitted: p.submitted.Load(),
		Dropped:   p.dropped.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
	}
	if p.queue != nil {
		s.QueueLen = len(p.queue)
		s.QueueCap = cap(p.queue)
	}
	return s
}

// IsEnabled 是否限制并发
func (p *Pool) IsEnabled() bool {
	return p.queue != nil
}

package relay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/emirpasic/gods/lists/doublylinkedlist"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dep2p/go-segrelay/internal/core/locking"
	"github.com/dep2p/go-segrelay/internal/core/metrics"
	"github.com/dep2p/go-segrelay/internal/core/scope"
	"github.com/dep2p/go-segrelay/pkg/interfaces"
	"github.com/dep2p/go-segrelay/pkg/lib/log"
	"github.com/dep2p/go-segrelay/pkg/segment"
)

var logger = log.Logger("core/relay")

// DefaultMinSplitSize 生产者侧读取不透明数据时的最小分割大小
const DefaultMinSplitSize int64 = 8000

// DefaultVetoCacheSize 文件交接否决结果的默认缓存条目数
const DefaultVetoCacheSize = 16

// Owner 中继的生命周期所有者
//
// 中继创建时注册销毁钩子，显式销毁时撤销。
type Owner interface {
	OnTeardown(key any, fn scope.TeardownFunc) error
	Kill(key any) bool
}

// lockHolder 让锁策略可以原子替换
type lockHolder struct {
	ls interfaces.LockStrategy
}

// section 一次进入临界区
type section struct {
	r   *Relay
	ls  interfaces.LockStrategy
	tok interfaces.Token
}

// leave 离开临界区，再销毁临界区内推迟的代理段
func (s section) leave() {
	dead := s.r.deferred
	s.r.deferred = nil
	s.ls.Leave(s.tok)

	for _, p := range dead {
		if err := p.Destroy(); err != nil {
			logger.Debug("destroy forwarded proxy failed", "relay", s.r.id, "err", err)
		}
	}
}

func (s section) locked() bool { return s.tok != nil && s.tok.Held() }

func (s section) broadcast() {
	if s.locked() {
		s.ls.Broadcast()
	}
}

// Relay 跨 goroutine 的段中继
//
// 段的生命周期：生产者 Send 接纳到 Pending；消费者 Receive 把数据段包装成
// 代理段交出，源段移入 Held；最后一个代理段释放时源段移入 Purge；
// Purge 只在生产者侧的调用中销毁。元数据和文件段不经过 Held，直接进入 Purge。
type Relay struct {
	id  int
	tag string
	key uuid.UUID

	lock     atomic.Pointer[lockHolder]
	clock    clock.Clock
	owner    Owner
	mem      interfaces.MemoryManager
	memPrio  uint8
	reg      *Registry
	metrics  interfaces.RelayMetrics
	veto     *vetoCache
	minSplit int64

	pending  *doublylinkedlist.List
	held     *linkedhashset.Set
	purge    *doublylinkedlist.List
	leftover *segment.Brigade
	reserved map[segment.Segment]int64

	// deferred 待离开临界区后销毁的代理段
	deferred []*Proxy

	buffered      int64
	sent          int64
	received      int64
	reported      int64
	maxBufferSize int64
	timeout       time.Duration

	producerDone   bool
	closeAcked     bool
	aborted        bool
	destroyed      bool
	liveProxies    int
	filesHandedOff int

	consumed interfaces.ConsumedFunc
}

var _ interfaces.Relay = (*Relay)(nil)

// New 创建中继
//
// maxBufferSize 为 0 时不限制缓冲。配置了 Owner 时在其上注册销毁钩子。
func New(id int, tag string, maxBufferSize int64, opts ...Option) (*Relay, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	veto, err := newVetoCache(o.vetoCacheSize)
	if err != nil {
		return nil, fmt.Errorf("relay %d: veto cache: %w", id, err)
	}

	r := &Relay{
		id:            id,
		tag:           tag,
		clock:         o.clock,
		owner:         o.owner,
		mem:           o.mem,
		memPrio:       o.memPrio,
		reg:           o.registry,
		metrics:       o.metrics,
		veto:          veto,
		minSplit:      o.minSplit,
		pending:       doublylinkedlist.New(),
		held:          linkedhashset.New(),
		purge:         doublylinkedlist.New(),
		leftover:      segment.NewBrigade(),
		reserved:      make(map[segment.Segment]int64),
		maxBufferSize: maxBufferSize,
		timeout:       o.timeout,
	}
	r.lock.Store(&lockHolder{ls: o.lock})
	r.key = r.reg.register(r)

	if r.owner != nil {
		if err := r.owner.OnTeardown(r, r.cleanup); err != nil {
			r.reg.unregister(r.key)
			return nil, fmt.Errorf("relay %d: register teardown: %w", id, err)
		}
	}

	logger.Debug("relay created", "relay", id, "tag", tag, "maxBuffer", maxBufferSize)
	return r, nil
}

func (r *Relay) enter() section {
	ls := r.lock.Load().ls
	return section{r: r, ls: ls, tok: ls.Enter()}
}

// ============================================================================
//                              生命周期
// ============================================================================

// cleanup 销毁中继持有的所有段，要求没有存活的代理段
func (r *Relay) cleanup() error {
	sec := r.enter()
	defer sec.leave()
	if r.destroyed {
		return nil
	}

	err := r.dropLeftover()
	live := r.liveProxies
	if live > 0 {
		logger.Error("relay torn down with live proxies",
			"relay", r.id, "tag", r.tag, "live", live)
		err = multierr.Append(err, fmt.Errorf("relay %d: %d live: %w", r.id, live, ErrProxiesOutstanding))
	}

	err = multierr.Append(err, r.clearPending())
	err = multierr.Append(err, r.purgeSegments())
	if live == 0 {
		for _, v := range r.held.Values() {
			err = multierr.Append(err, r.destroySegment(v.(segment.Segment)))
		}
		r.held.Clear()
	}

	r.destroyed = true
	r.aborted = true
	r.reg.unregister(r.key)
	sec.broadcast()

	logger.Debug("relay destroyed", "relay", r.id, "tag", r.tag, "sent", r.sent, "received", r.received)
	return err
}

// Destroy 撤销销毁钩子并立即销毁
func (r *Relay) Destroy() error {
	if r.owner != nil {
		r.owner.Kill(r)
	}
	return r.cleanup()
}

// Reset 恢复为空的打开状态
//
// 要求没有存活的代理段。终止状态不会被清除。
func (r *Relay) Reset() error {
	sec := r.enter()
	defer sec.leave()

	if r.liveProxies > 0 {
		return fmt.Errorf("relay %d: reset with %d live: %w", r.id, r.liveProxies, ErrProxiesOutstanding)
	}

	err := r.dropLeftover()
	err = multierr.Append(err, r.clearPending())
	err = multierr.Append(err, r.purgeSegments())
	for _, v := range r.held.Values() {
		err = multierr.Append(err, r.destroySegment(v.(segment.Segment)))
	}
	r.held.Clear()

	r.producerDone = false
	r.closeAcked = false
	r.sent, r.received, r.reported = 0, 0, 0
	return err
}

// Close 声明不再发送数据
func (r *Relay) Close() error {
	sec := r.enter()
	r.purgeSegments()
	if !r.producerDone {
		r.producerDone = true
		sec.broadcast()
	}
	aborted := r.aborted
	cb, delta := r.takeConsumption()
	sec.leave()

	r.report(cb, delta)
	if aborted {
		return ErrAborted
	}
	return nil
}

// Abort 终止中继
//
// 丢弃未读数据与暂存的剩余段，唤醒所有等待者。幂等。
func (r *Relay) Abort() {
	sec := r.enter()
	r.purgeSegments()
	r.clearPending()
	r.dropLeftover()
	r.purgeSegments()
	if !r.aborted {
		r.aborted = true
		logger.Debug("relay aborted", "relay", r.id, "tag", r.tag)
	}
	cb, delta := r.takeConsumption()
	sec.broadcast()
	sec.leave()

	r.report(cb, delta)
}

// Shutdown 丢弃未读数据并关闭
//
// 与 Abort 不同，消费者之后仍能读到流结束。
func (r *Relay) Shutdown() {
	sec := r.enter()
	r.purgeSegments()
	r.clearPending()
	r.producerDone = true
	cb, delta := r.takeConsumption()
	sec.broadcast()
	sec.leave()

	r.report(cb, delta)
}

// ============================================================================
//                              配置
// ============================================================================

// BufferSize 返回最大缓冲字节数
func (r *Relay) BufferSize() int64 {
	sec := r.enter()
	defer sec.leave()
	return r.maxBufferSize
}

// SetBufferSize 设置最大缓冲字节数
func (r *Relay) SetBufferSize(n int64) {
	sec := r.enter()
	defer sec.leave()
	r.maxBufferSize = n
	sec.broadcast()
}

// Timeout 返回阻塞等待超时
func (r *Relay) Timeout() time.Duration {
	sec := r.enter()
	defer sec.leave()
	return r.timeout
}

// SetTimeout 设置阻塞等待超时
func (r *Relay) SetTimeout(d time.Duration) {
	sec := r.enter()
	defer sec.leave()
	r.timeout = d
}

// OnConsumed 注册消费量回调
func (r *Relay) OnConsumed(fn interfaces.ConsumedFunc) {
	sec := r.enter()
	defer sec.leave()
	r.consumed = fn
}

// OnFileHandoff 注册文件交接否决回调
func (r *Relay) OnFileHandoff(fn interfaces.FileVetoFunc) {
	sec := r.enter()
	defer sec.leave()
	r.veto.set(fn)
}

// SetLockStrategy 替换锁策略
//
// 在旧策略的临界区内完成替换，再用旧策略离开。不能在有调用阻塞时替换。
func (r *Relay) SetLockStrategy(s interfaces.LockStrategy) {
	if s == nil {
		s = locking.NoLock()
	}
	prev := r.enter()
	r.lock.Store(&lockHolder{ls: s})
	prev.leave()
}

// ============================================================================
//                              访问器
// ============================================================================

// ID 返回中继编号
func (r *Relay) ID() int { return r.id }

// Tag 返回中继标签
func (r *Relay) Tag() string { return r.tag }

// Key 返回登记表中的 key
func (r *Relay) Key() uuid.UUID { return r.key }

// BufferedLength 返回待接收数据字节数，不含文件段
func (r *Relay) BufferedLength() int64 {
	sec := r.enter()
	defer sec.leave()
	return r.buffered
}

// MemoryUsed 返回待接收数据占用的内存，不含文件段
func (r *Relay) MemoryUsed() int64 {
	sec := r.enter()
	defer sec.leave()
	return r.buffered
}

// IsEmpty 是否没有待接收的段（含暂存的剩余段）
func (r *Relay) IsEmpty() bool {
	sec := r.enter()
	defer sec.leave()
	return r.pending.Empty() && r.leftover.Empty()
}

// IsClosed 生产者是否已声明结束
func (r *Relay) IsClosed() bool {
	sec := r.enter()
	defer sec.leave()
	return r.producerDone
}

// IsAborted 是否已终止
func (r *Relay) IsAborted() bool {
	sec := r.enter()
	defer sec.leave()
	return r.aborted
}

// WasReceived 是否已有数据交给消费者
func (r *Relay) WasReceived() bool {
	sec := r.enter()
	defer sec.leave()
	return r.received > 0
}

// FilesHandedOff 返回交接的文件段数
func (r *Relay) FilesHandedOff() int {
	sec := r.enter()
	defer sec.leave()
	return r.filesHandedOff
}

// LiveProxies 返回存活的代理段数
func (r *Relay) LiveProxies() int {
	sec := r.enter()
	defer sec.leave()
	return r.liveProxies
}

// ============================================================================
//                              内部：列表与预算
// ============================================================================

// countsAgainstBuffer 文件段与元数据不计入缓冲
func countsAgainstBuffer(s segment.Segment) bool {
	return s.Kind() == segment.KindData && s.Len() > 0
}

func (r *Relay) pushPending(s segment.Segment) {
	r.pending.Add(s)
	if countsAgainstBuffer(s) {
		r.buffered += s.Len()
		r.metrics.Buffered(r.tag, s.Len())
	}
}

func (r *Relay) popPending() segment.Segment {
	v, ok := r.pending.Get(0)
	if !ok {
		return nil
	}
	r.pending.Remove(0)
	s := v.(segment.Segment)
	if countsAgainstBuffer(s) {
		r.buffered -= s.Len()
		r.metrics.Buffered(r.tag, -s.Len())
	}
	return s
}

func (r *Relay) pushFrontPending(s segment.Segment) {
	r.pending.Prepend(s)
	if countsAgainstBuffer(s) {
		r.buffered += s.Len()
		r.metrics.Buffered(r.tag, s.Len())
	}
}

func (r *Relay) spaceLeft() int64 {
	if r.maxBufferSize <= 0 {
		return math.MaxInt64
	}
	if r.buffered >= r.maxBufferSize {
		return 0
	}
	return r.maxBufferSize - r.buffered
}

// reserve 为中继复制或读取的数据预留内存
func (r *Relay) reserve(s segment.Segment) error {
	n := s.Len()
	if err := r.reserveBytes(n); err != nil {
		return err
	}
	r.track(s, n)
	return nil
}

func (r *Relay) reserveBytes(n int64) error {
	if r.mem == nil || n <= 0 {
		return nil
	}
	if err := r.mem.ReserveMemory(int(n), r.memPrio); err != nil {
		return fmt.Errorf("relay %d: %w: %w", r.id, ErrResourceExhausted, err)
	}
	return nil
}

func (r *Relay) releaseBytes(n int64) {
	if r.mem != nil && n > 0 {
		r.mem.ReleaseMemory(int(n))
	}
}

// track 记录段对应的预留，段销毁时释放
func (r *Relay) track(s segment.Segment, n int64) {
	if r.mem != nil && n > 0 {
		r.reserved[s] += n
	}
}

func (r *Relay) release(s segment.Segment) {
	if n, ok := r.reserved[s]; ok {
		delete(r.reserved, s)
		r.releaseBytes(n)
	}
}

// destroySegment 销毁段并释放预留
//
// 转发进来的代理段可能回到共享同一把锁的中继，推迟到离开临界区后销毁。
func (r *Relay) destroySegment(s segment.Segment) error {
	r.release(s)
	if p, ok := s.(*Proxy); ok {
		r.deferred = append(r.deferred, p)
		return nil
	}
	return s.Destroy()
}

// purgeSegments 销毁 Purge 中的段，只在生产者侧调用
func (r *Relay) purgeSegments() error {
	n := r.purge.Size()
	if n == 0 {
		return nil
	}
	var err error
	for _, v := range r.purge.Values() {
		err = multierr.Append(err, r.destroySegment(v.(segment.Segment)))
	}
	r.purge.Clear()
	r.metrics.SegmentsPurged(r.tag, n)
	if err != nil {
		logger.Warn("purge segments failed", "relay", r.id, "tag", r.tag, "err", err)
	}
	return err
}

// clearPending 销毁所有未接收的段
func (r *Relay) clearPending() error {
	var err error
	for !r.pending.Empty() {
		err = multierr.Append(err, r.destroySegment(r.popPending()))
	}
	return err
}

// dropLeftover 释放暂存的剩余段
//
// 代理段在临界区内释放，源段进入 Purge，调用方负责随后清理。
func (r *Relay) dropLeftover() error {
	var err error
	for _, s := range r.leftover.Segments() {
		if p, ok := s.(*Proxy); ok {
			p.releaseLocked(r)
			continue
		}
		err = multierr.Append(err, s.Destroy())
	}
	r.leftover = segment.NewBrigade()
	return err
}

// emitted 源段的最后一个代理段已释放
func (r *Relay) emitted(src segment.Segment) {
	sec := r.enter()
	r.emittedLocked(src)
	if sec.locked() {
		sec.ls.Broadcast()
	} else {
		r.purgeSegments()
	}
	sec.leave()
}

func (r *Relay) emittedLocked(src segment.Segment) {
	r.liveProxies--
	r.metrics.LiveProxies(r.tag, -1)
	r.held.Remove(src)
	r.purge.Add(src)
}

// ============================================================================
//                              内部：等待与回调
// ============================================================================

// deadline 每次操作只计算一次截止时间
func (r *Relay) deadline() time.Time {
	if r.timeout <= 0 {
		return time.Time{}
	}
	return r.clock.Now().Add(r.timeout)
}

// wait 在条件上等待一次，返回中继层的错误
func (r *Relay) wait(ctx context.Context, sec section, op string, deadline time.Time) error {
	var d time.Duration
	if !deadline.IsZero() {
		d = deadline.Sub(r.clock.Now())
		if d <= 0 {
			r.metrics.Wait(op, "timeout")
			return fmt.Errorf("relay %d %s: %w", r.id, op, ErrTimeout)
		}
	}

	err := sec.ls.Wait(ctx, sec.tok, d)
	switch {
	case err == nil:
		r.metrics.Wait(op, "woken")
		return nil
	case errors.Is(err, interfaces.ErrWaitTimeout):
		r.metrics.Wait(op, "timeout")
		return fmt.Errorf("relay %d %s: %w", r.id, op, ErrTimeout)
	case errors.Is(err, context.DeadlineExceeded):
		r.metrics.Wait(op, "timeout")
		return fmt.Errorf("relay %d %s: %w: %w", r.id, op, ErrTimeout, err)
	case errors.Is(err, interfaces.ErrWaitUnsupported):
		return ErrWouldBlock
	default:
		r.metrics.Wait(op, "canceled")
		return fmt.Errorf("relay %d %s: %w", r.id, op, err)
	}
}

// takeConsumption 在临界区内计算未上报的消费量
func (r *Relay) takeConsumption() (interfaces.ConsumedFunc, int64) {
	if r.consumed == nil || r.received == r.reported {
		return nil, 0
	}
	delta := r.received - r.reported
	r.reported = r.received
	return r.consumed, delta
}

// report 在临界区外调用消费量回调
func (r *Relay) report(cb interfaces.ConsumedFunc, delta int64) {
	if cb != nil {
		cb(r, delta)
	}
}

// ============================================================================
//                              选项
// ============================================================================

type options struct {
	lock          interfaces.LockStrategy
	clock         clock.Clock
	owner         Owner
	mem           interfaces.MemoryManager
	memPrio       uint8
	registry      *Registry
	metrics       interfaces.RelayMetrics
	timeout       time.Duration
	minSplit      int64
	vetoCacheSize int
}

func defaultOptions() options {
	return options{
		lock:          locking.NoLock(),
		clock:         clock.New(),
		memPrio:       interfaces.ReservationPriorityAlways,
		registry:      NewRegistry(),
		metrics:       metrics.Noop{},
		minSplit:      DefaultMinSplitSize,
		vetoCacheSize: DefaultVetoCacheSize,
	}
}

// Option 中继选项
type Option func(*options)

// WithLockStrategy 指定锁策略
func WithLockStrategy(ls interfaces.LockStrategy) Option {
	return func(o *options) {
		if ls != nil {
			o.lock = ls
		}
	}
}

// WithClock 指定计算截止时间的时钟，应与锁策略使用的时钟一致
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithOwner 指定生命周期所有者
func WithOwner(owner Owner) Option {
	return func(o *options) {
		o.owner = owner
	}
}

// WithMemory 指定内存预算与预留优先级
func WithMemory(m interfaces.MemoryManager, prio uint8) Option {
	return func(o *options) {
		o.mem = m
		if prio > 0 {
			o.memPrio = prio
		}
	}
}

// WithRegistry 指定登记表
func WithRegistry(reg *Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// WithMetrics 指定指标上报
func WithMetrics(m interfaces.RelayMetrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTimeout 指定阻塞等待超时
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithMinSplitSize 指定不透明数据的最小分割大小
func WithMinSplitSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.minSplit = n
		}
	}
}

// WithVetoCacheSize 指定否决结果缓存大小
func WithVetoCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.vetoCacheSize = n
		}
	}
}

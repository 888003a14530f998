// Package relay 实现跨 goroutine 的段中继
//
// 一个中继连接一个生产者和一个消费者。生产者通过 Send 提交段，
// 消费者通过 Receive 取出段。数据段不复制：消费者拿到的是引用
// 生产者源段的代理段，源段在所有代理段释放后回到生产者侧销毁。
//
// # 段的去向
//
//	Send ──▶ Pending ──Receive──▶ Held ──代理段全部释放──▶ Purge ──生产者调用──▶ 销毁
//
// 元数据和文件段在接收时直接进入 Purge。
//
// # 缓冲
//
// Pending 中的数据字节受 maxBufferSize 限制，文件段不计入。
// 缓冲满时 Send 在阻塞模式下等待，非阻塞模式返回 ErrWouldBlock。
// 临时内存在接纳时复制，不透明数据在生产者侧读取后再接纳。
//
// # 锁
//
// 锁策略由调用方提供，可在同一连接的多个中继间共享。
// 未配置锁时中继从不阻塞，调用方负责串行化。
//
// # 生命周期
//
// 中继在 Owner（通常是连接的 scope.Scope）上注册销毁钩子；
// 代理段只持有中继的 key，通过 Registry 找回中继。
package relay

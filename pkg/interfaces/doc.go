// Package interfaces 定义 go-segrelay 的公共接口
//
// 接口文件按组件划分：
//   - relay.go      - 中继（生产者/消费者视图、回调）
//   - locking.go    - 锁策略与等待
//   - resource.go   - 内存预算
//   - metrics.go    - 指标上报
//
// 实现位于 internal/core 下的同名目录。
package interfaces

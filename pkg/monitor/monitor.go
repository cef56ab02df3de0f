package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 指标在包加载时注册到默认 Registry
var (
	// SignRequestsTotal 记录签名请求总量, result 为 ok / error
	SignRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_sign_requests_total",
			Help: "Total number of signing requests by chain and result.",
		},
		[]string{"chain", "result"},
	)

	// SignDuration 记录一次签名流水线 (编码/哈希/签名/组装) 的耗时
	SignDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_sign_duration_seconds",
			Help:    "Signing pipeline latency distributions.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"chain"},
	)

	// DerivationRetriesTotal 子密钥无效 (IL >= n 或结果为 0) 时的重试次数
	DerivationRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_derivation_retries_total",
			Help: "Total number of BIP-32 child derivations retried at index+1.",
		},
	)

	// KeysDestroyedTotal 已销毁的签名密钥数量
	KeysDestroyedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_keys_destroyed_total",
			Help: "Total number of signing keys destroyed.",
		},
	)
)

// ObserveSign 记录一次签名结果。
func ObserveSign(chain string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SignRequestsTotal.WithLabelValues(chain, result).Inc()
	if err == nil {
		SignDuration.WithLabelValues(chain).Observe(seconds)
	}
}

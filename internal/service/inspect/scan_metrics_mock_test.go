package inspect

import (
	"sync"
	"time"
)

var _ scanMetrics = &scanMetricsMock{}

type scanMetricsMock struct {
	ObserveScanFunc func(ruleset string, riskLevel string, d time.Duration)

	calls struct {
		ObserveScan []struct {
			Ruleset   string
			RiskLevel string
			D         time.Duration
		}
	}
	lockObserveScan sync.RWMutex
}

func (mock *scanMetricsMock) ObserveScan(ruleset string, riskLevel string, d time.Duration) {
	if mock.ObserveScanFunc == nil {
		panic("scanMetricsMock.ObserveScanFunc: method is nil but scanMetrics.ObserveScan was just called")
	}
	callInfo := struct {
		Ruleset   string
		RiskLevel string
		D         time.Duration
	}{Ruleset: ruleset, RiskLevel: riskLevel, D: d}
	mock.lockObserveScan.Lock()
	mock.calls.ObserveScan = append(mock.calls.ObserveScan, callInfo)
	mock.lockObserveScan.Unlock()
	mock.ObserveScanFunc(ruleset, riskLevel, d)
}

func (mock *scanMetricsMock) ObserveScanCalls() []struct {
	Ruleset   string
	RiskLevel string
	D         time.Duration
} {
	mock.lockObserveScan.RLock()
	calls := mock.calls.ObserveScan
	mock.lockObserveScan.RUnlock()
	return calls
}

package service

import "sync/atomic"

// ModeSelector 全局的演示模式开关，只影响之后发起的调用
type ModeSelector struct {
	demo atomic.Bool
}

func NewModeSelector(demo bool) *ModeSelector {
	m := &ModeSelector{}
	m.demo.Store(demo)
	return m
}

func (m *ModeSelector) IsDemo() bool {
	return m.demo.Load()
}

func (m *ModeSelector) Set(demo bool) {
	m.demo.Store(demo)
}

// Toggle 返回切换后的值
func (m *ModeSelector) Toggle() bool {
	for {
		old := m.demo.Load()
		if m.demo.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

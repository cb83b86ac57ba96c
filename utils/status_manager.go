package utils

import (
	"sync"

	"github.com/fansqz/gdb-frontend/constants"
)

// StatusManager 记录调试会话状态的
// 引擎goroutine写，任意goroutine读
type StatusManager struct {
	lock   sync.RWMutex
	status constants.DebugState
}

func NewStatusManager() *StatusManager {
	return &StatusManager{
		status: constants.StateInactive,
	}
}

func (s *StatusManager) Set(status constants.DebugState) {
	defer s.lock.Unlock()
	s.lock.Lock()
	s.status = status
}

func (s *StatusManager) Get() constants.DebugState {
	defer s.lock.RUnlock()
	s.lock.RLock()
	return s.status
}

// Is 当前状态是否在列表里
func (s *StatusManager) Is(statusList ...constants.DebugState) bool {
	defer s.lock.RUnlock()
	s.lock.RLock()
	for _, status := range statusList {
		if s.status == status {
			return true
		}
	}
	return false
}

// Has 当前状态是否含有mask里的任意一位
func (s *StatusManager) Has(mask constants.DebugState) bool {
	defer s.lock.RUnlock()
	s.lock.RLock()
	return s.status&mask != 0
}

package protocol

import "github.com/fansqz/gdb-frontend/constants"

// LaunchEvent
// 调试启动结果事件
type LaunchEvent struct {
	Event   constants.DebugEventType `json:"event"`
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
}

// TerminatedEvent
// 调试结束事件
type TerminatedEvent struct {
	Event constants.DebugEventType `json:"event"`
}

// OutputEvent
// 该事件表明目标或者gdb产生了一些输出
type OutputEvent struct {
	Event  constants.DebugEventType `json:"event"`
	Output string                   `json:"output"`
}

// BreakpointRow 断点表的一行
type BreakpointRow struct {
	Scid     int    `json:"scid"`
	ID       string `json:"id,omitempty"`
	Kind     string `json:"kind"`
	Enabled  bool   `json:"enabled"`
	Pending  bool   `json:"pending,omitempty"`
	Display  string `json:"display,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Func     string `json:"func,omitempty"`
	Addr     string `json:"addr,omitempty"`
	Ignore   string `json:"ignore,omitempty"`
	Cond     string `json:"cond,omitempty"`
	Script   string `json:"script,omitempty"`
	Times    int    `json:"times"`
	RunApply bool   `json:"runApply"`
}

// BreakpointsEvent 断点表快照事件
type BreakpointsEvent struct {
	Event       constants.DebugEventType `json:"event"`
	Breakpoints []BreakpointRow          `json:"breakpoints"`
}

// ThreadRow 线程表的一行
type ThreadRow struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	GroupID  string `json:"groupId,omitempty"`
	PID      string `json:"pid,omitempty"`
	File     string `json:"file,omitempty"`
	BaseName string `json:"baseName,omitempty"`
	Line     int    `json:"line,omitempty"`
	Func     string `json:"func,omitempty"`
	Addr     string `json:"addr,omitempty"`
	TargetID string `json:"targetId,omitempty"`
	Core     string `json:"core,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

// ThreadsEvent 线程表快照事件
type ThreadsEvent struct {
	Event    constants.DebugEventType `json:"event"`
	Threads  []ThreadRow              `json:"threads"`
	Current  string                   `json:"current,omitempty"`
	GdbOwned string                   `json:"gdbCurrent,omitempty"`
}

// MarkEvent 编辑器标记事件
type MarkEvent struct {
	Event  constants.DebugEventType `json:"event"`
	File   string                   `json:"file"`
	Line   int                      `json:"line"`
	Set    bool                     `json:"set"`
	Marker int                      `json:"marker"`
}

// MoveMarkEvent 编辑器标记移动事件
type MoveMarkEvent struct {
	Event  constants.DebugEventType `json:"event"`
	File   string                   `json:"file"`
	Line   int                      `json:"line"`
	Start  int                      `json:"start"`
	Delta  int                      `json:"delta"`
	Marker int                      `json:"marker"`
}

// SeekEvent 编辑器跳转事件
type SeekEvent struct {
	Event constants.DebugEventType `json:"event"`
	File  string                   `json:"file"`
	Line  int                      `json:"line"`
	Focus bool                     `json:"focus"`
	Mode  int                      `json:"mode"`
}

// MessageEvent 状态栏/错误/提示消息事件
type MessageEvent struct {
	Event   constants.DebugEventType `json:"event"`
	Message string                   `json:"message"`
}

// SignalEvent 不带正文的事件（blink/beep/openDebugPanel）
type SignalEvent struct {
	Event constants.DebugEventType `json:"event"`
}

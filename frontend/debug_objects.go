package frontend

import "github.com/fansqz/gdb-frontend/constants"

// Breakpoint 断点行
// ID是gdb分配的编号，观察点子行用点号编号（如"2.1"）；没有ID的行是
// 还没在gdb上创建的本地行。Scid是本地序号，gdb重新分配编号时保持不变，
// 发出去的命令用它做相关令牌，响应回来时靠它找回行
type Breakpoint struct {
	ID   string
	Scid int
	Kind constants.BreakpointKind

	Enabled   bool
	Temporary bool
	Pending   bool
	// Missing 全量列表刷新时的临时标记，刷完还带着说明gdb那边已经没有这行
	Missing bool
	// Discard 断开连接时直接丢弃（没有任何命令能重建这个断点）
	Discard bool
	// RunApply 下次连接时自动重新应用
	RunApply bool

	// Location 发给gdb的定位串，Display是给人看的
	Location string
	Display  string
	File     string
	Line     int
	Func     string
	Addr     string

	// Ignore break类型是忽略次数，trace类型是passcount
	Ignore string
	Cond   string
	Script string
	Times  int
}

// Thread 线程行
type Thread struct {
	ID       string
	State    constants.RunState
	GroupID  string
	PID      string
	File     string
	BaseName string
	Line     int
	Func     string
	Addr     string
	TargetID string
	Core     string
}

// ThreadGroup gdb眼里的inferior进程
// PID要等thread-group-started通知才能补上
type ThreadGroup struct {
	GroupID string
	PID     string
}

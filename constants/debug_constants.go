package constants

// DebugState 调试会话状态，位掩码
// 会话层维护该状态，两个引擎只读取，用于判断一个用户操作此刻能不能下发给gdb
type DebugState int

const (
	// StateInactive gdb未启动或已退出，所有编辑都只作用于本地模型
	StateInactive DebugState = 1 << iota
	// StateBusy gdb正在执行同步命令，暂时不能接收新命令
	StateBusy
	// StateHanging 程序已加载未运行
	StateHanging
	// StateDebug 停在gdb提示符，可以自由发送命令
	StateDebug
)

const (
	// StateActive 会话存在（不管能不能发命令）
	StateActive = StateBusy | StateHanging | StateDebug
	// StateSendable 此刻可以向gdb发送命令
	StateSendable = StateHanging | StateDebug
)

// ThreadState 当前选中线程的综合执行状态
// 顺序有意义：>= ThreadStopped 表示处于某种停止态
type ThreadState int

const (
	ThreadBlank ThreadState = iota
	ThreadRunning
	ThreadStopped
	ThreadQueryFrame
	ThreadAtAssembler
	ThreadAtSource
)

func (s ThreadState) String() string {
	switch s {
	case ThreadBlank:
		return "blank"
	case ThreadRunning:
		return "running"
	case ThreadStopped:
		return "stopped"
	case ThreadQueryFrame:
		return "query-frame"
	case ThreadAtAssembler:
		return "at-assembler"
	case ThreadAtSource:
		return "at-source"
	}
	return "unknown"
}

// RunState 单个线程行的运行状态
type RunState int

const (
	// RunBlank 线程刚创建，还没有收到过running/stopped通知
	RunBlank RunState = iota
	RunRunning
	RunStopped
)

// Marker 编辑器行标记类型
type Marker int

const (
	MarkerBreakDisabled Marker = iota
	MarkerBreakEnabled
	MarkerExecute
)

// BreakMarker 根据断点启用状态返回对应的断点标记
func BreakMarker(enabled bool) Marker {
	if enabled {
		return MarkerBreakEnabled
	}
	return MarkerBreakDisabled
}

// View 需要刷新的视图
type View int

const (
	ViewBreaks View = iota
	ViewThreads
	ViewConsole
)

package constants

// RequestType 前端请求类型
type RequestType string

const (
	// StartDebug 启动调试
	StartDebug RequestType = "start"
	// Terminate 关闭调试
	Terminate RequestType = "terminate"
	// ExecControl 执行控制（continue/next/step/finish/run/interrupt）
	ExecControl RequestType = "exec"
	// SendToConsole 输入到被调程序控制台
	SendToConsole RequestType = "sendToConsole"

	// ToggleBreakpoint 在某一行上切换断点
	ToggleBreakpoint RequestType = "toggleBreakpoint"
	// EnableBreakpoint 启用/禁用断点
	EnableBreakpoint RequestType = "enableBreakpoint"
	// EditBreakpoint 编辑断点的忽略次数/条件/脚本
	EditBreakpoint RequestType = "editBreakpoint"
	// DeleteBreakpoint 删除断点
	DeleteBreakpoint RequestType = "deleteBreakpoint"
	// ApplyBreakpoint 在gdb上重建断点
	ApplyBreakpoint RequestType = "applyBreakpoint"
	// RefreshBreakpoints 主动刷新断点列表
	RefreshBreakpoints RequestType = "refreshBreakpoints"

	// SelectThread 选中线程
	SelectThread RequestType = "selectThread"
	// SignalThread 给选中线程所在进程发信号
	SignalThread RequestType = "signalThread"
	// SynchronizeThread 把gdb的当前线程对齐到选中线程
	SynchronizeThread RequestType = "synchronizeThread"
	// RefreshThreads 主动刷新线程列表
	RefreshThreads RequestType = "refreshThreads"

	// FileOpened 编辑器打开了文件，补画标记
	FileOpened RequestType = "fileOpened"
	// FileDelta 编辑器行增删
	FileDelta RequestType = "fileDelta"
)

// ExecType 执行控制命令
type ExecType string

const (
	ExecRun       ExecType = "run"
	ExecContinue  ExecType = "continue"
	ExecNext      ExecType = "next"
	ExecStep      ExecType = "step"
	ExecFinish    ExecType = "finish"
	ExecUntil     ExecType = "until"
	ExecInterrupt ExecType = "interrupt"
)

// DebugEventType 推送给前端的事件类型
type DebugEventType string

const (
	// EventLaunch 调试启动结果
	EventLaunch DebugEventType = "launch"
	// EventTerminated 调试结束
	EventTerminated DebugEventType = "terminated"
	// EventOutput 被调程序或gdb控制台输出
	EventOutput DebugEventType = "output"

	// EventBreakpoints 断点表快照
	EventBreakpoints DebugEventType = "breakpoints"
	// EventThreads 线程表快照
	EventThreads DebugEventType = "threads"

	// EventMark 编辑器标记变化
	EventMark DebugEventType = "mark"
	// EventMoveMark 编辑器标记移动
	EventMoveMark DebugEventType = "moveMark"
	// EventSeek 编辑器跳转
	EventSeek DebugEventType = "seek"

	// EventStatus 状态栏消息
	EventStatus DebugEventType = "status"
	// EventError 错误消息
	EventError DebugEventType = "error"
	// EventInfo 提示消息
	EventInfo DebugEventType = "info"
	// EventBlink EventBeep 轻量提醒
	EventBlink DebugEventType = "blink"
	EventBeep  DebugEventType = "beep"
	// EventOpenPanel 展开调试面板
	EventOpenPanel DebugEventType = "openDebugPanel"
)

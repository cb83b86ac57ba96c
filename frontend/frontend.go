// Package frontend 是调试器前端的核心：维护断点和线程两份本地模型，
// 把gdb的异步通知、命令响应和用户编辑合并成一致的状态
// 这一层是单线程的，所有入口都必须在同一个goroutine里调用
package frontend

import "github.com/fansqz/gdb-frontend/constants"

// SendMode 命令发送模式，决定传输层要不要附加线程/栈帧定位参数
type SendMode int

const (
	// ModeNone 原样发送
	ModeNone SendMode = iota
	// ModeFrame 附加当前线程和栈帧（--thread N --frame N）
	ModeFrame
	// ModeThread 只附加当前线程
	ModeThread
)

// SeekMode 编辑器跳转模式
type SeekMode int

const (
	SeekDefault SeekMode = iota
	// SeekExecute 跳到执行位置并高亮
	SeekExecute
	// SeekExecMark 跳转同时打执行标记
	SeekExecMark
)

// Commander 命令下发接口，由会话层实现
// 命令是发后不管的，效果以后续的异步通知形式回来，这里没有同步返回值
type Commander interface {
	// State 会话当前状态
	State() constants.DebugState
	// Send 发送一条带相关令牌的命令，token可以为空
	Send(mode SendMode, token, format string, args ...interface{})
}

// Editor 编辑器协作方：标记和跳转，对核心来说都是单向调用
type Editor interface {
	// Mark 在某个文件行上打或者撤掉一个标记
	Mark(file string, line int, set bool, marker constants.Marker)
	// MoveMark 行增删后移动标记（只动标记不动模型）
	MoveMark(file string, line, start, delta int, marker constants.Marker)
	// Seek 跳转到某个位置
	Seek(file string, line int, focus bool, mode SeekMode)
}

// Views 界面协作方
type Views interface {
	// Dirty 某个视图需要重画
	Dirty(view constants.View)
	// DataDirty 所有数据视图需要重画
	DataDirty()
	// Status 状态栏
	Status(format string, args ...interface{})
	// Error 展示一条错误给用户
	Error(format string, args ...interface{})
	// Info 展示一条提示给用户
	Info(format string, args ...interface{})
	// Blink Beep 轻量提醒：预期内的竞态用响铃，不算错误
	Blink()
	Beep()
	// OpenDebugPanel 会话启动时按配置展开调试面板
	OpenDebugPanel()
}

// Terminal 程序控制台协作方
type Terminal interface {
	Clear()
	// Standalone 显示或者隐藏独立控制台
	Standalone(show bool)
}

// Options 行为偏好，对应配置文件里的preferences段
// keep_exec_point和select_on_running互相独立，四种组合都是合法的
type Options struct {
	KeepExecPoint   bool
	SelectOnRunning bool
	SelectOnStopped bool
	SelectOnExited  bool
	SelectFollow    bool

	TerminalAutoShow    bool
	TerminalAutoHide    bool
	TerminalShowOnError bool
	OpenPanelOnStart    bool
}

// Collaborators 核心依赖的全部外部协作方
type Collaborators struct {
	Commander Commander
	Editor    Editor
	Views     Views
	Terminal  Terminal
	Options   *Options
	// OnAutoExit 最后一个线程退出时回调（会话层决定要不要收尾）
	OnAutoExit func()
}

// Frontend 两个引擎加消息路由
type Frontend struct {
	Breaks  *BreakEngine
	Threads *ThreadEngine

	collab *Collaborators
	// asyncMode gdb是否支持异步执行模式（-list-target-features里有async）
	asyncMode bool
}

func New(c *Collaborators) *Frontend {
	if c.Options == nil {
		c.Options = &Options{}
	}
	f := &Frontend{collab: c}
	f.Breaks = NewBreakEngine(c)
	f.Threads = NewThreadEngine(c)
	f.Breaks.threads = f.Threads
	f.Threads.breaks = f.Breaks
	return f
}

// AsyncMode gdb是否支持异步模式
func (f *Frontend) AsyncMode() bool {
	return f.asyncMode
}

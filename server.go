package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"

	"github.com/fansqz/gdb-frontend/config"
	"github.com/fansqz/gdb-frontend/constants"
	e "github.com/fansqz/gdb-frontend/error"
	"github.com/fansqz/gdb-frontend/frontend"
	"github.com/fansqz/gdb-frontend/frontend/gdb"
	"github.com/fansqz/gdb-frontend/protocol"
	"github.com/fansqz/gdb-frontend/terminal"
	"github.com/fansqz/gdb-frontend/utils"
	"github.com/fansqz/gdb-frontend/utils/gosync"
	"github.com/fansqz/gdb-frontend/ws"
)

// DebugSession 一次调试会话
// 核心引擎是单线程的，所有对引擎的调用都通过intents队列串到Run循环里，
// gdb的输出行也一样，两路在同一个goroutine里合流
type DebugSession struct {
	// id 会话标识
	id     string
	config *config.Config
	hub    *ws.Hub

	front   *frontend.Frontend
	status  *utils.StatusManager
	console *terminal.Console

	// gdb 只在Run循环里读写
	gdb *gdb.GDB

	intents chan func()
	lines   chan string

	// seq dap事件序列号，只在Run循环里自增
	seq int
}

func NewDebugSession(cfg *config.Config, hub *ws.Hub) *DebugSession {
	s := &DebugSession{
		id:      utils.GetUUID(),
		config:  cfg,
		hub:     hub,
		status:  utils.NewStatusManager(),
		console: terminal.New(),
		intents: make(chan func(), 256),
		lines:   make(chan string, 256),
	}
	s.front = frontend.New(&frontend.Collaborators{
		Commander:  s,
		Editor:     (*sessionEditor)(s),
		Views:      (*sessionViews)(s),
		Terminal:   s.console,
		Options:    cfg.Options(),
		OnAutoExit: s.autoExit,
	})

	// 启动时恢复上次保存的断点表
	if err := s.front.Breaks.Load(cfg.BreakFile); err != nil {
		logrus.Errorf("load breakpoints fail, err = %v", err)
	}
	return s
}

// Do 把一个操作排到引擎goroutine上执行
func (s *DebugSession) Do(fn func()) {
	s.intents <- fn
}

// Run 引擎主循环，用户操作和gdb输出都在这里处理
func (s *DebugSession) Run() {
	for {
		select {
		case fn, ok := <-s.intents:
			if !ok {
				return
			}
			fn()
		case line := <-s.lines:
			s.handleRecord(line)
		}
	}
}

// State 实现Commander
func (s *DebugSession) State() constants.DebugState {
	return s.status.Get()
}

// Send 实现Commander，按模式附加线程和栈帧定位参数
func (s *DebugSession) Send(mode frontend.SendMode, token, format string, args ...interface{}) {
	if s.gdb == nil {
		return
	}
	command := fmt.Sprintf(format, args...)

	tid := s.front.Threads.CurrentID()
	switch mode {
	case frontend.ModeThread:
		if tid != "" {
			command += " --thread " + tid
		}
	case frontend.ModeFrame:
		if tid != "" {
			command += " --thread " + tid
			if fid := s.front.Threads.CurrentFrame(); fid != "" {
				command += " --frame " + fid
			}
		}
	}
	_ = s.gdb.Send(token + command)
}

// startDebug 启动gdb并发出探测命令
func (s *DebugSession) startDebug(target string, args []string) {
	if s.status.Has(constants.StateActive) {
		s.emit(&protocol.LaunchEvent{Event: constants.EventLaunch, Message: "debug already started"})
		return
	}

	g, err := gdb.Start(&gdb.Option{
		Path:   s.config.GdbPath,
		Target: target,
		Args:   args,
	})
	if err != nil {
		logrus.Errorf("start debug fail, err = %v", err)
		s.emit(&protocol.LaunchEvent{Event: constants.EventLaunch, Message: err.Error()})
		return
	}

	g.OnRecord = func(line string) { s.lines <- line }
	g.OnConsole = func(text string) {
		s.emit(&protocol.OutputEvent{Event: constants.EventOutput, Output: text})
	}
	g.OnExit = func(err error) {
		s.Do(func() { s.onGdbExit(err) })
	}

	s.gdb = g
	s.console.Attach(g.Console())
	s.status.Set(constants.StateHanging)

	// 探测命令批次，每行自带令牌，响应回来时由路由按令牌分发
	for _, line := range strings.Split(strings.TrimSuffix(s.front.StartupCommands(), "\n"), "\n") {
		_ = g.Send(line)
	}
	s.front.Breaks.ApplyAll()

	if s.front.Breaks.Store().Len() > 0 {
		s.views().Dirty(constants.ViewBreaks)
	}
	s.emit(&protocol.LaunchEvent{Event: constants.EventLaunch, Success: true})
	logrus.Infof("debug session %s started, gdb pid = %d", s.id, g.Pid())
}

// terminate 结束调试，保存断点后让gdb退出，清理在onGdbExit里做
func (s *DebugSession) terminate() {
	if s.gdb == nil {
		return
	}
	if err := s.front.Breaks.Save(s.config.BreakFile); err != nil {
		logrus.Errorf("save breakpoints fail, err = %v", err)
	}

	g := s.gdb
	// Exit最多等3秒，不能阻塞引擎循环
	gosync.Go(context.Background(), func(ctx context.Context) { g.Exit() })
}

// autoExit 最后一个线程退出时的收尾
func (s *DebugSession) autoExit() {
	s.views().Status("程序已退出")
	s.terminate()
}

// onGdbExit gdb进程退出后的清理，主动结束和意外挂掉都走这里
func (s *DebugSession) onGdbExit(err error) {
	if err != nil {
		logrus.Warnf("gdb exited, err = %v", err)
	}
	s.gdb = nil
	s.console.Close()
	s.status.Set(constants.StateInactive)

	s.front.Breaks.Clear()
	s.front.Threads.Clear()
	s.views().DataDirty()

	s.emitDap(&dap.TerminatedEvent{Event: s.dapEvent("terminated")})
	s.emit(&protocol.TerminatedEvent{Event: constants.EventTerminated})
	logrus.Infof("debug session %s terminated", s.id)
}

// exec 执行控制命令
func (s *DebugSession) exec(command constants.ExecType) {
	if command == constants.ExecInterrupt {
		// 异步模式下gdb能直接受理打断命令，否则只能给gdb进程发SIGINT
		if s.front.AsyncMode() {
			s.Send(frontend.ModeNone, "", "-exec-interrupt")
		} else if s.gdb != nil {
			_ = s.gdb.Interrupt()
		}
		return
	}

	if !s.status.Has(constants.StateSendable) {
		logrus.Warnf("exec %s: %v", command, e.ErrSessionBusy)
		s.views().Beep()
		return
	}
	switch command {
	case constants.ExecRun:
		s.Send(frontend.ModeNone, "", "-exec-run")
	case constants.ExecContinue:
		s.Send(frontend.ModeThread, "", "-exec-continue")
	case constants.ExecNext:
		s.Send(frontend.ModeThread, "", "-exec-next")
	case constants.ExecStep:
		s.Send(frontend.ModeThread, "", "-exec-step")
	case constants.ExecFinish:
		s.Send(frontend.ModeFrame, "", "-exec-finish")
	case constants.ExecUntil:
		s.Send(frontend.ModeFrame, "", "-exec-until")
	default:
		s.views().Error("invalid exec command: %s", command)
	}
}

// sendToConsole 把输入写进被调程序的终端
func (s *DebugSession) sendToConsole(content string) {
	if s.gdb == nil {
		s.views().Error("%v", e.ErrGdbExited)
		return
	}
	if _, err := s.gdb.Console().WriteString(content); err != nil {
		logrus.Errorf("console write fail, err = %v", err)
	}
}

// handleRecord 处理一行MI记录：先维护会话状态和dap事件，再交给路由分发
func (s *DebugSession) handleRecord(line string) {
	message := line
	for len(message) > 0 && message[0] >= '0' && message[0] <= '9' {
		message = message[1:]
	}

	switch {
	case strings.HasPrefix(message, "*running"):
		if s.front.AsyncMode() {
			s.status.Set(constants.StateDebug)
		} else {
			s.status.Set(constants.StateBusy)
		}
		tid := grabValue(message, "thread-id")
		s.emitDap(&dap.ContinuedEvent{
			Event: s.dapEvent("continued"),
			Body: dap.ContinuedEventBody{
				ThreadId:            atoi(tid),
				AllThreadsContinued: tid == "all",
			},
		})

	case strings.HasPrefix(message, `*stopped,reason="exited`):
		s.status.Set(constants.StateHanging)
		s.emitDap(&dap.ExitedEvent{
			Event: s.dapEvent("exited"),
			Body:  dap.ExitedEventBody{ExitCode: atoi(grabValue(message, "exit-code"))},
		})

	case strings.HasPrefix(message, "*stopped"):
		s.status.Set(constants.StateDebug)
		s.emitDap(&dap.StoppedEvent{
			Event: s.dapEvent("stopped"),
			Body: dap.StoppedEventBody{
				Reason:            grabValue(message, "reason"),
				ThreadId:          atoi(grabValue(message, "thread-id")),
				AllThreadsStopped: grabValue(message, "stopped-threads") == "all",
			},
		})

	case strings.HasPrefix(message, "=thread-created"):
		s.emitDap(&dap.ThreadEvent{
			Event: s.dapEvent("thread"),
			Body:  dap.ThreadEventBody{Reason: "started", ThreadId: atoi(grabValue(message, "id"))},
		})

	case strings.HasPrefix(message, "=thread-exited"):
		s.emitDap(&dap.ThreadEvent{
			Event: s.dapEvent("thread"),
			Body:  dap.ThreadEventBody{Reason: "exited", ThreadId: atoi(grabValue(message, "id"))},
		})
	}

	s.front.HandleLine(line)

	// 停下来之后再补发被推迟的栈帧查询
	if strings.HasPrefix(message, "*stopped") {
		s.front.Threads.PollFrame()
	}
}

// emit 把事件广播给所有客户端
func (s *DebugSession) emit(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.Errorf("marshal event fail, err = %v", err)
		return
	}
	s.hub.Broadcast(data)
}

// emitDap 同时广播一份dap格式的事件，方便dap系的客户端接入
func (s *DebugSession) emitDap(event dap.Message) {
	s.emit(event)
}

func (s *DebugSession) dapEvent(event string) dap.Event {
	s.seq++
	return dap.Event{
		ProtocolMessage: dap.ProtocolMessage{Seq: s.seq, Type: "event"},
		Event:           event,
	}
}

func (s *DebugSession) views() frontend.Views {
	return (*sessionViews)(s)
}

// breakpointsSnapshot 断点表快照
func (s *DebugSession) breakpointsSnapshot() *protocol.BreakpointsEvent {
	event := &protocol.BreakpointsEvent{
		Event:       constants.EventBreakpoints,
		Breakpoints: []protocol.BreakpointRow{},
	}
	for _, row := range s.front.Breaks.Store().Rows() {
		event.Breakpoints = append(event.Breakpoints, protocol.BreakpointRow{
			Scid:     row.Scid,
			ID:       row.ID,
			Kind:     row.Kind.String(),
			Enabled:  row.Enabled,
			Pending:  row.Pending,
			Display:  row.Display,
			File:     row.File,
			Line:     row.Line,
			Func:     row.Func,
			Addr:     row.Addr,
			Ignore:   row.Ignore,
			Cond:     row.Cond,
			Script:   row.Script,
			Times:    row.Times,
			RunApply: row.RunApply,
		})
	}
	return event
}

// threadsSnapshot 线程表快照
func (s *DebugSession) threadsSnapshot() *protocol.ThreadsEvent {
	event := &protocol.ThreadsEvent{
		Event:    constants.EventThreads,
		Threads:  []protocol.ThreadRow{},
		Current:  s.front.Threads.CurrentID(),
		GdbOwned: s.front.Threads.GdbThread(),
	}
	for _, row := range s.front.Threads.Store().Rows() {
		event.Threads = append(event.Threads, protocol.ThreadRow{
			ID:       row.ID,
			State:    runStateName(row.State),
			GroupID:  row.GroupID,
			PID:      row.PID,
			File:     row.File,
			BaseName: row.BaseName,
			Line:     row.Line,
			Func:     row.Func,
			Addr:     row.Addr,
			TargetID: row.TargetID,
			Core:     row.Core,
			Selected: row.ID == s.front.Threads.CurrentID(),
		})
	}
	return event
}

func runStateName(state constants.RunState) string {
	switch state {
	case constants.RunRunning:
		return "running"
	case constants.RunStopped:
		return "stopped"
	}
	return ""
}

// sessionEditor 实现frontend.Editor：编辑器动作都以事件形式推给客户端
type sessionEditor DebugSession

func (s *sessionEditor) Mark(file string, line int, set bool, marker constants.Marker) {
	(*DebugSession)(s).emit(&protocol.MarkEvent{
		Event:  constants.EventMark,
		File:   file,
		Line:   line,
		Set:    set,
		Marker: int(marker),
	})
}

func (s *sessionEditor) MoveMark(file string, line, start, delta int, marker constants.Marker) {
	(*DebugSession)(s).emit(&protocol.MoveMarkEvent{
		Event:  constants.EventMoveMark,
		File:   file,
		Line:   line,
		Start:  start,
		Delta:  delta,
		Marker: int(marker),
	})
}

func (s *sessionEditor) Seek(file string, line int, focus bool, mode frontend.SeekMode) {
	(*DebugSession)(s).emit(&protocol.SeekEvent{
		Event: constants.EventSeek,
		File:  file,
		Line:  line,
		Focus: focus,
		Mode:  int(mode),
	})
}

// sessionViews 实现frontend.Views：视图重画转成数据快照事件广播出去
type sessionViews DebugSession

func (s *sessionViews) Dirty(view constants.View) {
	session := (*DebugSession)(s)
	switch view {
	case constants.ViewBreaks:
		session.emit(session.breakpointsSnapshot())
	case constants.ViewThreads:
		session.emit(session.threadsSnapshot())
	}
}

func (s *sessionViews) DataDirty() {
	s.Dirty(constants.ViewBreaks)
	s.Dirty(constants.ViewThreads)
}

func (s *sessionViews) Status(format string, args ...interface{}) {
	(*DebugSession)(s).emit(&protocol.MessageEvent{
		Event:   constants.EventStatus,
		Message: fmt.Sprintf(format, args...),
	})
}

func (s *sessionViews) Error(format string, args ...interface{}) {
	logrus.Errorf(format, args...)
	(*DebugSession)(s).emit(&protocol.MessageEvent{
		Event:   constants.EventError,
		Message: fmt.Sprintf(format, args...),
	})
}

func (s *sessionViews) Info(format string, args ...interface{}) {
	(*DebugSession)(s).emit(&protocol.MessageEvent{
		Event:   constants.EventInfo,
		Message: fmt.Sprintf(format, args...),
	})
}

func (s *sessionViews) Blink() {
	(*DebugSession)(s).emit(&protocol.SignalEvent{Event: constants.EventBlink})
}

func (s *sessionViews) Beep() {
	(*DebugSession)(s).emit(&protocol.SignalEvent{Event: constants.EventBeep})
}

func (s *sessionViews) OpenDebugPanel() {
	(*DebugSession)(s).emit(&protocol.SignalEvent{Event: constants.EventOpenPanel})
}

// grabValue 在一行MI记录里找key="value"，找不到返回空串
// 只给会话层做轻量窥探用，完整解析由路由层负责
func grabValue(message, key string) string {
	mark := key + `="`
	index := strings.Index(message, mark)
	if index < 0 {
		return ""
	}
	rest := message[index+len(mark):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

func atoi(value string) int {
	n, _ := strconv.Atoi(value)
	return n
}

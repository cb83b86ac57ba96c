package main

import (
	"encoding/json"
	"fmt"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fansqz/gdb-frontend/constants"
	e "github.com/fansqz/gdb-frontend/error"
	"github.com/fansqz/gdb-frontend/frontend"
	"github.com/fansqz/gdb-frontend/protocol"
)

// DebuggerHandler 请求分发器
// 在websocket的读goroutine上解包，然后把操作排到会话的引擎goroutine上执行。
// 响应只确认受理，操作的效果以事件形式广播回来
type DebuggerHandler struct {
	session *DebugSession
}

func NewDebuggerHandler(session *DebugSession) *DebuggerHandler {
	return &DebuggerHandler{session: session}
}

func (d *DebuggerHandler) Handle(data []byte, reply func([]byte)) {
	type reqStruct struct {
		Type     constants.RequestType `json:"type"`
		Sequence uint                  `json:"sequence"`
	}
	r := &reqStruct{}
	// 判断请求类型
	if err := json.Unmarshal(data, &r); err != nil {
		logrus.Warnf("parse request error, err = %v", err)
		return
	}

	// 需要gdb在跑的请求提前拦下来，断点编辑离线也可以做
	switch r.Type {
	case constants.ExecControl, constants.Terminate, constants.SendToConsole,
		constants.SignalThread, constants.SynchronizeThread:
		if !d.session.status.Has(constants.StateActive) {
			d.sendResponse(reply, r.Sequence, false, e.ErrSessionInactive.Error(), nil)
			return
		}
	}

	var err error
	switch r.Type {
	case constants.StartDebug:
		err = d.handleStartDebug(data)
	case constants.Terminate:
		d.session.Do(d.session.terminate)
	case constants.ExecControl:
		err = d.handleExec(data)
	case constants.SendToConsole:
		err = d.handleSendToConsole(data)

	case constants.ToggleBreakpoint:
		err = d.handleToggleBreakpoint(data)
	case constants.EnableBreakpoint:
		err = d.handleEnableBreakpoint(data)
	case constants.EditBreakpoint:
		err = d.handleEditBreakpoint(data)
	case constants.DeleteBreakpoint:
		err = d.handleDeleteBreakpoint(data)
	case constants.ApplyBreakpoint:
		err = d.handleApplyBreakpoint(data)
	case constants.RefreshBreakpoints:
		d.session.Do(d.session.front.Breaks.Refresh)

	case constants.SelectThread:
		err = d.handleSelectThread(data)
	case constants.SignalThread:
		err = d.handleSignalThread(data)
	case constants.SynchronizeThread:
		d.session.Do(d.session.front.Threads.Synchronize)
	case constants.RefreshThreads:
		d.session.Do(d.session.front.Threads.Refresh)

	case constants.FileOpened:
		err = d.handleFileOpened(data)
	case constants.FileDelta:
		err = d.handleFileDelta(data)

	default:
		err = fmt.Errorf("unknown request type: %s", r.Type)
	}

	if err != nil {
		d.sendResponse(reply, r.Sequence, false, err.Error(), nil)
		return
	}
	d.sendResponse(reply, r.Sequence, true, "", nil)
}

func (d *DebuggerHandler) handleStartDebug(data []byte) error {
	req := &protocol.StartDebugRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	// 启动结果通过launch事件异步回来
	d.session.Do(func() {
		d.session.startDebug(req.Target, req.Args)
	})
	return nil
}

func (d *DebuggerHandler) handleExec(data []byte) error {
	req := &protocol.ExecRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	d.session.Do(func() {
		d.session.exec(req.Command)
	})
	return nil
}

func (d *DebuggerHandler) handleSendToConsole(data []byte) error {
	req := &protocol.SendToConsoleRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	d.session.Do(func() {
		d.session.sendToConsole(req.Content)
	})
	return nil
}

func (d *DebuggerHandler) handleToggleBreakpoint(data []byte) error {
	req := &protocol.ToggleBreakpointRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	d.session.Do(func() {
		d.session.front.Breaks.Toggle(req.File, req.Line)
	})
	return nil
}

func (d *DebuggerHandler) handleEnableBreakpoint(data []byte) error {
	req := &protocol.EnableBreakpointRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	d.withBreakpoint(req.Scid, func(row *frontend.Breakpoint) {
		d.session.front.Breaks.ToggleEnabled(row)
	})
	return nil
}

func (d *DebuggerHandler) handleEditBreakpoint(data []byte) error {
	req := &protocol.EditBreakpointRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	if req.Column < frontend.ColIgnore || req.Column > frontend.ColScript {
		return fmt.Errorf("invalid column: %d", req.Column)
	}
	d.withBreakpoint(req.Scid, func(row *frontend.Breakpoint) {
		d.session.front.Breaks.EditColumn(row, req.Column, req.Text)
	})
	return nil
}

func (d *DebuggerHandler) handleDeleteBreakpoint(data []byte) error {
	req := &protocol.DeleteBreakpointRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	d.withBreakpoint(req.Scid, func(row *frontend.Breakpoint) {
		d.session.front.Breaks.Delete(row)
	})
	return nil
}

func (d *DebuggerHandler) handleApplyBreakpoint(data []byte) error {
	req := &protocol.ApplyBreakpointRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	d.withBreakpoint(req.Scid, func(row *frontend.Breakpoint) {
		d.session.front.Breaks.Apply(row, req.WithThread)
	})
	return nil
}

func (d *DebuggerHandler) handleSelectThread(data []byte) error {
	req := &protocol.SelectThreadRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	d.session.Do(func() {
		d.session.front.Threads.SelectRow(req.ThreadID)
	})
	return nil
}

func (d *DebuggerHandler) handleSignalThread(data []byte) error {
	req := &protocol.SignalThreadRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	d.session.Do(func() {
		d.session.front.Threads.SendSignal(syscall.Signal(req.Signal))
	})
	return nil
}

func (d *DebuggerHandler) handleFileOpened(data []byte) error {
	req := &protocol.FileOpenedRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	d.session.Do(func() {
		d.session.front.Breaks.MarkFile(req.File)
		d.session.front.Threads.MarkFile(req.File)
	})
	return nil
}

func (d *DebuggerHandler) handleFileDelta(data []byte) error {
	req := &protocol.FileDeltaRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return err
	}
	d.session.Do(func() {
		d.session.front.Breaks.Delta(req.File, req.Start, req.Delta, req.Active)
		d.session.front.Threads.Delta(req.File, req.Start, req.Delta)
	})
	return nil
}

// withBreakpoint 按本地序号找断点行，找不到只记日志
func (d *DebuggerHandler) withBreakpoint(scid int, fn func(row *frontend.Breakpoint)) {
	d.session.Do(func() {
		row := d.session.front.Breaks.Store().ByScid(scid)
		if row == nil {
			logrus.Errorf("breaks: %v, scid = %d", e.ErrUnknownRow, scid)
			return
		}
		fn(row)
	})
}

// sendResponse 发送响应给请求方
func (d *DebuggerHandler) sendResponse(reply func([]byte), sequence uint, success bool, message string, body interface{}) {
	response := &protocol.Response{
		Sequence: sequence,
		Success:  success,
		Message:  message,
		Data:     body,
	}
	answer, err := json.Marshal(response)
	if err != nil {
		logrus.Errorf("marshal response fail, err = %v", err)
		return
	}
	reply(answer)
}

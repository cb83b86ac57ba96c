package frontend

import (
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fansqz/gdb-frontend/constants"
	errs "github.com/fansqz/gdb-frontend/error"
	"github.com/fansqz/gdb-frontend/frontend/mi"
)

// ThreadEngine 线程引擎：维护线程表和线程组，跟踪两个"当前线程"——
// currentID是界面上选中的线程，gdbThread是gdb后端的当前线程，
// 两者可以不一致，Synchronize负责把后端对齐到前端
type ThreadEngine struct {
	c      *Collaborators
	store  *ThreadStore
	groups *GroupStore
	breaks *BreakEngine

	// count 存活线程数，0→1是会话启动，1→0是会话收尾
	count int

	// currentID 选中线程，空串表示没有选中
	currentID string
	// currentFrame 选中线程的当前栈帧号
	currentFrame string
	// state 选中线程的细分状态，决定哪些命令可以发
	state constants.ThreadState
	// gdbThread gdb后端的当前线程
	gdbThread string
}

func NewThreadEngine(c *Collaborators) *ThreadEngine {
	return &ThreadEngine{
		c:      c,
		store:  NewThreadStore(),
		groups: NewGroupStore(),
	}
}

func (e *ThreadEngine) Store() *ThreadStore         { return e.store }
func (e *ThreadEngine) Count() int                  { return e.count }
func (e *ThreadEngine) CurrentID() string           { return e.currentID }
func (e *ThreadEngine) CurrentFrame() string        { return e.currentFrame }
func (e *ThreadEngine) SetCurrentFrame(id string)   { e.currentFrame = id }
func (e *ThreadEngine) State() constants.ThreadState { return e.state }
func (e *ThreadEngine) GdbThread() string           { return e.gdbThread }

// GroupID 选中线程所属的线程组
func (e *ThreadEngine) GroupID() string {
	if t := e.store.Get(e.currentID); t != nil {
		return t.GroupID
	}
	return ""
}

func (e *ThreadEngine) find(tid string) *Thread {
	t := e.store.Get(tid)
	if t == nil {
		logrus.Errorf("%s: tid not found", tid)
	}
	return t
}

func (e *ThreadEngine) findGroup(gid string) *ThreadGroup {
	g := e.groups.Get(gid)
	if g == nil {
		logrus.Errorf("%s: gid not found", gid)
	}
	return g
}

func (e *ThreadEngine) unmark(t *Thread) {
	if t.File != "" && t.Line > 0 {
		e.c.Editor.Mark(t.File, t.Line, false, constants.MarkerExecute)
	}
}

func (e *ThreadEngine) seek(t *Thread, mode SeekMode) {
	if t.File != "" && t.Line > 0 {
		e.c.Editor.Seek(t.File, t.Line, false, mode)
	}
}

func (e *ThreadEngine) queryFrame() {
	e.c.Commander.Send(ModeThread, tokenFrame(e.currentID), "-stack-info-frame")
}

// SelectRow 界面选中tid（空串表示取消选中），重算选中线程状态
// 停在未知位置的线程要补查栈帧，会话不可查询时挂起到PollFrame
func (e *ThreadEngine) SelectRow(tid string) {
	t := e.store.Get(tid)

	if t == nil {
		e.currentID = ""
		e.currentFrame = ""
		e.state = constants.ThreadBlank
	} else {
		e.currentID = t.ID

		switch {
		case t.State == constants.RunBlank:
			e.state = constants.ThreadBlank
		case t.State == constants.RunRunning:
			e.state = constants.ThreadRunning
		case t.Addr != "":
			if t.Line > 0 {
				e.state = constants.ThreadAtSource
			} else {
				e.state = constants.ThreadAtAssembler
				e.c.Views.Dirty(constants.ViewConsole)
			}
		default:
			e.state = constants.ThreadStopped
			if e.c.Commander.State()&constants.StateDebug != 0 {
				e.queryFrame()
			} else {
				e.state = constants.ThreadQueryFrame
			}
		}

		e.currentFrame = "0"
	}

	e.c.Views.DataDirty()
}

// PollFrame 会话恢复可查询后补发之前挂起的栈帧查询
func (e *ThreadEngine) PollFrame() {
	if e.state == constants.ThreadQueryFrame &&
		e.c.Commander.State()&constants.StateDebug != 0 {
		e.state = constants.ThreadStopped
		e.queryFrame()
	}
}

// autoSelect 选中第一个停住的线程并跳到它的位置
func (e *ThreadEngine) autoSelect() {
	for _, t := range e.store.Rows() {
		if t.State == constants.RunStopped {
			e.SelectRow(t.ID)
			e.seek(t, SeekExecute)
			return
		}
	}
}

func (e *ThreadEngine) setGdbThread(tid string, follow bool) {
	e.gdbThread = tid
	if follow {
		if t := e.find(tid); t != nil {
			e.SelectRow(t.ID)
		}
	}
}

// threadRunning 一个线程跑起来了
// 保留执行点模式下位置字段留着，标记也不撤，方便跑完回来对照
func (e *ThreadEngine) threadRunning(t *Thread) {
	if !e.c.Options.KeepExecPoint {
		e.unmark(t)
	}
	t.State = constants.RunRunning

	if !e.c.Options.KeepExecPoint {
		t.File = ""
		t.BaseName = ""
		t.Line = 0
		t.Func = ""
		t.Addr = ""
		t.Core = ""
	}

	if e.currentID != "" && t.ID == e.currentID {
		e.state = constants.ThreadRunning
	}
}

// OnRunning 处理*running通知，thread-id可能是"all"
func (e *ThreadEngine) OnRunning(nodes []*mi.Node) {
	tid := mi.FindValue(nodes, "thread-id")
	if tid == "" {
		logrus.Error("threads: no tid")
		return
	}

	wasStopped := e.state >= constants.ThreadStopped

	if tid == "all" {
		e.store.Each(func(t *Thread) bool {
			e.threadRunning(t)
			return true
		})
	} else if t := e.find(tid); t != nil {
		e.threadRunning(t)
	}

	// 选中的线程从停住变成运行，自动切到还停着的线程
	if e.c.Options.SelectOnRunning && wasStopped && e.state == constants.ThreadRunning {
		e.autoSelect()
	}
	e.c.Views.Dirty(constants.ViewThreads)
}

// parseFrame 用一个frame子树刷新线程的停车位置
// 选中线程停在源码行就跳过去打执行标记，停在汇编就让反汇编视图重画
func (e *ThreadEngine) parseFrame(frame []*mi.Node, tid string, t *Thread) {
	loc := mi.ParseLocation(frame)
	if loc.Addr == "" {
		loc.Addr = "??"
	}

	e.unmark(t)
	t.File = loc.File
	t.Line = loc.Line
	t.State = constants.RunStopped
	t.BaseName = loc.BaseName
	t.Func = loc.Func
	t.Addr = loc.Addr

	if tid != "" && tid == e.currentID {
		if loc.Line > 0 {
			e.state = constants.ThreadAtSource
			e.c.Editor.Seek(loc.File, loc.Line, false, SeekExecMark)
		} else {
			e.state = constants.ThreadAtAssembler
			e.c.Views.Dirty(constants.ViewConsole)
		}
	} else if loc.File != "" && loc.Line > 0 {
		e.c.Editor.Mark(loc.File, loc.Line, true, constants.MarkerExecute)
	}
}

type stopData struct {
	row   *Thread
	found bool
}

// stoppedRow 把一行标成停住
// 停住但没有地址说明位置还不知道，选中线程要补查栈帧
func (e *ThreadEngine) stoppedRow(t *Thread, sd *stopData) {
	t.State = constants.RunStopped

	if t.ID == e.currentID {
		if t.Addr == "" {
			e.state = constants.ThreadQueryFrame
		}
		e.c.Views.DataDirty()
	} else if t.Addr == "" {
		e.c.Views.Dirty(constants.ViewThreads)
	}

	if !sd.found {
		sd.row = t
		sd.found = true
	}
}

// OnStopped 处理*stopped通知
// thread-id是触发事件的线程，stopped-threads列出所有被停住的线程，
// 全停模式下是"all"
func (e *ThreadEngine) OnStopped(nodes []*mi.Node) {
	tid := mi.FindValue(nodes, "thread-id")
	var sd stopData

	if tid == "" {
		logrus.Error("threads: no tid")
	} else if t := e.find(tid); t != nil {
		sd.row = t
		sd.found = true

		if frame := mi.FindArray(nodes, "frame"); frame != nil {
			e.parseFrame(frame, tid, t)
		}
		if core := mi.FindValue(nodes, "core"); core != "" {
			t.Core = core
		}
	}

	stopped := mi.FindNode(nodes, "stopped-threads")
	if stopped == nil {
		logrus.Error("threads: no stopped")
	} else if stopped.Type == mi.TypeValue {
		if stopped.Value == "all" {
			e.store.Each(func(t *Thread) bool {
				e.stoppedRow(t, &sd)
				return true
			})
		} else if t := e.find(stopped.Value); t != nil {
			e.stoppedRow(t, &sd)
		}
	} else {
		for _, node := range stopped.List {
			if node.Type != mi.TypeValue {
				logrus.Errorf("%s: found array", node.Name)
				continue
			}
			if t := e.find(node.Value); t != nil {
				e.stoppedRow(t, &sd)
			}
		}
	}

	if e.c.Options.SelectOnStopped && e.state <= constants.ThreadRunning && sd.found {
		e.SelectRow(sd.row.ID)
		e.seek(sd.row, SeekExecute)
	}

	if mi.FindValue(nodes, "reason") == "signal-received" {
		e.c.Views.Blink()
	}

	if e.breaks.async < 1 {
		e.c.Views.Dirty(constants.ViewBreaks)
	}
	e.c.Views.Dirty(constants.ViewThreads)
}

// OnCreated 处理=thread-created通知，第一个线程意味着会话启动
func (e *ThreadEngine) OnCreated(nodes []*mi.Node) {
	tid := mi.FindValue(nodes, "id")
	gid := mi.FindValue(nodes, "group-id")

	e.count++
	if e.count == 1 {
		// startup
		e.breaks.Reset()
		e.c.Terminal.Clear()
		if e.c.Options.TerminalAutoShow {
			e.c.Terminal.Standalone(true)
		}
		if e.c.Options.OpenPanelOnStart {
			e.c.Views.OpenDebugPanel()
		}
	}

	if tid == "" {
		logrus.Error("threads: no tid")
		return
	}

	t := &Thread{ID: tid}
	e.store.Put(t)
	e.c.Commander.Send(ModeNone, markFrame, "-thread-info %s", tid)

	if gid != "" {
		t.GroupID = gid
		if group := e.findGroup(gid); group != nil && group.PID != "" {
			t.PID = group.PID
		}
	}

	if e.count == 1 {
		e.setGdbThread(tid, true)
	}
	e.c.Views.Dirty(constants.ViewThreads)
}

// OnExited 处理=thread-exited通知，最后一个线程退出触发会话收尾
func (e *ThreadEngine) OnExited(nodes []*mi.Node) {
	tid := mi.FindValue(nodes, "id")

	if tid == "" {
		logrus.Error("threads: no tid")
	} else {
		if tid == e.gdbThread {
			e.setGdbThread("", false)
		}

		if t := e.find(tid); t != nil {
			wasSelected := tid == e.currentID

			e.unmark(t)
			e.store.Remove(tid)

			if wasSelected {
				e.SelectRow("")
				if e.c.Options.SelectOnExited {
					e.autoSelect()
				}
			}
		}
	}

	if e.count == 0 {
		logrus.Error("threads: extra exit")
	} else if e.count--; e.count == 0 {
		// shutdown
		if e.c.Options.TerminalAutoHide {
			e.c.Terminal.Standalone(false)
		}
		if e.c.OnAutoExit != nil {
			e.c.OnAutoExit()
		}
	}
	e.c.Views.Dirty(constants.ViewThreads)
}

// OnSelected 处理=thread-selected通知，按偏好决定界面要不要跟着切
func (e *ThreadEngine) OnSelected(nodes []*mi.Node) {
	e.setGdbThread(mi.LeadValue(nodes), e.c.Options.SelectFollow)
}

// OnGroupStarted 处理=thread-group-started，补上线程组的进程号
func (e *ThreadEngine) OnGroupStarted(nodes []*mi.Node) {
	gid := mi.LeadValue(nodes)
	pid := mi.FindValue(nodes, "pid")

	name := pid
	if name == "" {
		name = gid
	}
	e.c.Views.Status("线程组 %s 已启动。", name)

	if pid == "" {
		logrus.Error("threads: no pid")
	} else if group := e.findGroup(gid); group != nil {
		group.PID = pid
	}
}

// OnGroupExited 处理=thread-group-exited
// 带exit-code的退出按偏好弹出独立控制台，方便看最后的输出
func (e *ThreadEngine) OnGroupExited(nodes []*mi.Node) {
	gid := mi.LeadValue(nodes)
	exitCode := mi.FindValue(nodes, "exit-code")

	name := gid
	if group := e.findGroup(gid); group != nil && group.PID != "" {
		name = group.PID
		group.PID = ""
	}

	if exitCode != "" {
		e.c.Views.Status("线程组 %s 已退出，退出码 %s。", name, exitCode)
		if e.c.Options.TerminalShowOnError {
			e.c.Terminal.Standalone(true)
		}
	} else {
		e.c.Views.Status("线程组 %s 已退出。", name)
	}
}

func (e *ThreadEngine) OnGroupAdded(nodes []*mi.Node) {
	e.groups.Put(&ThreadGroup{GroupID: mi.LeadValue(nodes)})
}

func (e *ThreadEngine) OnGroupRemoved(nodes []*mi.Node) {
	gid := mi.LeadValue(nodes)
	if e.findGroup(gid) != nil {
		e.groups.Remove(gid)
	}
}

// threadParse 用一份线程详情刷新一行，stopped为假时按运行态处理
func (e *ThreadEngine) threadParse(nodes []*mi.Node, tid string, stopped bool) {
	t := e.find(tid)
	if t == nil {
		return
	}

	if stopped {
		if frame := mi.FindArray(nodes, "frame"); frame != nil {
			e.parseFrame(frame, tid, t)
		} else {
			logrus.Error("threads: no frame")
		}
	} else if t.State != constants.RunRunning {
		e.threadRunning(t)
	}

	if v := mi.FindValue(nodes, "target-id"); v != "" {
		t.TargetID = v
	}
	if v := mi.FindValue(nodes, "core"); v != "" {
		t.Core = v
	}
}

// infoParse 消化^done,threads=[...]，返回gdb报告的当前线程号
func (e *ThreadEngine) infoParse(nodes []*mi.Node, follow bool) string {
	tid := mi.FindValue(nodes, "current-thread-id")

	for _, node := range mi.LeadArray(nodes) {
		if node.Type != mi.TypeList {
			logrus.Error("threads: contains value")
			continue
		}
		id := mi.FindValue(node.List, "id")
		state := mi.FindValue(node.List, "state")
		if id == "" || state == "" {
			logrus.Error("threads: no tid or state")
			continue
		}
		e.threadParse(node.List, id, state != "running")
	}

	if tid != "" {
		e.setGdbThread(tid, follow)
	}
	return tid
}

// OnInfo 处理普通的线程列表响应
func (e *ThreadEngine) OnInfo(nodes []*mi.Node) {
	_, nodes, _ = mi.GrabToken(nodes)
	e.infoParse(nodes, e.c.Options.SelectFollow)
	e.c.Views.Dirty(constants.ViewThreads)
}

// OnFollow 处理要求跟随当前线程的线程列表响应（会话建立时用）
func (e *ThreadEngine) OnFollow(nodes []*mi.Node) {
	_, nodes, _ = mi.GrabToken(nodes)
	if e.infoParse(nodes, true) == "" {
		logrus.Error("threads: no current tid")
	}
	e.c.Views.Dirty(constants.ViewThreads)
}

// OnFrame 处理^done,frame=栈帧查询响应，令牌携带线程号
func (e *ThreadEngine) OnFrame(nodes []*mi.Node) {
	token, nodes, _ := mi.GrabToken(nodes)
	e.threadParse(nodes, token, true)
	e.c.Views.Dirty(constants.ViewThreads)
}

// Synchronize 把gdb后端的当前线程切到界面选中的线程
func (e *ThreadEngine) Synchronize() {
	if e.currentID != "" && e.currentID != e.gdbThread {
		e.c.Commander.Send(ModeNone, markFrame, "-thread-select %s", e.currentID)
	}
}

// Update 例行刷新线程列表，错误静默
func (e *ThreadEngine) Update() {
	e.c.Commander.Send(ModeNone, markFrame, "-thread-info")
}

// Refresh 用户主动刷新
func (e *ThreadEngine) Refresh() {
	e.c.Commander.Send(ModeNone, "", "-thread-info")
}

// SendSignal 给选中线程所在的进程发信号
// -exec-interrupt打断的是gdb，直接给进程发SIGINT才能只停目标
func (e *ThreadEngine) SendSignal(sig syscall.Signal) {
	t := e.store.Get(e.currentID)
	if t == nil {
		e.c.Views.Beep()
		return
	}

	pid := mi.Atoi0(t.PID)
	if pid <= 0 {
		logrus.Errorf("threads: %v, thread = %s", errs.ErrNoProcess, t.ID)
		e.c.Views.Beep()
		return
	}
	if err := syscall.Kill(pid, sig); err != nil {
		e.c.Views.Error("kill(%d): %v", pid, err)
	}
}

func (e *ThreadEngine) Interrupt() { e.SendSignal(syscall.SIGINT) }
func (e *ThreadEngine) Terminate() { e.SendSignal(syscall.SIGTERM) }

// Delta 编辑器行增删后移动执行标记
func (e *ThreadEngine) Delta(file string, start, delta int) {
	e.store.Each(func(t *Thread) bool {
		line := t.Line - 1
		if line >= 0 && start <= line && t.File == file {
			e.c.Editor.MoveMark(file, line, start, delta, constants.MarkerExecute)
		}
		return true
	})
}

// MarkFile 文件打开时补画执行标记
func (e *ThreadEngine) MarkFile(file string) {
	e.store.Each(func(t *Thread) bool {
		if t.Line > 0 && t.File == file {
			e.c.Editor.Mark(file, t.Line, true, constants.MarkerExecute)
		}
		return true
	})
}

// Clear 会话结束，清空线程表和线程组
func (e *ThreadEngine) Clear() {
	e.store.Each(func(t *Thread) bool {
		e.unmark(t)
		return true
	})
	e.store.Clear()
	e.groups.Clear()
	e.setGdbThread("", false)
	e.count = 0
	e.SelectRow("")
	e.c.Views.Dirty(constants.ViewThreads)
}

package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fansqz/gdb-frontend/constants"
)

const stoppedLine = `*stopped,reason="end-stepping-range",thread-id="1",stopped-threads="all",frame={addr="0x1149",func="main",file="a.c",fullname="/src/a.c",line="7"},core="0"`

func TestThreadStartupEdge(t *testing.T) {
	rig := newTestRig(&Options{TerminalAutoShow: true, OpenPanelOnStart: true})

	rig.handle(
		`=thread-group-added,id="i1"`,
		`=thread-group-started,id="i1",pid="100"`,
		`=thread-created,id="1",group-id="i1"`,
	)

	// 第一个线程意味着会话启动
	assert.Equal(t, 1, rig.front.Threads.Count())
	assert.Equal(t, 1, rig.terminal.cleared)
	assert.Equal(t, []bool{true}, rig.terminal.shown)
	assert.Equal(t, 1, rig.views.opened)

	// 线程详情要补查，线程组的进程号传给了新线程
	assert.Equal(t, "-thread-info 1", rig.commander.last().text)
	row := rig.front.Threads.Store().Get("1")
	assert.Equal(t, "100", row.PID)
	assert.Equal(t, "i1", row.GroupID)
	assert.Equal(t, "1", rig.front.Threads.GdbThread())
	assert.Equal(t, "1", rig.front.Threads.CurrentID())
	assert.Contains(t, rig.views.status[0], "100")
}

func TestThreadStoppedSelectsAndSeeks(t *testing.T) {
	rig := newTestRig(&Options{SelectOnStopped: true})
	rig.handle(`=thread-created,id="1"`)

	rig.handle(stoppedLine)

	row := rig.front.Threads.Store().Get("1")
	assert.Equal(t, constants.RunStopped, row.State)
	assert.Equal(t, "/src/a.c", row.File)
	assert.Equal(t, 7, row.Line)
	assert.Equal(t, "0", row.Core)

	// 自动选中停住的线程并跳到停车位置
	assert.Equal(t, "1", rig.front.Threads.CurrentID())
	assert.Equal(t, constants.ThreadAtSource, rig.front.Threads.State())
	assert.NotEmpty(t, rig.editor.seeks)
	last := rig.editor.seeks[len(rig.editor.seeks)-1]
	assert.Equal(t, seekCall{file: "/src/a.c", line: 7, mode: SeekExecute}, last)
}

func TestRunningWildcard(t *testing.T) {
	rig := newTestRig(&Options{SelectOnStopped: true})
	rig.handle(
		`=thread-created,id="1"`,
		`=thread-created,id="2"`,
		stoppedLine,
	)

	rig.handle(`*running,thread-id="all"`)

	// 两行都进入运行态，位置字段清掉
	for _, row := range rig.front.Threads.Store().Rows() {
		assert.Equal(t, constants.RunRunning, row.State)
		assert.Equal(t, "", row.File)
		assert.Equal(t, 0, row.Line)
		assert.Equal(t, "", row.Addr)
	}
	assert.Equal(t, constants.ThreadRunning, rig.front.Threads.State())
}

func TestRunningKeepExecPoint(t *testing.T) {
	rig := newTestRig(&Options{SelectOnStopped: true, KeepExecPoint: true})
	rig.handle(`=thread-created,id="1"`, stoppedLine)
	marks := len(rig.editor.marks)

	rig.handle(`*running,thread-id="1"`)

	// 保留执行点：位置字段和标记都留着
	row := rig.front.Threads.Store().Get("1")
	assert.Equal(t, constants.RunRunning, row.State)
	assert.Equal(t, "/src/a.c", row.File)
	assert.Equal(t, 7, row.Line)
	assert.Len(t, rig.editor.marks, marks)
}

func TestSelectOnRunningSwitchesToStoppedThread(t *testing.T) {
	rig := newTestRig(&Options{SelectOnStopped: true, SelectOnRunning: true})
	rig.handle(
		`=thread-created,id="1"`,
		`=thread-created,id="2"`,
		// 2号先停，被自动选中；1号后停，选中不动
		`*stopped,reason="end-stepping-range",thread-id="2",stopped-threads="2",frame={addr="0x2000",func="g",fullname="/src/b.c",line="3"}`,
		`*stopped,reason="end-stepping-range",thread-id="1",stopped-threads="1",frame={addr="0x1149",func="main",fullname="/src/a.c",line="7"}`,
	)
	assert.Equal(t, "2", rig.front.Threads.CurrentID())

	// 选中的线程跑起来了，自动切到还停着的线程
	rig.handle(`*running,thread-id="2"`)
	assert.Equal(t, "1", rig.front.Threads.CurrentID())
}

func TestThreadExitEdgeFiresOnce(t *testing.T) {
	rig := newTestRig(&Options{TerminalAutoHide: true})
	rig.handle(`=thread-created,id="1"`)

	rig.handle(`=thread-exited,id="1"`)
	assert.Equal(t, 0, rig.front.Threads.Count())
	assert.Equal(t, 1, rig.autoExits)
	assert.Equal(t, []bool{false}, rig.terminal.shown)
	assert.Equal(t, "", rig.front.Threads.GdbThread())
	assert.Equal(t, "", rig.front.Threads.CurrentID())

	// 多余的退出通知只记录，不再触发收尾
	rig.handle(`=thread-exited,id="1"`)
	assert.Equal(t, 0, rig.front.Threads.Count())
	assert.Equal(t, 1, rig.autoExits)
}

func TestDeferredFrameQuery(t *testing.T) {
	rig := newTestRig(&Options{SelectOnStopped: true})
	rig.handle(`=thread-created,id="1"`)

	// 会话还不能查询，栈帧查询挂起
	rig.commander.state = constants.StateHanging
	rig.handle(`*stopped,reason="signal-received",thread-id="1",stopped-threads="all"`)
	assert.Equal(t, constants.ThreadQueryFrame, rig.front.Threads.State())
	assert.Equal(t, 1, rig.views.blinks)

	// 恢复可查询后补发
	rig.commander.state = constants.StateDebug
	rig.front.Threads.PollFrame()
	sent := rig.commander.last()
	assert.Equal(t, tokenFrame("1"), sent.token)
	assert.Equal(t, "-stack-info-frame", sent.text)
	assert.Equal(t, ModeThread, sent.mode)

	// 响应回来：当前线程停在源码行，跳过去打执行标记
	rig.handle(tokenFrame("1") + `^done,frame={level="0",addr="0x1149",func="main",fullname="/src/a.c",line="7"}`)
	assert.Equal(t, constants.ThreadAtSource, rig.front.Threads.State())
	last := rig.editor.seeks[len(rig.editor.seeks)-1]
	assert.Equal(t, seekCall{file: "/src/a.c", line: 7, mode: SeekExecMark}, last)
}

func TestThreadInfoResponse(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(
		`=thread-created,id="1"`,
		`=thread-created,id="2"`,
	)

	rig.handle(`^done,threads=[{id="1",target-id="Thread 0x7f",state="stopped",frame={addr="0x1149",func="main",fullname="/src/a.c",line="3"},core="2"},{id="2",target-id="Thread 0x80",state="running"}],current-thread-id="1"`)

	one := rig.front.Threads.Store().Get("1")
	assert.Equal(t, constants.RunStopped, one.State)
	assert.Equal(t, 3, one.Line)
	assert.Equal(t, "Thread 0x7f", one.TargetID)
	assert.Equal(t, "2", one.Core)

	two := rig.front.Threads.Store().Get("2")
	assert.Equal(t, constants.RunRunning, two.State)
	assert.Equal(t, "1", rig.front.Threads.GdbThread())
}

func TestThreadFollowResponse(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(`=thread-created,id="1"`, `=thread-created,id="2"`)
	rig.front.Threads.SelectRow("")

	// 会话建立时的线程列表响应要求跟随当前线程
	rig.handle(markThreadFollow + `^done,threads=[{id="1",state="stopped",frame={addr="0x1149",func="main",fullname="/src/a.c",line="3"}},{id="2",state="running"}],current-thread-id="2"`)
	assert.Equal(t, "2", rig.front.Threads.GdbThread())
	assert.Equal(t, "2", rig.front.Threads.CurrentID())
}

func TestThreadSelectedFollowsPreference(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(`=thread-created,id="1"`, `=thread-created,id="2"`)
	rig.front.Threads.SelectRow("1")

	// 默认不跟随，只记下gdb的当前线程
	rig.handle(`=thread-selected,id="2"`)
	assert.Equal(t, "2", rig.front.Threads.GdbThread())
	assert.Equal(t, "1", rig.front.Threads.CurrentID())

	rig.front.collab.Options.SelectFollow = true
	rig.handle(`=thread-selected,id="1"`)
	assert.Equal(t, "1", rig.front.Threads.CurrentID())
}

func TestSynchronize(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(`=thread-created,id="1"`, `=thread-created,id="2"`)
	rig.front.Threads.SelectRow("2")

	rig.front.Threads.Synchronize()
	sent := rig.commander.last()
	assert.Equal(t, markFrame, sent.token)
	assert.Equal(t, "-thread-select 2", sent.text)

	// 已经对齐就不用发
	rig.handle(`=thread-selected,id="2"`)
	before := len(rig.commander.sent)
	rig.front.Threads.Synchronize()
	assert.Len(t, rig.commander.sent, before)
}

func TestGroupExitShowsTerminalOnError(t *testing.T) {
	rig := newTestRig(&Options{TerminalShowOnError: true})
	rig.handle(
		`=thread-group-added,id="i1"`,
		`=thread-group-started,id="i1",pid="100"`,
	)

	rig.handle(`=thread-group-exited,id="i1",exit-code="01"`)
	assert.Equal(t, []bool{true}, rig.terminal.shown)
	assert.Contains(t, rig.views.status[len(rig.views.status)-1], "01")
	assert.Equal(t, "", rig.front.Threads.groups.Get("i1").PID)

	// 正常退出不弹控制台
	rig.handle(`=thread-group-exited,id="i1"`)
	assert.Len(t, rig.terminal.shown, 1)
}

func TestThreadClear(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(
		`=thread-group-added,id="i1"`,
		`=thread-created,id="1",group-id="i1"`,
		stoppedLine,
	)

	rig.front.Threads.Clear()
	assert.Equal(t, 0, rig.front.Threads.Store().Len())
	assert.Equal(t, 0, rig.front.Threads.Count())
	assert.Equal(t, "", rig.front.Threads.CurrentID())
	assert.Equal(t, "", rig.front.Threads.GdbThread())
	assert.Nil(t, rig.front.Threads.groups.Get("i1"))

	// 执行标记撤掉了
	last := rig.editor.marks[len(rig.editor.marks)-1]
	assert.Equal(t, markCall{file: "/src/a.c", line: 7, set: false, marker: constants.MarkerExecute}, last)
}

func TestThreadDeltaMovesExecMark(t *testing.T) {
	rig := newTestRig(&Options{SelectOnStopped: true})
	rig.handle(`=thread-created,id="1"`, stoppedLine)

	rig.front.Threads.Delta("/src/a.c", 2, 4)
	assert.Len(t, rig.editor.moves, 1)

	// 别的文件不受影响
	rig.front.Threads.Delta("/src/b.c", 2, 4)
	assert.Len(t, rig.editor.moves, 1)
}

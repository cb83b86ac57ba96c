package frontend

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/fansqz/gdb-frontend/constants"
)

const bkptDone = `^done,bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="0x1149",func="main",file="a.c",fullname="/src/a.c",line="5",original-location="/src/a.c:5",times="0"}`

func TestInsertWithoutTokenPersists(t *testing.T) {
	rig := newTestRig(nil)

	// 用户手敲的插入没有令牌，落为持久行
	rig.handle(bkptDone)

	rows := rig.front.Breaks.Store().Rows()
	assert.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "1", row.ID)
	assert.Equal(t, constants.KindBreak, row.Kind)
	assert.True(t, row.Enabled)
	assert.True(t, row.RunApply)
	assert.False(t, row.Discard)
	assert.Equal(t, "/src/a.c:5", row.Location)
	assert.Equal(t, "a.c:5", row.Display)
	assert.Equal(t, "/src/a.c", row.File)
	assert.Equal(t, 5, row.Line)

	// 断点标记打在了源码行上
	assert.NotEmpty(t, rig.editor.marks)
	mark := rig.editor.marks[len(rig.editor.marks)-1]
	assert.Equal(t, markCall{file: "/src/a.c", line: 5, set: true, marker: constants.MarkerBreakEnabled}, mark)
	assert.Equal(t, 1, rig.views.dirty[constants.ViewBreaks])
}

func TestApplyMergesIntoLocalRow(t *testing.T) {
	rig := newTestRig(nil)
	rig.commander.state = constants.StateInactive

	// 离线建一个本地行并挂上条件和脚本
	rig.front.Breaks.Toggle("/src/a.c", 5)
	rows := rig.front.Breaks.Store().Rows()
	assert.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "", row.ID)

	rig.front.Breaks.EditColumn(row, ColCond, "x > 0")
	rig.front.Breaks.EditColumn(row, ColScript, "echo hi")
	assert.Empty(t, rig.commander.sent)

	// 连上gdb重建，插入命令带apply令牌
	rig.commander.state = constants.StateDebug
	rig.front.Breaks.Apply(row, false)
	sent := rig.commander.last()
	assert.Equal(t, tokenApply(row.Scid), sent.token)
	assert.Equal(t, `-break-insert -c "x > 0" /src/a.c:5`, sent.text)
	assert.Equal(t, ModeFrame, sent.mode)

	// 响应合并回同一行，插入命令表达不了的脚本补发命令
	rig.handle(tokenApply(row.Scid) + `^done,bkpt={number="2",type="breakpoint",disp="keep",enabled="y",addr="0x1149",func="main",fullname="/src/a.c",line="5",cond="x > 0",times="0"}`)

	assert.Equal(t, 1, rig.front.Breaks.Store().Len())
	assert.Equal(t, "2", row.ID)
	assert.Same(t, row, rig.front.Breaks.Store().ByID("2"))
	assert.Equal(t, "-break-commands 2 echo hi", rig.commander.last().text)
}

func TestToggleTwiceOfflineIsNetZero(t *testing.T) {
	rig := newTestRig(nil)
	rig.commander.state = constants.StateInactive

	rig.front.Breaks.Toggle("/src/a.c", 5)
	assert.Equal(t, 1, rig.front.Breaks.Store().Len())

	// 再点一次同一行：还没建到gdb上，直接删掉本地行
	rig.front.Breaks.Toggle("/src/a.c", 5)
	assert.Equal(t, 0, rig.front.Breaks.Store().Len())
	assert.Empty(t, rig.commander.sent)

	// 标记打了又撤
	assert.Len(t, rig.editor.marks, 2)
	assert.True(t, rig.editor.marks[0].set)
	assert.False(t, rig.editor.marks[1].set)
}

func TestToggleConnectedSendsInsert(t *testing.T) {
	rig := newTestRig(nil)

	rig.front.Breaks.Toggle("/src/a.c", 7)
	assert.Equal(t, 0, rig.front.Breaks.Store().Len())
	sent := rig.commander.last()
	assert.Equal(t, "", sent.token)
	assert.Equal(t, "-break-insert /src/a.c:7", sent.text)
}

func TestToggleAmbiguousRow(t *testing.T) {
	rig := newTestRig(nil)

	// 同一行挂着两个不同断点时不猜用户想删哪个
	rig.handle(bkptDone)
	rig.handle(`^done,bkpt={number="2",type="breakpoint",disp="keep",enabled="y",addr="0x114a",func="main",fullname="/src/a.c",line="5",original-location="/src/a.c:5",times="0"}`)

	before := len(rig.commander.sent)
	rig.front.Breaks.Toggle("/src/a.c", 5)
	assert.Len(t, rig.views.infos, 1)
	assert.Equal(t, 2, rig.front.Breaks.Store().Len())
	assert.Len(t, rig.commander.sent, before)
}

func TestListRefreshSweepsMissing(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(bkptDone)
	rig.handle(`^done,bkpt={number="2",type="breakpoint",disp="keep",enabled="y",addr="0x2000",func="g",fullname="/src/b.c",line="9",original-location="/src/b.c:9",times="0"}`)
	// 丢弃行：来自通知，断开后没法重建
	rig.handle(`=breakpoint-created,bkpt={number="3",type="breakpoint",disp="keep",enabled="y",addr="0x3000",func="h",times="0"}`)
	assert.Equal(t, 3, rig.front.Breaks.Store().Len())

	// 带令牌的全量刷新，gdb那边只剩1号
	refresh := markFrame + `^done,BreakpointTable={nr_rows="1",nr_cols="6",hdr=[],body=[bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="0x1149",func="main",fullname="/src/a.c",line="5",original-location="/src/a.c:5",times="2"}]}`
	rig.handle(refresh)

	rows := rig.front.Breaks.Store().Rows()
	assert.Len(t, rows, 2)
	// 1号还在并刷新了命中次数
	assert.Equal(t, "1", rows[0].ID)
	assert.Equal(t, 2, rows[0].Times)
	// 2号是持久行，只解除关联
	assert.Equal(t, "", rows[1].ID)
	assert.Equal(t, "", rows[1].Addr)

	// 同一份列表重放一遍不再有任何变化
	rig.handle(refresh)
	assert.Equal(t, 2, rig.front.Breaks.Store().Len())
	assert.Equal(t, "1", rig.front.Breaks.Store().Rows()[0].ID)
}

func TestNotificationRowsAreDiscarded(t *testing.T) {
	rig := newTestRig(nil)

	rig.handle(`=breakpoint-created,bkpt={number="3",type="breakpoint",disp="keep",enabled="y",addr="0x3000",func="h",times="0"}`)
	rows := rig.front.Breaks.Store().Rows()
	assert.Len(t, rows, 1)
	assert.True(t, rows[0].Discard)
	assert.False(t, rows[0].RunApply)
	// 收到过通知说明gdb支持断点通知
	assert.Equal(t, 1, rig.front.Breaks.async)

	// 会话结束，丢弃行直接消失
	rig.front.Breaks.Clear()
	assert.Equal(t, 0, rig.front.Breaks.Store().Len())
}

func TestClearKeepsPersistentRows(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(bkptDone)

	rig.front.Breaks.Clear()
	rows := rig.front.Breaks.Store().Rows()
	assert.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].ID)
	assert.Equal(t, "", rows[0].Addr)
	assert.Equal(t, "/src/a.c:5", rows[0].Location)
}

func TestMultiLocationSubRows(t *testing.T) {
	rig := newTestRig(nil)

	rig.handle(`^done,bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="<MULTIPLE>",original-location="/src/a.c:5",times="0"},bkpt={number="1.1",enabled="y",addr="0x1",func="f",fullname="/src/a.c",line="5"},bkpt={number="1.2",enabled="y",addr="0x2",func="g",fullname="/src/b.c",line="9"}`)

	rows := rig.front.Breaks.Store().Rows()
	assert.Len(t, rows, 3)

	// 主行从original-location补出文件行号
	assert.Equal(t, "1", rows[0].ID)
	assert.True(t, rows[0].RunApply)
	assert.Equal(t, "/src/a.c", rows[0].File)
	assert.Equal(t, 5, rows[0].Line)

	// 点号子行继承主行类型，但不持久化也不自动应用
	assert.Equal(t, "1.1", rows[1].ID)
	assert.Equal(t, constants.KindBreak, rows[1].Kind)
	assert.True(t, rows[1].Discard)
	assert.False(t, rows[1].RunApply)
	assert.Equal(t, "/src/b.c", rows[2].File)
}

func TestSubRowWithUnknownParent(t *testing.T) {
	rig := newTestRig(nil)

	var logBuf bytes.Buffer
	logrus.SetOutput(&logBuf)
	defer logrus.SetOutput(os.Stderr)

	// 主行的消息丢了，子行先到
	rig.handle(`=breakpoint-created,bkpt={number="4.1",type="breakpoint",enabled="y",addr="0x2000",func="g",file="a.c",fullname="/src/a.c",line="9"}`)

	// 行照常建出来，不一致要报出来
	row := rig.front.Breaks.Store().ByID("4.1")
	assert.NotNil(t, row)
	assert.Equal(t, constants.KindBreak, row.Kind)
	assert.Contains(t, logBuf.String(), "4.1: parent not found")

	// 主行存在时的子行不算不一致
	logBuf.Reset()
	rig.handle(bkptDone)
	rig.handle(`=breakpoint-created,bkpt={number="1.1",type="breakpoint",enabled="y",addr="0x1",func="f",fullname="/src/a.c",line="5"}`)
	assert.NotNil(t, rig.front.Breaks.Store().ByID("1.1"))
	assert.NotContains(t, logBuf.String(), "parent not found")
}

func TestToggleEnabledRoundtrip(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(bkptDone)
	row := rig.front.Breaks.Store().ByID("1")

	// 建上了的行要发命令等确认，本地状态先不动
	rig.front.Breaks.ToggleEnabled(row)
	sent := rig.commander.last()
	assert.Equal(t, tokenEnable(false, row.Scid), sent.token)
	assert.Equal(t, "-break-disable 1", sent.text)
	assert.True(t, row.Enabled)

	// 确认回来才落地
	rig.handle(tokenEnable(false, row.Scid) + "^done")
	assert.False(t, row.Enabled)
}

func TestToggleEnabledOfflineAndBusy(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(bkptDone)
	row := rig.front.Breaks.Store().ByID("1")

	// 会话不在时直接改本地
	rig.commander.state = constants.StateInactive
	before := len(rig.commander.sent)
	rig.front.Breaks.ToggleEnabled(row)
	assert.False(t, row.Enabled)
	assert.Len(t, rig.commander.sent, before)

	// gdb忙的时候只能响铃
	rig.commander.state = constants.StateBusy
	rig.front.Breaks.ToggleEnabled(row)
	assert.False(t, row.Enabled)
	assert.Equal(t, 1, rig.views.beeps)
}

func TestDeleteRemovesSubRows(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(`^done,bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="<MULTIPLE>",original-location="/src/a.c:5",times="0"},bkpt={number="1.1",enabled="y",addr="0x1",func="f",fullname="/src/a.c",line="5"}`)
	rig.handle(`^done,bkpt={number="10",type="breakpoint",disp="keep",enabled="y",addr="0x10",func="k",fullname="/src/c.c",line="3",original-location="/src/c.c:3",times="0"}`)
	assert.Equal(t, 3, rig.front.Breaks.Store().Len())

	row := rig.front.Breaks.Store().ByID("1")
	rig.front.Breaks.Delete(row)
	assert.Equal(t, "-break-delete 1", rig.commander.last().text)

	// 确认回来：1和1.1都删掉，10不能被前缀误伤
	rig.handle(tokenDelete("1") + "^done")
	rows := rig.front.Breaks.Store().Rows()
	assert.Len(t, rows, 1)
	assert.Equal(t, "10", rows[0].ID)
}

func TestEditColumnRequeriesInfo(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(bkptDone)
	row := rig.front.Breaks.Store().ByID("1")

	// 清空忽略次数要写0
	rig.front.Breaks.EditColumn(row, ColIgnore, "")
	sent := rig.commander.last()
	assert.Equal(t, tokenInfo("1"), sent.token)
	assert.Equal(t, "-break-after 1 0", sent.text)

	// 命令没有有用的响应，确认回来后补查详情
	rig.handle(tokenInfo("1") + "^done")
	assert.Equal(t, "-break-info 1", rig.commander.last().text)
}

func TestEditColumnTracePasscount(t *testing.T) {
	rig := newTestRig(nil)
	store := rig.front.Breaks.Store()
	row := &Breakpoint{Scid: store.NextScid(), Kind: constants.KindTrace, Location: "/src/a.c:5"}
	store.Put(row)
	store.SetID(row, "4")

	rig.front.Breaks.EditColumn(row, ColIgnore, "5")
	assert.Equal(t, "-break-passcount 4 5", rig.commander.last().text)
}

func TestStoppedDispositionWithoutNotifications(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(`=thread-created,id="1"`)
	rig.handle(bkptDone)
	row := rig.front.Breaks.Store().ByID("1")

	// gdb不支持断点通知时停车事件要自己消化disp
	rig.handle(`*stopped,reason="breakpoint-hit",disp="dis",bkptno="1",thread-id="1",stopped-threads="all",frame={addr="0x1149",func="main",fullname="/src/a.c",line="5"}`)
	assert.False(t, row.Enabled)

	rig.handle(`*stopped,reason="breakpoint-hit",disp="del",bkptno="1",thread-id="1",stopped-threads="all",frame={addr="0x1149",func="main",fullname="/src/a.c",line="5"}`)
	// 持久行只解除关联
	assert.Equal(t, 1, rig.front.Breaks.Store().Len())
	assert.Equal(t, "", row.ID)
}

func TestStoppedDispositionWithNotifications(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(`=thread-created,id="1"`)
	rig.handle(bkptDone)
	rig.handle(markBreakFeatures + `^done,features=["breakpoint-notifications","thread-info"]`)
	assert.Equal(t, 1, rig.front.Breaks.async)

	// 支持通知时disp由=breakpoint-deleted另行推送，这里不动手
	rig.handle(`*stopped,reason="breakpoint-hit",disp="del",bkptno="1",thread-id="1",stopped-threads="all",frame={addr="0x1149",func="main",fullname="/src/a.c",line="5"}`)
	assert.Equal(t, "1", rig.front.Breaks.Store().Rows()[0].ID)

	rig.handle(`=breakpoint-deleted,id="1"`)
	assert.Equal(t, "", rig.front.Breaks.Store().Rows()[0].ID)
}

func TestDeltaNetZero(t *testing.T) {
	rig := newTestRig(nil)
	rig.commander.state = constants.StateInactive
	rig.front.Breaks.Toggle("/src/a.c", 10)
	row := rig.front.Breaks.Store().Rows()[0]

	// 插三行再删三行，行号要回到原位
	rig.front.Breaks.Delta("/src/a.c", 4, 3, false)
	assert.Equal(t, 13, row.Line)
	assert.Equal(t, "/src/a.c:13", row.Location)

	rig.front.Breaks.Delta("/src/a.c", 4, -3, false)
	assert.Equal(t, 10, row.Line)
	assert.Equal(t, "/src/a.c:10", row.Location)
}

func TestDeltaDropsRowInDeletedRange(t *testing.T) {
	rig := newTestRig(nil)
	rig.commander.state = constants.StateInactive
	rig.front.Breaks.Toggle("/src/a.c", 5)

	// 断点所在的行被删掉了，行跟着丢弃
	rig.front.Breaks.Delta("/src/a.c", 3, -3, false)
	assert.Equal(t, 0, rig.front.Breaks.Store().Len())
}

func TestDeltaActiveOnlyMovesMarks(t *testing.T) {
	rig := newTestRig(nil)
	rig.commander.state = constants.StateInactive
	rig.front.Breaks.Toggle("/src/a.c", 10)
	row := rig.front.Breaks.Store().Rows()[0]

	// 文件在编辑器里打开着：标记由编辑器维护，模型不动
	rig.front.Breaks.Delta("/src/a.c", 4, 3, true)
	assert.Equal(t, 10, row.Line)
	assert.Len(t, rig.editor.moves, 1)
}

func TestApplyCommandFlags(t *testing.T) {
	rig := newTestRig(nil)
	store := rig.front.Breaks.Store()

	row := &Breakpoint{
		Scid:      store.NextScid(),
		Kind:      constants.KindHardware,
		Temporary: true,
		Ignore:    "3",
		Cond:      `a=="x"`,
		Pending:   true,
		Location:  "/src/a.c:5",
	}
	store.Put(row)
	rig.front.Breaks.Apply(row, false)
	sent := rig.commander.last()
	assert.Equal(t, tokenApply(row.Scid), sent.token)
	assert.Equal(t, `-break-insert -t -h -i 3 -d -c "a==\"x\"" -f /src/a.c:5`, sent.text)

	// 限定到界面选中的线程，gdb那边的当前线程可能还没跟上
	rig.front.Threads.currentID = "2"
	rig.front.Threads.gdbThread = "9"
	rig.front.Breaks.Apply(row, true)
	assert.Contains(t, rig.commander.last().text, " -p 2 /src/a.c:5")

	// 观察点走-break-watch，访问模式带标志
	watch := &Breakpoint{Scid: store.NextScid(), Kind: constants.KindAccess, Enabled: true, Location: "counter"}
	store.Put(watch)
	rig.front.Breaks.Apply(watch, false)
	assert.Equal(t, "-break-watch -a counter", rig.commander.last().text)

	plain := &Breakpoint{Scid: store.NextScid(), Kind: constants.KindWatch, Enabled: true, Location: "counter"}
	store.Put(plain)
	rig.front.Breaks.Apply(plain, false)
	assert.Equal(t, "-break-watch counter", rig.commander.last().text)
}

func TestApplyAllHonorsRunApply(t *testing.T) {
	rig := newTestRig(nil)
	store := rig.front.Breaks.Store()
	store.Put(&Breakpoint{Scid: store.NextScid(), Kind: constants.KindBreak, Enabled: true, RunApply: true, Location: "/src/a.c:5"})
	store.Put(&Breakpoint{Scid: store.NextScid(), Kind: constants.KindBreak, Enabled: true, Location: "/src/b.c:9"})
	store.Put(&Breakpoint{Scid: store.NextScid(), Kind: constants.KindBreak, Enabled: true, RunApply: true, Location: "/src/c.c:3"})

	rig.front.Breaks.ApplyAll()
	assert.Len(t, rig.commander.sent, 2)
	assert.Contains(t, rig.commander.sent[0].text, "/src/a.c:5")
	assert.Contains(t, rig.commander.sent[1].text, "/src/c.c:3")
}

func TestQueryAsyncOnlyOnce(t *testing.T) {
	rig := newTestRig(nil)
	var b strings.Builder

	rig.front.Breaks.QueryAsync(&b)
	rig.front.Breaks.QueryAsync(&b)
	assert.Equal(t, markBreakFeatures+"-list-features\n", b.String())
	assert.Equal(t, 0, rig.front.Breaks.async)
}

func TestMarkFileRepaintsBreakMarks(t *testing.T) {
	rig := newTestRig(nil)
	rig.handle(bkptDone)
	rig.editor.marks = nil

	rig.front.Breaks.MarkFile("/src/a.c")
	assert.Len(t, rig.editor.marks, 1)
	assert.Equal(t, markCall{file: "/src/a.c", line: 5, set: true, marker: constants.MarkerBreakEnabled}, rig.editor.marks[0])

	rig.front.Breaks.MarkFile("/src/other.c")
	assert.Len(t, rig.editor.marks, 1)
}

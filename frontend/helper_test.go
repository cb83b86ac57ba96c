package frontend

import (
	"fmt"

	"github.com/fansqz/gdb-frontend/constants"
)

// 协作方的测试替身，记录引擎发出的所有外部动作

type sentCommand struct {
	mode  SendMode
	token string
	text  string
}

type fakeCommander struct {
	state constants.DebugState
	sent  []sentCommand
}

func (c *fakeCommander) State() constants.DebugState { return c.state }

func (c *fakeCommander) Send(mode SendMode, token, format string, args ...interface{}) {
	c.sent = append(c.sent, sentCommand{mode: mode, token: token, text: fmt.Sprintf(format, args...)})
}

// last 最后一条命令，没有则返回零值
func (c *fakeCommander) last() sentCommand {
	if len(c.sent) == 0 {
		return sentCommand{}
	}
	return c.sent[len(c.sent)-1]
}

type markCall struct {
	file   string
	line   int
	set    bool
	marker constants.Marker
}

type seekCall struct {
	file string
	line int
	mode SeekMode
}

type fakeEditor struct {
	marks []markCall
	moves []markCall
	seeks []seekCall
}

func (e *fakeEditor) Mark(file string, line int, set bool, marker constants.Marker) {
	e.marks = append(e.marks, markCall{file: file, line: line, set: set, marker: marker})
}

func (e *fakeEditor) MoveMark(file string, line, start, delta int, marker constants.Marker) {
	e.moves = append(e.moves, markCall{file: file, line: line, marker: marker})
}

func (e *fakeEditor) Seek(file string, line int, focus bool, mode SeekMode) {
	e.seeks = append(e.seeks, seekCall{file: file, line: line, mode: mode})
}

type fakeViews struct {
	dirty    map[constants.View]int
	dataDirt int
	status   []string
	errors   []string
	infos    []string
	blinks   int
	beeps    int
	opened   int
}

func newFakeViews() *fakeViews {
	return &fakeViews{dirty: make(map[constants.View]int)}
}

func (v *fakeViews) Dirty(view constants.View) { v.dirty[view]++ }
func (v *fakeViews) DataDirty()                { v.dataDirt++ }

func (v *fakeViews) Status(format string, args ...interface{}) {
	v.status = append(v.status, fmt.Sprintf(format, args...))
}

func (v *fakeViews) Error(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *fakeViews) Info(format string, args ...interface{}) {
	v.infos = append(v.infos, fmt.Sprintf(format, args...))
}

func (v *fakeViews) Blink()          { v.blinks++ }
func (v *fakeViews) Beep()           { v.beeps++ }
func (v *fakeViews) OpenDebugPanel() { v.opened++ }

type fakeTerminal struct {
	cleared int
	shown   []bool
}

func (t *fakeTerminal) Clear()               { t.cleared++ }
func (t *fakeTerminal) Standalone(show bool) { t.shown = append(t.shown, show) }

type testRig struct {
	front     *Frontend
	commander *fakeCommander
	editor    *fakeEditor
	views     *fakeViews
	terminal  *fakeTerminal
	autoExits int
}

// newTestRig 组装一个挂满替身的前端，默认会话状态是StateDebug
func newTestRig(options *Options) *testRig {
	if options == nil {
		options = &Options{}
	}
	rig := &testRig{
		commander: &fakeCommander{state: constants.StateDebug},
		editor:    &fakeEditor{},
		views:     newFakeViews(),
		terminal:  &fakeTerminal{},
	}
	rig.front = New(&Collaborators{
		Commander:  rig.commander,
		Editor:     rig.editor,
		Views:      rig.views,
		Terminal:   rig.terminal,
		Options:    options,
		OnAutoExit: func() { rig.autoExits++ },
	})
	return rig
}

// handle 按顺序灌入多行gdb输出
func (r *testRig) handle(lines ...string) {
	for _, line := range lines {
		r.front.HandleLine(line)
	}
}

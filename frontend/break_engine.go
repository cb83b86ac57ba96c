package frontend

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fansqz/gdb-frontend/constants"
	errs "github.com/fansqz/gdb-frontend/error"
	"github.com/fansqz/gdb-frontend/frontend/mi"
)

// BreakEngine 断点引擎：维护断点表，消化gdb的插入响应、异步通知和
// 全量列表，并生成启停、删除、重建断点的命令
type BreakEngine struct {
	c       *Collaborators
	store   *BreakStore
	threads *ThreadEngine

	// async gdb是否会主动推送断点变更通知：-1未探测，0不支持，1支持
	// 不支持时只能靠停车事件和全量刷新对账
	async int
}

func NewBreakEngine(c *Collaborators) *BreakEngine {
	return &BreakEngine{c: c, store: NewBreakStore(), async: -1}
}

// Store 只读访问断点集合（界面层遍历用）
func (e *BreakEngine) Store() *BreakStore {
	return e.store
}

// breakParse 一条消息内逐行解析的游标状态
type breakParse struct {
	cur   *Breakpoint
	kind  constants.BreakpointKind
	stage BreakStage
}

// mark 按行自身的位置打或者撤断点标记，没有可靠位置就什么都不做
func (e *BreakEngine) mark(row *Breakpoint, set bool) {
	if row.File != "" && row.Line > 0 {
		e.c.Editor.Mark(row.File, row.Line, set, constants.BreakMarker(row.Enabled))
	}
}

func (e *BreakEngine) setEnabled(row *Breakpoint, enable bool) {
	e.mark(row, false)
	row.Enabled = enable
	e.mark(row, true)
	e.c.Views.Dirty(constants.ViewBreaks)
}

func (e *BreakEngine) remove(row *Breakpoint) {
	e.mark(row, false)
	e.store.Remove(row)
}

// clearRow 断开与gdb的关联但保留行：编号和地址失效，
// 观察点的临时标志也一起清掉（borts的临时标志是用户属性，留着）
func (e *BreakEngine) clearRow(row *Breakpoint) {
	e.store.SetID(row, "")
	row.Addr = ""
	if !row.Kind.IsBreakOrTrace() {
		row.Temporary = false
	}
}

// scriptQuote 把一条script命令包成带引号的字符串追加到b
func scriptQuote(b *strings.Builder, node *mi.Node) {
	if node.Type != mi.TypeValue {
		logrus.Error("script: contains array")
		return
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteByte('"')
	for i := 0; i < len(node.Value); i++ {
		c := node.Value[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
}

func scriptText(script *mi.Node) string {
	var b strings.Builder
	if script.Type == mi.TypeValue {
		scriptQuote(&b, script)
	} else {
		for _, node := range script.List {
			scriptQuote(&b, node)
		}
	}
	return b.String()
}

// parseNode 消化一个断点tuple，bd携带行与行之间的阶段状态
// 同一条消息里第一行按照令牌决定的阶段处理，后续行（多位置断点的
// 子行）一律进入稳态：只建行、刷新字段，不再生成命令
func (e *BreakEngine) parseNode(node *mi.Node, bd *breakParse) {
	if node.Type == mi.TypeValue {
		logrus.Errorf("breaks: %v", errs.ErrBadNode)
		bd.stage = StageDiscard
		return
	}
	nodes := node.List

	id := mi.FindValue(nodes, "number")
	if id == "" {
		logrus.Error("breaks: no number")
		bd.stage = StageDiscard
		return
	}

	// 插入响应的tuple名（bkpt/wpt/...）本身就说明类型
	textType := mi.FindValue(nodes, "type")
	if textType == "" {
		textType = node.Name
	}
	kind := constants.KindFromMIType(textType)

	// 点号编号是多位置断点的子行，类型缺失时继承主行的
	leading := !strings.Contains(id, ".")
	if leading || bd.stage != StageNext || kind != constants.KindUnknown {
		bd.kind = kind
	} else {
		kind = bd.kind
	}

	borts := kind.IsBreakOrTrace()
	loc := mi.ParseLocation(nodes)
	enabled := mi.FindValue(nodes, "enabled") != "n"
	times := mi.Atoi0(mi.FindValue(nodes, "times"))
	temporary := mi.FindValue(nodes, "disp") == "del"

	if bd.stage != StageApply {
		script := mi.FindNode(nodes, "script")

		if row := e.store.ByID(id); row != nil {
			bd.cur = row
			e.mark(row, false)
		} else {
			// 子行先于主行出现说明上游漏了消息，照常建行但要报出来
			if !leading {
				if e.store.ByID(id[:strings.IndexByte(id, '.')]) == nil {
					logrus.Errorf("%s: parent not found", id)
				}
			}

			location := mi.FindValue(nodes, "original-location")
			persist := leading && bd.stage == StagePersist
			pending := mi.FindNode(nodes, "pending") != nil

			if location != "" {
				// original-location可能比file/line字段更完整
				if file, line, ok := mi.SplitLocation(location); ok {
					if loc.File == "" {
						loc.File = file
					}
					if line > 0 && loc.Line == 0 {
						loc.Line = line
					}
				}
			} else if kind.IsWatch() {
				location = mi.FindValue(nodes, "exp")
				if location == "" {
					location = mi.FindValue(nodes, "what")
				}
			}

			if location == "" || !kind.IsKnown() {
				// 凑不出重建命令，这种行不持久化
				persist = false
				if location == "" {
					location = loc.Func
				}
			}

			display := location
			if borts && location != "" {
				display = filepath.Base(location)
			}

			row = &Breakpoint{
				Scid:     e.store.NextScid(),
				Kind:     kind,
				Display:  display,
				Pending:  pending,
				Location: location,
				RunApply: leading && borts,
				Discard:  !persist,
			}
			e.store.Put(row)
			bd.cur = row
		}

		if loc.File != "" && loc.Line > 0 {
			e.c.Editor.Mark(loc.File, loc.Line, true, constants.BreakMarker(enabled))
		}

		if script != nil {
			bd.cur.Script = scriptText(script)
		} else {
			bd.cur.Script = ""
		}
	}

	row := bd.cur

	// Apply阶段borts之外的类型保留本地的启停和条件值，
	// 差异稍后由afterApplied补发命令对齐到gdb
	if borts || bd.stage != StageApply {
		row.Enabled = enabled
		row.Cond = mi.FindValue(nodes, "cond")
		if kind.IsBreak() || bd.stage != StageApply {
			ignore := mi.FindValue(nodes, "ignore")
			if ignore == "" {
				ignore = mi.FindValue(nodes, "pass")
			}
			row.Ignore = ignore
		}
	}

	e.store.SetID(row, id)
	row.Kind = kind
	row.File = loc.File
	row.Line = loc.Line
	row.Func = loc.Func
	row.Addr = loc.Addr
	row.Times = times
	row.Missing = false
	row.Temporary = temporary

	if bd.stage == StageApply {
		e.afterApplied(row)
	} else if bd.stage == StageGoto {
		e.c.Commander.Send(ModeThread, "", "-exec-continue")
	}

	bd.stage = StageNext
}

// OnInserted 处理^done,bkpt=/wpt=/hw-awpt=/hw-rwpt=插入响应
func (e *BreakEngine) OnInserted(nodes []*mi.Node) {
	token, nodes, present := mi.GrabToken(nodes)
	bd := &breakParse{stage: StagePersist}

	stage, scid := insertStage(token, present)
	if stage == StageApply {
		if row := e.store.ByScid(scid); row != nil {
			bd.cur = row
			bd.stage = StageApply
		} else {
			logrus.Errorf("%s: b_scid not found", token)
		}
	} else {
		bd.stage = stage
	}

	for _, node := range nodes {
		e.parseNode(node, bd)
	}
	e.c.Views.Dirty(constants.ViewBreaks)
}

// OnDone 处理带断点操作令牌的普通^done确认
func (e *BreakEngine) OnDone(nodes []*mi.Node) {
	token, _, _ := mi.GrabToken(nodes)
	op, rest := parseDone(token)

	switch op {
	case DoneDisable, DoneEnable:
		if row := e.store.ByScid(mi.Atoi0(rest)); row != nil {
			e.setEnabled(row, op == DoneEnable)
		} else {
			logrus.Errorf("%s: b_scid not found", token)
		}
	case DoneInfo:
		// 观察点的启停没有确认字段，补一次查询拿回真实状态
		e.c.Commander.Send(ModeNone, "", "-break-info %s", rest)
	case DoneDelete:
		if !e.removeAll(rest, true) {
			logrus.Errorf("%s: bid not found", token)
		}
		e.c.Views.Dirty(constants.ViewBreaks)
	default:
		logrus.Errorf("%s: invalid b_oper", token)
	}
}

// removeAll 删除编号等于prefix的行及其所有点号子行
// 非force时不能丢的行只解除关联
func (e *BreakEngine) removeAll(prefix string, force bool) bool {
	found := false
	for _, row := range e.store.Rows() {
		if row.ID == "" {
			continue
		}
		if row.ID != prefix && !strings.HasPrefix(row.ID, prefix+".") {
			continue
		}
		found = true
		if row.Discard || force {
			e.remove(row)
		} else {
			e.clearRow(row)
		}
	}
	return found
}

// OnList 处理^done,BreakpointTable=断点列表
// 带令牌的列表是全量刷新：先把所有行标成失踪，解析完还失踪的行
// 就是gdb那边已经没有的，丢弃或者解除关联
func (e *BreakEngine) OnList(nodes []*mi.Node) {
	_, nodes, refresh := mi.GrabToken(nodes)

	body := mi.FindArray(mi.LeadArray(nodes), "body")
	if body == nil {
		logrus.Error("breaks: no body")
		return
	}

	if refresh {
		e.store.Each(func(row *Breakpoint) bool {
			row.Missing = true
			return true
		})
	}

	bd := &breakParse{stage: StageDiscard}
	for _, node := range body {
		e.parseNode(node, bd)
	}

	if refresh {
		for _, row := range e.store.Rows() {
			if row.ID == "" || !row.Missing {
				continue
			}
			if row.Discard {
				e.remove(row)
			} else {
				e.clearRow(row)
			}
		}
	}
	e.c.Views.Dirty(constants.ViewBreaks)
}

// OnStopped 处理命中断点的*stopped通知，然后转给线程引擎
// gdb支持断点通知时禁用/删除会另行推送，这里不用自己动手
func (e *BreakEngine) OnStopped(nodes []*mi.Node) {
	if e.async < 1 {
		id := mi.FindValue(nodes, "bkptno")
		disp := mi.FindValue(nodes, "disp")

		if id != "" && disp != "" {
			switch disp {
			case "dis":
				if row := e.store.ByID(id); row != nil {
					e.setEnabled(row, false)
				}
			case "del":
				e.removeAll(id, false)
				e.c.Views.Dirty(constants.ViewBreaks)
			}
		}
	}

	e.threads.OnStopped(nodes)
}

// OnCreatedOrModified 处理=breakpoint-created/modified通知
// 收到过通知就说明这个gdb支持断点通知
func (e *BreakEngine) OnCreatedOrModified(nodes []*mi.Node) {
	bd := &breakParse{stage: StageDiscard}
	for _, node := range nodes {
		e.parseNode(node, bd)
	}
	e.async = 1
	e.c.Views.Dirty(constants.ViewBreaks)
}

// OnDeleted 处理=breakpoint-deleted通知
func (e *BreakEngine) OnDeleted(nodes []*mi.Node) {
	e.removeAll(mi.LeadValue(nodes), false)
	e.async = 1
	e.c.Views.Dirty(constants.ViewBreaks)
}

// OnFeatures 处理-list-features响应，探测断点通知支持
func (e *BreakEngine) OnFeatures(nodes []*mi.Node) {
	for _, node := range mi.LeadArray(nodes) {
		if node.Type == mi.TypeValue && node.Value == "breakpoint-notifications" {
			e.async = 1
		}
	}
}

// QueryAsync 会话建立时追加一次特性探测命令，只探测一次
func (e *BreakEngine) QueryAsync(commands *strings.Builder) {
	if e.async == -1 {
		e.async = 0
		commands.WriteString(markBreakFeatures + "-list-features\n")
	}
}

// ToggleEnabled 用户切换启停
// 没建到gdb上的行直接改本地，建上了的要发命令等确认
func (e *BreakEngine) ToggleEnabled(row *Breakpoint) {
	state := e.c.Commander.State()
	enable := !row.Enabled

	if state == constants.StateInactive || row.ID == "" {
		e.setEnabled(row, enable)
	} else if state&constants.StateSendable != 0 {
		verb := "disable"
		if enable {
			verb = "enable"
		}
		e.c.Commander.Send(ModeNone, tokenEnable(enable, row.Scid), "-break-%s %s", verb, row.ID)
	} else {
		e.c.Views.Beep()
	}
}

// 可编辑列的下标
const (
	ColIgnore = iota
	ColCond
	ColScript
)

// breakCommand 可编辑列对应的gdb命令名，追踪点的第一列是passcount
func breakCommand(index int, kind constants.BreakpointKind) string {
	if index == ColIgnore && kind.IsTrace() {
		return "passcount"
	}
	return [...]string{"after", "condition", "commands"}[index]
}

// EditColumn 用户编辑忽略次数/条件/脚本列
// 命令没有有用的响应，所以令牌要求回来后补查-break-info刷新真实值
func (e *BreakEngine) EditColumn(row *Breakpoint, index int, text string) {
	if row.ID != "" && e.c.Commander.State()&constants.StateSendable != 0 {
		arg := text
		if arg == "" && index == ColIgnore {
			arg = "0"
		}
		e.c.Commander.Send(ModeFrame, tokenInfo(row.ID), "-break-%s %s %s",
			breakCommand(index, row.Kind), row.ID, arg)
	} else if row.ID == "" {
		switch index {
		case ColIgnore:
			row.Ignore = text
		case ColCond:
			row.Cond = text
		case ColScript:
			row.Script = text
		}
		e.c.Views.Dirty(constants.ViewBreaks)
	} else {
		e.c.Views.Beep()
	}
}

// Delete 用户删除一行
func (e *BreakEngine) Delete(row *Breakpoint) {
	if e.c.Commander.State() == constants.StateInactive || row.ID == "" {
		e.remove(row)
		e.c.Views.Dirty(constants.ViewBreaks)
	} else {
		e.c.Commander.Send(ModeNone, tokenDelete(row.ID), "-break-delete %s", row.ID)
	}
}

// afterApplied 重建命令完成后的善后：gdb插入命令表达不了的属性
// （观察点的禁用状态、追踪点的passcount、命令脚本）逐条补发
func (e *BreakEngine) afterApplied(row *Breakpoint) {
	cols := [...]string{row.Ignore, row.Cond, row.Script}

	if row.Kind.IsBreakOrTrace() {
		if row.Kind.IsBreak() {
			cols[ColIgnore] = ""
		}
		cols[ColCond] = ""
	} else if !row.Enabled {
		e.c.Commander.Send(ModeNone, "", "-break-disable %s", row.ID)
	}

	for index, text := range cols {
		if text != "" {
			e.c.Commander.Send(ModeFrame, "", "-break-%s %s %s",
				breakCommand(index, row.Kind), row.ID, text)
		}
	}
}

// Apply 在gdb上重建一行，withThread时限定到当前线程
func (e *BreakEngine) Apply(row *Breakpoint, withThread bool) {
	var b strings.Builder
	borts := row.Kind.IsBreakOrTrace()

	if borts {
		b.WriteString("-break-insert")
		if row.Temporary {
			b.WriteString(" -t")
		}
		if row.Kind.IsHardware() {
			b.WriteString(" -h")
		}
		if row.Kind.IsBreak() {
			if row.Ignore != "" {
				b.WriteString(" -i ")
				b.WriteString(row.Ignore)
			}
		} else {
			b.WriteString(" -a")
		}
		if !row.Enabled {
			b.WriteString(" -d")
		}
		if row.Cond != "" {
			b.WriteString(` -c "`)
			for i := 0; i < len(row.Cond); i++ {
				c := row.Cond[i]
				if c == '"' || c == '\\' {
					b.WriteByte('\\')
				}
				b.WriteByte(c)
			}
			b.WriteByte('"')
		}
		if row.Pending {
			b.WriteString(" -f")
		}
		if withThread && e.threads.currentID != "" {
			b.WriteString(" -p ")
			b.WriteString(e.threads.currentID)
		}
	} else {
		b.WriteString("-break-watch")
		if flag, ok := row.Kind.AccessFlag(); ok {
			b.WriteString(" -")
			b.WriteByte(flag)
		}
	}

	b.WriteByte(' ')
	b.WriteString(row.Location)
	e.c.Commander.Send(ModeFrame, tokenApply(row.Scid), "%s", b.String())
}

// ApplyAll 会话建立后重建所有标了自动应用的行
func (e *BreakEngine) ApplyAll() {
	for _, row := range e.store.Rows() {
		if row.RunApply {
			e.Apply(row, false)
		}
	}
}

// relocate 把一行改挂到新位置
func (e *BreakEngine) relocate(row *Breakpoint, file string, line int) {
	location := file + ":" + strconv.Itoa(line)
	row.File = file
	row.Line = line
	row.Display = filepath.Base(location)
	row.Location = location
}

// Toggle 在file:line上切换断点：有就删，没有就建
// 同一行挂着多个不同断点时不猜用户想删哪个
func (e *BreakEngine) Toggle(file string, line int) {
	var target *Breakpoint
	found := 0

	e.store.Each(func(row *Breakpoint) bool {
		if row.Line != line || row.File != file {
			return true
		}
		num := mi.Atoi0(row.ID)
		if row.ID == "" {
			num = -1
		}
		if found != 0 && found != num {
			e.c.Views.Info("%s:%d有多个断点，请在断点列表里删除", file, line)
			found = -2
			return false
		}
		found = num
		target = row
		return true
	})

	switch {
	case found == -2:
		return
	case found != 0:
		e.Delete(target)
	case e.c.Commander.State() != constants.StateInactive:
		e.c.Commander.Send(ModeNone, "", "-break-insert %s:%d", file, line)
	default:
		row := &Breakpoint{
			Scid:     e.store.NextScid(),
			Kind:     constants.KindBreak,
			Enabled:  true,
			RunApply: true,
		}
		e.relocate(row, file, line)
		e.store.Put(row)
		e.c.Editor.Mark(file, line, true, constants.MarkerBreakEnabled)
		e.c.Views.Dirty(constants.ViewBreaks)
	}
}

// Update 会话空闲时的例行对账，错误静默
func (e *BreakEngine) Update() {
	e.c.Commander.Send(ModeNone, markFrame, "-break-list")
}

// Refresh 用户主动刷新
func (e *BreakEngine) Refresh() {
	e.c.Commander.Send(ModeNone, tokenDiscard(), "-break-list")
}

// Delta 编辑器在start行（0开始）插入或者删除了delta行
// active时只移标记，位置跟着编辑器走；非active时修正本地行号，
// 行落进被删除区间的直接丢掉
func (e *BreakEngine) Delta(file string, start, delta int, active bool) {
	for _, row := range e.store.Rows() {
		line := row.Line - 1
		if line < 0 || start > line || row.File != file {
			continue
		}

		if active {
			e.c.Editor.MoveMark(file, line, start, delta, constants.BreakMarker(row.Enabled))
		} else if delta > 0 || start-delta <= line {
			line += delta + 1
			if _, n, ok := mi.SplitLocation(row.Location); ok && n > 0 {
				e.relocate(row, file, line)
			} else {
				row.Line = line
			}
		} else {
			e.c.Editor.Mark(file, start+1, false, constants.BreakMarker(row.Enabled))
			e.store.Remove(row)
		}
	}
}

// Reset 新会话开始，命中次数清零
func (e *BreakEngine) Reset() {
	e.store.Each(func(row *Breakpoint) bool {
		row.Times = 0
		return true
	})
}

// Clear 会话结束，丢掉不能重建的行，其余解除关联
func (e *BreakEngine) Clear() {
	for _, row := range e.store.Rows() {
		if row.Discard {
			e.remove(row)
		} else {
			e.clearRow(row)
		}
	}
	e.c.Views.Dirty(constants.ViewBreaks)
}

// DeleteAll 清空断点表
func (e *BreakEngine) DeleteAll() {
	e.store.Each(func(row *Breakpoint) bool {
		e.mark(row, false)
		return true
	})
	e.store.Clear()
}

// Active 当前启用且建到gdb上的断点数
func (e *BreakEngine) Active() int {
	active := 0
	e.store.Each(func(row *Breakpoint) bool {
		if row.Enabled && row.ID != "" {
			active++
		}
		return true
	})
	return active
}

// MarkFile 文件打开时补画这个文件里的断点标记
func (e *BreakEngine) MarkFile(file string) {
	e.store.Each(func(row *Breakpoint) bool {
		if row.Line > 0 && row.File == file {
			e.c.Editor.Mark(file, row.Line, true, constants.BreakMarker(row.Enabled))
		}
		return true
	})
}

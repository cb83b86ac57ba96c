package frontend

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fansqz/gdb-frontend/frontend/mi"
)

// route 一条分发规则：消息前缀加可选的令牌标记
// mark为0时不看令牌；表是按顺序匹配的，长前缀必须排在短前缀前面
type route struct {
	prefix  string
	handler func(f *Frontend, nodes []*mi.Node)
	mark    byte
	newline byte
	args    int
}

var routes = []route{
	{"*running,", (*Frontend).onRunning, 0, 0, 0},
	{`*stopped,reason="exited`, nil, 0, 0, 0},
	{`*stopped,reason="breakpoint`, (*Frontend).onBreakStopped, 0, 0, 0},
	{"*stopped,", (*Frontend).onThreadStopped, 0, 0, 0},
	{"=thread-created,", (*Frontend).onThreadCreated, 0, 0, 0},
	{"=thread-exited,", (*Frontend).onThreadExited, 0, 0, 0},
	{"=thread-selected,", (*Frontend).onThreadSelected, 0, 0, 1},
	{`=thread-group-started,id="`, (*Frontend).onGroupStarted, 0, 0, 1},
	{`=thread-group-exited,id="`, (*Frontend).onGroupExited, 0, 0, 1},
	{`=thread-group-added,id="`, (*Frontend).onGroupAdded, 0, 0, 1},
	{`=thread-group-removed,id="`, (*Frontend).onGroupRemoved, 0, 0, 1},
	{"=breakpoint-created,bkpt={", (*Frontend).onBreakCreated, 0, 0, 1},
	{"=breakpoint-modified,bkpt={", (*Frontend).onBreakCreated, 0, 0, 1},
	{`=breakpoint-deleted,id="`, (*Frontend).onBreakDeleted, 0, 0, 1},
	{"^done,bkpt={", (*Frontend).onBreakInserted, 0, 0, 1},
	{"^done,wpt={", (*Frontend).onBreakInserted, 0, 0, 1},
	{"^done,hw-awpt={", (*Frontend).onBreakInserted, 0, 0, 1},
	{"^done,hw-rwpt={", (*Frontend).onBreakInserted, 0, 0, 1},
	{"^done,threads=[", (*Frontend).onThreadFollow, '6', 0, 1},
	{"^done,threads=[", (*Frontend).onThreadInfo, 0, 0, 1},
	{"^done,BreakpointTable={", (*Frontend).onBreakList, 0, 0, 1},
	{"^done,frame={", (*Frontend).onThreadFrame, '4', 0, 0},
	{"^done,features=[", (*Frontend).onBreakFeatures, '5', 0, 1},
	{"^done,features=[", (*Frontend).onTargetFeatures, '7', 0, 1},
	{"^done", (*Frontend).onBreakDone, '2', 0, 0},
	{"^error", nil, '4', 0, 0},
	{"^error,", (*Frontend).onError, 0, '\n', 0},
}

// HandleLine 分发一行gdb/MI输出（不含行尾换行）
// 找不到路由的记录静默忽略，流输出（~/@/&）不归这里管
func (f *Frontend) HandleLine(line string) {
	token, message, present := splitToken(line)

	for _, r := range routes {
		if !strings.HasPrefix(message, r.prefix) {
			continue
		}
		if r.mark != 0 && (!present || token[0] != r.mark) {
			continue
		}

		if r.handler == nil {
			return
		}

		var nodes []*mi.Node
		if comma := strings.IndexByte(r.prefix, ','); comma >= 0 {
			var err error
			nodes, err = mi.Parse(message[comma:], r.newline)
			if err != nil {
				logrus.Errorf("%s: %v", r.prefix, err)
			}
		}

		if len(nodes) < r.args {
			logrus.Errorf("%s: missing argument(s)", r.prefix)
			return
		}

		if present {
			nodes = append(nodes, &mi.Node{
				Name:  mi.TokenNode,
				Type:  mi.TypeValue,
				Value: token[1:],
			})
		}

		r.handler(f, nodes)
		return
	}
}

func (f *Frontend) onRunning(nodes []*mi.Node)       { f.Threads.OnRunning(nodes) }
func (f *Frontend) onBreakStopped(nodes []*mi.Node)  { f.Breaks.OnStopped(nodes) }
func (f *Frontend) onThreadStopped(nodes []*mi.Node) { f.Threads.OnStopped(nodes) }
func (f *Frontend) onThreadCreated(nodes []*mi.Node) { f.Threads.OnCreated(nodes) }
func (f *Frontend) onThreadExited(nodes []*mi.Node)  { f.Threads.OnExited(nodes) }
func (f *Frontend) onThreadSelected(nodes []*mi.Node) {
	f.Threads.OnSelected(nodes)
}
func (f *Frontend) onGroupStarted(nodes []*mi.Node) { f.Threads.OnGroupStarted(nodes) }
func (f *Frontend) onGroupExited(nodes []*mi.Node)  { f.Threads.OnGroupExited(nodes) }
func (f *Frontend) onGroupAdded(nodes []*mi.Node)   { f.Threads.OnGroupAdded(nodes) }
func (f *Frontend) onGroupRemoved(nodes []*mi.Node) { f.Threads.OnGroupRemoved(nodes) }
func (f *Frontend) onBreakCreated(nodes []*mi.Node) { f.Breaks.OnCreatedOrModified(nodes) }
func (f *Frontend) onBreakDeleted(nodes []*mi.Node) { f.Breaks.OnDeleted(nodes) }
func (f *Frontend) onBreakInserted(nodes []*mi.Node) {
	f.Breaks.OnInserted(nodes)
}
func (f *Frontend) onThreadFollow(nodes []*mi.Node) { f.Threads.OnFollow(nodes) }
func (f *Frontend) onThreadInfo(nodes []*mi.Node)   { f.Threads.OnInfo(nodes) }
func (f *Frontend) onBreakList(nodes []*mi.Node)    { f.Breaks.OnList(nodes) }
func (f *Frontend) onThreadFrame(nodes []*mi.Node)  { f.Threads.OnFrame(nodes) }
func (f *Frontend) onBreakFeatures(nodes []*mi.Node) {
	f.Breaks.OnFeatures(nodes)
}
func (f *Frontend) onBreakDone(nodes []*mi.Node) { f.Breaks.OnDone(nodes) }

// onTargetFeatures 处理-list-target-features响应，探测异步执行支持
func (f *Frontend) onTargetFeatures(nodes []*mi.Node) {
	for _, node := range mi.LeadArray(nodes) {
		if node.Type == mi.TypeValue && node.Value == "async" {
			f.asyncMode = true
		}
	}
}

// onError 处理^error，把消息展示给用户
func (f *Frontend) onError(nodes []*mi.Node) {
	msg := mi.FindValue(nodes, "msg")
	if msg == "" {
		msg = "Undefined GDB error."
	}
	f.collab.Views.Error("%s", msg)
	if f.collab.Options.TerminalShowOnError {
		f.collab.Terminal.Standalone(true)
	}
}

// StartupCommands 会话建立后要发的探测命令批次，每行自带令牌
func (f *Frontend) StartupCommands() string {
	var commands strings.Builder
	f.Breaks.QueryAsync(&commands)
	commands.WriteString(markTargetFeatures + "-list-target-features\n")
	commands.WriteString(markThreadFollow + "-thread-info\n")
	return commands.String()
}

package constants

// BreakpointKind 断点类型，封闭枚举
// gdb返回的类型名通过KindFromMIType映射到这里，持久化用单字母编码
type BreakpointKind int

const (
	KindUnknown BreakpointKind = iota
	KindBreak
	KindHardware
	KindTrace
	KindFastTrace
	KindWatch
	KindAccess
	KindRead
	KindCatch
)

// miKindNames gdb/MI类型名到断点类型的映射表
// "wpt"等是插入响应里的tuple名，watchpoint等是断点列表里的type字段
var miKindNames = map[string]BreakpointKind{
	"breakpoint":      KindBreak,
	"hw breakpoint":   KindHardware,
	"tracepoint":      KindTrace,
	"fast tracepoint": KindFastTrace,
	"wpt":             KindWatch,
	"watchpoint":      KindWatch,
	"hw watchpoint":   KindWatch,
	"hw-awpt":         KindAccess,
	"acc watchpoint":  KindAccess,
	"hw-rwpt":         KindRead,
	"read watchpoint": KindRead,
	"catchpoint":      KindCatch,
}

// KindFromMIType 根据gdb报告的类型名得到断点类型，认不出来返回KindUnknown
func KindFromMIType(text string) BreakpointKind {
	if kind, ok := miKindNames[text]; ok {
		return kind
	}
	return KindUnknown
}

// Code 持久化使用的单字母类型编码
func (k BreakpointKind) Code() byte {
	switch k {
	case KindBreak:
		return 'b'
	case KindHardware:
		return 'h'
	case KindTrace:
		return 't'
	case KindFastTrace:
		return 'f'
	case KindWatch:
		return 'w'
	case KindAccess:
		return 'a'
	case KindRead:
		return 'r'
	case KindCatch:
		return 'c'
	}
	return '?'
}

// KindFromCode Code的反向映射
func KindFromCode(code byte) (BreakpointKind, bool) {
	switch code {
	case 'b':
		return KindBreak, true
	case 'h':
		return KindHardware, true
	case 't':
		return KindTrace, true
	case 'f':
		return KindFastTrace, true
	case 'w':
		return KindWatch, true
	case 'a':
		return KindAccess, true
	case 'r':
		return KindRead, true
	case 'c':
		return KindCatch, true
	}
	return KindUnknown, false
}

func (k BreakpointKind) String() string {
	switch k {
	case KindBreak:
		return "break"
	case KindHardware:
		return "hbreak"
	case KindTrace:
		return "trace"
	case KindFastTrace:
		return "ftrace"
	case KindWatch:
		return "watch"
	case KindAccess:
		return "access"
	case KindRead:
		return "read"
	case KindCatch:
		return "catch"
	}
	return "??"
}

// IsBreak 普通断点（break/hbreak），插入命令自带ignore计数
func (k BreakpointKind) IsBreak() bool {
	return k == KindBreak || k == KindHardware
}

// IsTrace 追踪点（trace/ftrace），ignore列的语义是passcount
func (k BreakpointKind) IsTrace() bool {
	return k == KindTrace || k == KindFastTrace
}

// IsHardware 需要-h标志的硬件断点类型
func (k BreakpointKind) IsHardware() bool {
	return k == KindHardware || k == KindFastTrace
}

// IsBreakOrTrace 用-break-insert创建的四种类型
func (k BreakpointKind) IsBreakOrTrace() bool {
	return k.IsBreak() || k.IsTrace()
}

// IsWatch 观察点类型，用-break-watch创建
func (k BreakpointKind) IsWatch() bool {
	return k == KindWatch || k == KindAccess || k == KindRead
}

// IsKnown 位置信息足以重建apply命令的类型，只有这些能持久化
func (k BreakpointKind) IsKnown() bool {
	switch k {
	case KindBreak, KindTrace, KindFastTrace, KindWatch, KindAccess, KindRead:
		return true
	}
	return false
}

// AccessFlag 观察点的访问模式标志（-a读写，-r只读），普通watch没有标志
func (k BreakpointKind) AccessFlag() (byte, bool) {
	switch k {
	case KindAccess:
		return 'a', true
	case KindRead:
		return 'r', true
	}
	return 0, false
}

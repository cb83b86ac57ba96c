package protocol

import "github.com/fansqz/gdb-frontend/constants"

// StartDebugRequest 启动调试请求
type StartDebugRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint `json:"sequence"`
	// Target 被调程序路径
	Target string `json:"target"`
	// Args 附加的gdb参数
	Args []string `json:"args"`
}

// TerminateRequest 关闭调试
type TerminateRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint `json:"sequence"`
}

// ExecRequest 执行控制
type ExecRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint               `json:"sequence"`
	Command  constants.ExecType `json:"command"`
}

// SendToConsoleRequest 输入到被调程序控制台
type SendToConsoleRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint   `json:"sequence"`
	Content  string `json:"content"`
}

// ToggleBreakpointRequest 在file:line上切换断点
type ToggleBreakpointRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint   `json:"sequence"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// EnableBreakpointRequest 切换断点启停
type EnableBreakpointRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint `json:"sequence"`
	// Scid 断点的本地序号
	Scid int `json:"scid"`
}

// EditBreakpointRequest 编辑断点列：0忽略次数，1条件，2脚本
type EditBreakpointRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint   `json:"sequence"`
	Scid     int    `json:"scid"`
	Column   int    `json:"column"`
	Text     string `json:"text"`
}

// DeleteBreakpointRequest 删除断点
type DeleteBreakpointRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint `json:"sequence"`
	Scid     int  `json:"scid"`
}

// ApplyBreakpointRequest 在gdb上重建断点，WithThread时限定到当前线程
type ApplyBreakpointRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence   uint `json:"sequence"`
	Scid       int  `json:"scid"`
	WithThread bool `json:"withThread"`
}

// RefreshRequest 主动刷新断点或者线程列表，类型区分
type RefreshRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint `json:"sequence"`
}

// SelectThreadRequest 选中线程，空串表示取消选中
type SelectThreadRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint   `json:"sequence"`
	ThreadID string `json:"threadId"`
}

// SignalThreadRequest 给选中线程所在进程发信号
type SignalThreadRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint `json:"sequence"`
	Signal   int  `json:"signal"`
}

// FileOpenedRequest 编辑器打开了文件，要求补画标记
type FileOpenedRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint   `json:"sequence"`
	File     string `json:"file"`
}

// FileDeltaRequest 编辑器在start行（0开始）插入或者删除了delta行
type FileDeltaRequest struct {
	Type constants.RequestType `json:"type"`
	// 请求序列号
	Sequence uint   `json:"sequence"`
	File     string `json:"file"`
	Start    int    `json:"start"`
	Delta    int    `json:"delta"`
	// Active 文件当前在编辑器里打开着（标记由编辑器自己维护）
	Active bool `json:"active"`
}

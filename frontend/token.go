package frontend

import (
	"strconv"
	"strings"
)

// 相关令牌编码。发出去的令牌是一串数字：第一个字符是路由标记，
// 剩下的是处理负载。路由器分发时剥掉标记，引擎只看负载。
//
// 断点插入响应（^done,bkpt/wpt/...）的负载：
//   没有令牌    -> Persist：用户手敲的插入，落为持久行
//   空负载      -> Discard：只为副作用解析，不碰持久集合
//   "0"         -> Goto：临时断点打到了，继续执行
//   序号        -> Apply：合并进Scid等于该序号的已有行
//
// 普通^done（标记'2'）的负载：
//   '0'/'1'+序号 -> 禁用/启用确认
//   '2'+编号     -> 需要补发-break-info查详情
//   '3'+编号     -> 删除确认，清掉编号及其子行
//
// 这张映射必须精确：路由错了要么出重复行，要么丢更新。

const (
	// markNeutral 仅靠消息前缀路由的命令
	markNeutral = "0"
	// markBreakDone 断点操作的普通^done确认
	markBreakDone = "2"
	// markFrame 栈帧查询响应
	markFrame = "4"
	// markBreakFeatures markTargetFeatures 两种-list-features响应
	markBreakFeatures  = "5"
	markTargetFeatures = "7"
	// markThreadFollow 要求跟随选中的线程信息响应
	markThreadFollow = "6"
)

// BreakStage 一次断点解析过程中每行所处的阶段
type BreakStage int

const (
	// StagePersist 创建持久行（可能自动应用）
	StagePersist BreakStage = iota
	// StageDiscard 刷新路径，不产生命令
	StageDiscard
	// StageApply 把响应字段合并进先前本地插入命令创建的行
	StageApply
	// StageGoto 临时断点触发后的续段，继续执行
	StageGoto
	// StageNext 同一条消息里行与行之间的稳态
	StageNext
)

// DoneOp 普通^done确认的操作种类
type DoneOp int

const (
	DoneInvalid DoneOp = iota
	DoneDisable
	DoneEnable
	DoneInfo
	DoneDelete
)

// insertStage 根据插入响应的令牌负载决定处理阶段
// Apply阶段返回目标行的本地序号
func insertStage(payload string, present bool) (BreakStage, int) {
	if !present {
		return StagePersist, 0
	}
	if payload == "" {
		return StageDiscard, 0
	}
	if payload[0] == '0' {
		return StageGoto, 0
	}
	scid, err := strconv.Atoi(payload)
	if err != nil {
		return StageDiscard, 0
	}
	return StageApply, scid
}

// parseDone 拆开普通^done确认的负载
func parseDone(payload string) (DoneOp, string) {
	if payload == "" {
		return DoneInvalid, ""
	}
	rest := payload[1:]
	switch payload[0] {
	case '0':
		return DoneDisable, rest
	case '1':
		return DoneEnable, rest
	case '2':
		return DoneInfo, rest
	case '3':
		return DoneDelete, rest
	}
	return DoneInvalid, payload
}

// tokenApply 插入命令的apply令牌
func tokenApply(scid int) string {
	return markNeutral + strconv.Itoa(scid)
}

// tokenDiscard 只解析副作用的令牌（也用于要求全量刷新的-break-list）
func tokenDiscard() string {
	return markNeutral
}

// tokenEnable 启停确认令牌
func tokenEnable(enable bool, scid int) string {
	b := "0"
	if enable {
		b = "1"
	}
	return markBreakDone + b + strconv.Itoa(scid)
}

func tokenInfo(id string) string {
	return markBreakDone + "2" + id
}

func tokenDelete(id string) string {
	return markBreakDone + "3" + id
}

func tokenFrame(tid string) string {
	return markFrame + tid
}

// splitToken 判断一行输出是不是以令牌开头，返回令牌和剩余部分
func splitToken(line string) (token, rest string, present bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i == len(line) {
		return "", line, false
	}
	if !strings.ContainsRune("^*=+~@&", rune(line[i])) {
		return "", line, false
	}
	return line[:i], line[i:], true
}

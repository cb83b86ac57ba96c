// Package mi 解析gdb/MI输出记录，生成结构化的节点树
// 一条消息是一组带名字或者不带名字的节点，节点的值要么是字符串，要么是嵌套的节点列表
package mi

import (
	"fmt"
	"strconv"
	"strings"
)

type NodeType int

const (
	// TypeValue 标量节点，Value有效
	TypeValue NodeType = iota
	// TypeList 嵌套节点，List有效（对应MI的tuple和list，两者不做区分）
	TypeList
)

// Node 协议节点
// 同一层允许重名，按名字查找永远返回第一个匹配
type Node struct {
	Name  string
	Type  NodeType
	Value string
	List  []*Node
}

// TokenNode 路由器在消息末尾追加的相关令牌节点的名字
// MI字段名不可能以'='开头，所以不会冲突
const TokenNode = "=token"

// Parse 解析一条MI记录中类别前缀之后的部分，输入以','开头
// 例如"^done,bkpt={...}"传入",bkpt={...}"
// newline不为0时把字符串里的\n、\t转义还原成对应字符（错误消息需要）
// 解析出错时返回已经解析出的节点加错误，调用方记录错误后照常分发，
// 只丢掉出错的子树，不丢整条消息
func Parse(text string, newline byte) ([]*Node, error) {
	p := &parser{text: text, newline: newline}
	nodes, err := p.parseList(0)
	return nodes, err
}

type parser struct {
	text    string
	pos     int
	newline byte
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("parse: %s at %d", fmt.Sprintf(format, args...), p.pos)
}

// parseList 解析","开头的节点序列，直到end字符（0表示到串尾）
func (p *parser) parseList(end byte) ([]*Node, error) {
	var nodes []*Node

	for {
		p.pos++ // 跳过','（首次也是，调用约定输入以逗号开头）
		node := &Node{}

		if p.pos < len(p.text) && (isAlpha(p.text[p.pos]) || p.text[p.pos] == '_') {
			start := p.pos
			for p.pos < len(p.text) && isNameChar(p.text[p.pos]) {
				p.pos++
			}
			if p.pos >= len(p.text) || p.text[p.pos] != '=' {
				return nodes, p.errorf("= expected")
			}
			node.Name = p.text[start:p.pos]
			p.pos++
		}

		if p.pos < len(p.text) && p.text[p.pos] == '"' {
			node.Type = TypeValue
			value, err := p.parseString()
			if err != nil {
				return nodes, err
			}
			node.Value = value
		} else if p.pos < len(p.text) && (p.text[p.pos] == '{' || p.text[p.pos] == '[') {
			closer := byte('}')
			if p.text[p.pos] == '[' {
				closer = ']'
			}
			node.Type = TypeList
			if p.pos+1 < len(p.text) && p.text[p.pos+1] == closer {
				p.pos += 2
			} else {
				list, err := p.parseList(closer)
				node.List = list
				if err != nil {
					nodes = append(nodes, node)
					return nodes, err
				}
			}
		} else {
			return nodes, p.errorf(`" { or [ expected`)
		}

		// gdb会在顶层夹带time=...计时信息，不属于消息内容
		if end != 0 || node.Type == TypeValue || node.Name != "time" {
			nodes = append(nodes, node)
		}

		if p.pos >= len(p.text) || p.text[p.pos] != ',' {
			break
		}
	}

	if end == 0 {
		if p.pos < len(p.text) {
			return nodes, p.errorf(", or end expected")
		}
		return nodes, nil
	}
	if p.pos < len(p.text) && p.text[p.pos] == end {
		p.pos++
		return nodes, nil
	}
	return nodes, p.errorf(", or %c expected", end)
}

// parseString 解析双引号字符串，处理\"和\\转义
// 其余转义保留原样，除非newline模式要求还原\n和\t
func (p *parser) parseString() (string, error) {
	var b strings.Builder
	p.pos++ // 开引号

	for p.pos < len(p.text) {
		c := p.text[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' && p.pos+1 < len(p.text) {
			switch p.text[p.pos+1] {
			case '\\', '"':
				b.WriteByte(p.text[p.pos+1])
				p.pos += 2
				continue
			case 'n':
				if p.newline != 0 {
					b.WriteByte(p.newline)
					p.pos += 2
					continue
				}
			case 't':
				if p.newline != 0 {
					b.WriteByte('\t')
					p.pos += 2
					continue
				}
			}
		}
		b.WriteByte(c)
		p.pos++
	}
	return b.String(), p.errorf(`" expected`)
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isAlpha(c) || c >= '0' && c <= '9' || c == '_' || c == '.' || c == '-'
}

// FindNode 按名字查找节点，返回第一个匹配，找不到返回nil
func FindNode(nodes []*Node, name string) *Node {
	for _, node := range nodes {
		if node.Name == name {
			return node
		}
	}
	return nil
}

// FindValue 按名字查找标量值
// 字段缺失不是错误，返回空串；类型不对也返回空串，由调用方决定是否上报
func FindValue(nodes []*Node, name string) string {
	node := FindNode(nodes, name)
	if node == nil || node.Type != TypeValue {
		return ""
	}
	return node.Value
}

// FindArray 按名字查找嵌套节点列表
func FindArray(nodes []*Node, name string) []*Node {
	node := FindNode(nodes, name)
	if node == nil || node.Type != TypeList {
		return nil
	}
	return node.List
}

// LeadValue 消息的首节点标量值，MI的很多通知把操作对象放在第一个位置
func LeadValue(nodes []*Node) string {
	if len(nodes) > 0 && nodes[0].Type == TypeValue {
		return nodes[0].Value
	}
	return ""
}

// LeadArray 消息的首节点列表值
func LeadArray(nodes []*Node) []*Node {
	if len(nodes) > 0 && nodes[0].Type == TypeList {
		return nodes[0].List
	}
	return nil
}

// GrabToken 取出路由器追加的令牌节点
// present区分"没有令牌"和"令牌为空串"，两者的处理路径不同
func GrabToken(nodes []*Node) (token string, rest []*Node, present bool) {
	for i, node := range nodes {
		if node.Name == TokenNode {
			return node.Value, append(nodes[:i:i], nodes[i+1:]...), true
		}
	}
	return "", nodes, false
}

// Atoi0 宽容的整数解析，解析不了返回0
func Atoi0(text string) int {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}

package mi

import "path/filepath"

// Location 从一个节点子树里解析出来的源码位置
type Location struct {
	File     string // 绝对路径，不可靠时为空
	BaseName string // 展示用的文件名
	Func     string
	Addr     string
	Line     int // 1开始，没有可靠的文件或行号时为0
}

// ParseLocation 从节点列表里提取位置信息
// fullname是绝对路径才采信，file字段只用来显示
// 行号为负或者没有可用文件时归零，调用方据此判断位置是否可标记
func ParseLocation(nodes []*Node) Location {
	loc := Location{
		BaseName: FindValue(nodes, "file"),
		Func:     FindValue(nodes, "func"),
		Addr:     FindValue(nodes, "addr"),
		File:     FindValue(nodes, "fullname"),
		Line:     Atoi0(FindValue(nodes, "line")),
	}

	if loc.File != "" {
		if loc.BaseName == "" {
			loc.BaseName = filepath.Base(loc.File)
		}
		if !filepath.IsAbs(loc.File) {
			loc.File = ""
		}
	}

	if loc.File == "" || loc.Line < 0 {
		loc.Line = 0
	}
	return loc
}

// SplitLocation 拆开"file:line"形式的定位串
// 只认绝对路径，防止把"func:label"误拆；Windows盘符后的':'也会被跳过
func SplitLocation(location string) (file string, line int, ok bool) {
	if !filepath.IsAbs(location) {
		return "", 0, false
	}
	for i := len(location) - 1; i > 0; i-- {
		if location[i] == ':' {
			if i+1 < len(location) && location[i+1] != ':' && isDigit(location[i+1]) {
				return location[:i], Atoi0(location[i+1:]), true
			}
			return location[:i], 0, true
		}
	}
	return "", 0, false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

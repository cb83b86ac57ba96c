// Package terminal 把被调程序的pty接到本地终端，实现独立程序控制台
package terminal

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Console 程序控制台
// 显示时把本地终端切到raw模式双向拷贝，隐藏时恢复
type Console struct {
	mu sync.Mutex

	ptmx    *os.File
	visible bool
	oldTerm *term.State
	stop    chan struct{}
}

func New() *Console {
	return &Console{}
}

// Attach 绑定被调程序终端的主设备端，会话启动时调用
func (c *Console) Attach(ptmx *os.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
	c.ptmx = ptmx
}

// Clear 清掉控制台内容
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visible {
		os.Stdout.WriteString("\033[H\033[2J")
	}
}

// Standalone 显示或者隐藏控制台
func (c *Console) Standalone(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if show == c.visible {
		return
	}
	if !show {
		c.detachLocked()
		return
	}
	if c.ptmx == nil {
		return
	}

	old, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		logrus.Errorf("terminal raw mode fail, err = %v", err)
		return
	}
	c.oldTerm = old
	c.visible = true
	c.stop = make(chan struct{})

	go c.pump(c.ptmx, os.Stdout, c.stop)
	go c.pump(os.Stdin, c.ptmx, c.stop)
}

func (c *Console) pump(src io.Reader, dst io.Writer, stop chan struct{}) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := src.Read(buf)
		if n > 0 {
			dst.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (c *Console) detachLocked() {
	if !c.visible {
		return
	}
	close(c.stop)
	c.visible = false
	if c.oldTerm != nil {
		term.Restore(int(os.Stdin.Fd()), c.oldTerm)
		c.oldTerm = nil
	}
}

// Close 会话结束，恢复终端
func (c *Console) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
	c.ptmx = nil
}

// Package gdb 管理gdb进程：启动、按行读MI输出、写命令、打断和退出
// 被调程序的输入输出走单独的pty，不跟MI流混在一起
package gdb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/sirupsen/logrus"
)

// GDB 一个gdb进程的传输层
type GDB struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	// ptmx tty 被调程序的终端对，gdb拿tty，控制台拿ptmx
	ptmx *os.File
	tty  *os.File

	// OnRecord 每行MI记录回调（^*=开头，已去掉行尾换行）
	OnRecord func(line string)
	// OnConsole 流输出回调（~/@/&的内容，已去引号）
	OnConsole func(text string)
	// OnExit 进程退出回调
	OnExit func(err error)

	done chan struct{}
}

// Option 启动参数
type Option struct {
	// Path gdb可执行文件，空则用PATH里的gdb
	Path string
	// Target 被调程序
	Target string
	// Args 附加的gdb参数
	Args []string
}

// Start 启动gdb，读循环在单独的goroutine里跑，
// 每行输出通过回调交出去，回调方负责自己的并发安全
func Start(option *Option) (*GDB, error) {
	path := option.Path
	if path == "" {
		path = "gdb"
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("pty open fail: %w", err)
	}

	args := []string{"--interpreter=mi2", "--tty=" + tty.Name()}
	args = append(args, option.Args...)
	if option.Target != "" {
		args = append(args, option.Target)
	}

	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		ptmx.Close()
		tty.Close()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		ptmx.Close()
		tty.Close()
		return nil, err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		tty.Close()
		return nil, fmt.Errorf("start gdb fail: %w", err)
	}

	g := &GDB{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		ptmx:   ptmx,
		tty:    tty,
		done:   make(chan struct{}),
	}
	go g.readLoop()
	return g, nil
}

// Console 被调程序终端的主设备端
func (g *GDB) Console() *os.File {
	return g.ptmx
}

// Pid gdb进程号
func (g *GDB) Pid() int {
	return g.cmd.Process.Pid
}

func (g *GDB) readLoop() {
	scanner := bufio.NewScanner(g.stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || line == "(gdb)" || line == "(gdb) " {
			continue
		}

		switch line[0] {
		case '~', '@', '&':
			if g.OnConsole != nil {
				g.OnConsole(unquote(line[1:]))
			}
		default:
			if g.OnRecord != nil {
				g.OnRecord(line)
			}
		}
	}

	err := g.cmd.Wait()
	g.ptmx.Close()
	g.tty.Close()
	close(g.done)
	if g.OnExit != nil {
		g.OnExit(err)
	}
}

// unquote 去掉流输出的外层引号并还原转义
func unquote(text string) string {
	if len(text) < 2 || text[0] != '"' {
		return text
	}
	text = text[1 : len(text)-1]

	var b strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			i++
			switch text[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(text[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Send 发送一行MI命令（不带换行）
func (g *GDB) Send(line string) error {
	_, err := io.WriteString(g.stdin, line+"\n")
	if err != nil {
		logrus.Errorf("gdb send fail, err = %v", err)
	}
	return err
}

// Interrupt 打断正在运行的目标，等价于控制台上按Ctrl-C
func (g *GDB) Interrupt() error {
	return g.cmd.Process.Signal(syscall.SIGINT)
}

// Exit 让gdb退出，超时后强杀
func (g *GDB) Exit() {
	_ = g.Send("-gdb-exit")

	select {
	case <-g.done:
	case <-time.After(3 * time.Second):
		logrus.Warn("gdb exit timeout, killing")
		_ = g.cmd.Process.Kill()
		<-g.done
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/fansqz/gdb-frontend/config"
	"github.com/fansqz/gdb-frontend/ws"
)

// 定义版本号
const Version = "1.0.0"

func main() {
	showVersion := flag.Bool("version", false, "Show the version number")
	configPath := flag.String("config", "gdb-frontend.yaml", "Config file path")
	listen := flag.String("listen", "", "Listen address, overrides config")
	gdbPath := flag.String("gdb", "", "Gdb binary path, overrides config")
	flag.Parse()

	// 检查是否需要显示版本信息
	if *showVersion {
		fmt.Printf("Version: %s\n", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("load config fail, err = %v\n", err)
		return
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *gdbPath != "" {
		cfg.GdbPath = *gdbPath
	}

	// 启动日志
	SetupLogger(cfg.LogPath)
	defer CloseLogger()

	ctx := context.Background()
	hub := ws.NewHub()
	go hub.Run(ctx)

	// 会话和引擎循环整个进程只有一份，连接可以来来去去
	session := NewDebugSession(cfg, hub)
	go session.Run()

	handler := NewDebuggerHandler(session)
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.Serve(hub, w, r, handler.Handle)
	})

	logrus.Infof("started listening at: %s", cfg.Listen)
	fmt.Printf("started listening at: %s\n", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, nil); err != nil {
		logrus.Errorf("listen fail, err = %v", err)
	}
}

package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logFile *os.File

// SetupLogger 日志写到配置指定的文件，打不开就退回标准错误
func SetupLogger(logPath string) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if logPath == "" {
		return
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logrus.Warnf("open log file fail, err = %v", err)
		return
	}
	logFile = file
	logrus.SetOutput(logFile)
}

func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmoreram/go-tftpd/internal/config"
	"github.com/mmoreram/go-tftpd/pkg/server"
)

var (
	tftpAddr      = config.GetEnv[string]("TFTP_ADDR", "[::]:69", false)
	logLevel      = config.GetEnv[string]("LOG_LEVEL", "debug", false)
	readTimeout   = config.GetEnv[uint]("READ_TIMEOUT", "5", false)
	maxConcurrent = config.GetEnv[uint]("MAX_CONCURRENT_SESSIONS", "64", false)
	tftpBaseDir   = config.GetEnv[string]("TFTP_BASE_DIR", config.UserHomeDirPath(), false)
)

func main() {
	l := config.NewLogger(logLevel)
	s := server.NewServer(l, tftpAddr, tftpBaseDir,
		time.Duration(readTimeout)*time.Second, int(maxConcurrent))

	go func() {
		if err := s.ListenAndServe(); err != nil {
			l.Error(err.Error())
		}
	}()

	l.Info(fmt.Sprintf("listening on %s, serving %s", tftpAddr, tftpBaseDir))

	defer func() {
		if err := s.Close(); err != nil {
			l.Error(err.Error())
		}

		l.Info("closed connection")
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan
}

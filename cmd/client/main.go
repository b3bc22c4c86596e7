package main

import (
	"github.com/mmoreram/go-tftpd/internal/config"
	"github.com/mmoreram/go-tftpd/pkg/client"
)

var logLevel = config.GetEnv[string]("TFTP_LOG_LEVEL", "info", false)

func main() {
	l := config.NewLogger(logLevel)
	c := client.NewClient(l)
	cli := client.NewCli(l, c)

	cli.Read()
}

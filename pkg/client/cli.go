package client

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// Cli drives a line-oriented REPL against a Connector.
type Cli struct {
	logger     *zap.SugaredLogger
	tftpClient Connector
}

// NewCli builds a Cli around an already-constructed Connector.
func NewCli(logger *zap.SugaredLogger, tftpClient Connector) *Cli {
	return &Cli{logger: logger, tftpClient: tftpClient}
}

// Read runs the REPL against os.Stdin until "quit", EOF, or SIGINT/SIGTERM,
// mirroring the signal-driven shutdown cmd/server uses around its listener.
// A transfer already in flight when the signal arrives still runs to
// completion or failure; only the prompt loop itself is cut short, since
// pkg/tftp's windowed loops take a Socket, not a context, and do not expose
// a mid-round cancellation point.
func (c *Cli) Read() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	evaluator := NewEvaluator(c.logger, c.tftpClient)

	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}

		if err := scanner.Err(); err != nil {
			c.logger.Errorw("error reading stdin", "err", err)
		}
	}()

	fmt.Print("tftp> ")

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\ninterrupted")
			return

		case line, ok := <-lines:
			if !ok {
				return
			}

			evaluator.line = line

			done, err := evaluator.evaluate()
			if err != nil {
				fmt.Printf("%s\n", err.Error())
			}

			if done {
				return
			}

			fmt.Print("tftp> ")
		}
	}
}

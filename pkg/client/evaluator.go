package client

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	getRegex        = `^get\s+(\S+)$`
	putRegex        = `^put\s+(\S+)$`
	timeoutRegex    = `^timeout\s+(\d+)$`
	blksizeRegex    = `^blksize\s+(\d+)$`
	windowsizeRegex = `^windowsize\s+(\d+)$`
	connectRegex    = `^connect\s+(\S+)\s+(\S+)$`
	traceRegex      = `^trace$`
	quitRegex       = `^quit$`
	helpRegex       = `^help$`
)

// Evaluator turns one line of REPL input into a Connector call.
type Evaluator struct {
	logger        *zap.SugaredLogger
	client        Connector
	line          string
	trace         bool
	regexPatterns map[string]*regexp.Regexp
}

// NewEvaluator builds an Evaluator driving client.
func NewEvaluator(logger *zap.SugaredLogger, client Connector) *Evaluator {
	e := &Evaluator{
		logger: logger,
		client: client,
	}

	e.regexPatterns = map[string]*regexp.Regexp{
		"get":        regexp.MustCompile(getRegex),
		"put":        regexp.MustCompile(putRegex),
		"timeout":    regexp.MustCompile(timeoutRegex),
		"blksize":    regexp.MustCompile(blksizeRegex),
		"windowsize": regexp.MustCompile(windowsizeRegex),
		"connect":    regexp.MustCompile(connectRegex),
		"trace":      regexp.MustCompile(traceRegex),
		"quit":       regexp.MustCompile(quitRegex),
		"help":       regexp.MustCompile(helpRegex),
	}

	return e
}

func (e *Evaluator) evaluate() (bool, error) {
	e.line = strings.TrimSuffix(e.line, "\n")

	if matches := e.regexPatterns["get"].FindStringSubmatch(e.line); len(matches) == 2 {
		return false, e.client.Get(matches[1])
	}

	if matches := e.regexPatterns["put"].FindStringSubmatch(e.line); len(matches) == 2 {
		return false, e.client.Put(matches[1])
	}

	if matches := e.regexPatterns["timeout"].FindStringSubmatch(e.line); len(matches) == 2 {
		n, err := strconv.ParseUint(matches[1], 10, 32)
		if err != nil {
			return false, fmt.Errorf("timeout value can not be parsed: %w", err)
		}

		e.client.SetTimeout(uint(n))

		return false, nil
	}

	if matches := e.regexPatterns["blksize"].FindStringSubmatch(e.line); len(matches) == 2 {
		n, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return false, fmt.Errorf("blksize value can not be parsed: %w", err)
		}

		e.client.SetBlockSize(n)

		return false, nil
	}

	if matches := e.regexPatterns["windowsize"].FindStringSubmatch(e.line); len(matches) == 2 {
		n, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return false, fmt.Errorf("windowsize value can not be parsed: %w", err)
		}

		e.client.SetWindowSize(n)

		return false, nil
	}

	if matches := e.regexPatterns["connect"].FindStringSubmatch(e.line); len(matches) == 3 {
		return false, e.client.Connect(fmt.Sprintf("%s:%s", matches[1], matches[2]))
	}

	if matches := e.regexPatterns["trace"].FindStringSubmatch(e.line); len(matches) == 1 {
		e.trace = !e.trace
		e.client.SetTrace(e.trace)

		return false, nil
	}

	if matches := e.regexPatterns["help"].FindStringSubmatch(e.line); len(matches) == 1 {
		fmt.Println(`Commands:
	connect <host> <port>
	get <file>
	put <file>
	timeout <seconds>
	blksize <8-65464>
	windowsize <1-65535>
	trace
	quit`)

		return false, nil
	}

	if matches := e.regexPatterns["quit"].FindStringSubmatch(e.line); len(matches) == 1 {
		return true, nil
	}

	return false, fmt.Errorf("unknown command or arguments: %s", e.line)
}

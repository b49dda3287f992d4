package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/lk2023060901/structclone-go/internal/cli"
	"github.com/lk2023060901/structclone-go/pkg/log"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// 退出码：输入数据或参数错误返回 2，其余失败返回 1。
const (
	exitFailure    = 1
	exitInputError = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	undo, err := maxprocs.Set(maxprocs.Logger(log.S().Debugf))
	defer undo()
	if err != nil {
		log.S().Warnf("failed to set GOMAXPROCS: %v", err)
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if merr.GetErrorType(err) == merr.InputError {
			return exitInputError
		}
		return exitFailure
	}
	return 0
}

// Command cronkit 运行以配置文件定义的定时 shell 任务，并提供表达式检查工具.
package main

import (
	"fmt"
	"os"
)

// version 构建时通过 -ldflags "-X main.version=..." 注入.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command newspulse はニュース配信APIとバックグラウンドワーカーを起動する。
//
// 使い方:
//
//	newspulse [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/newspulse/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "newspulse: %v\n", err)
		os.Exit(1)
	}
}

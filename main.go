package main

import (
	"context"
	"os"
	"syscall"

	"github.com/TIANLI0/CutoutKit/cmd"
	"github.com/TIANLI0/CutoutKit/model"
	"github.com/charmbracelet/fang"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	BuildID   = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

func main() {
	root := cmd.NewRootCmd(model.VersionResponse{
		Version:   Version,
		BuildTime: BuildTime,
		BuildID:   BuildID,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
	})

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

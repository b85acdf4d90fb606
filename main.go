package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/waveseek/cmd/info"
	"github.com/gigurra/waveseek/cmd/play"
	"github.com/spf13/cobra"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "waveseek",
		Short:   "Terminal audio player with a waveform seek bar",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			play.Cmd(),
			info.Cmd(),
		},
	}.Run()
}

func appVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "dev"
}

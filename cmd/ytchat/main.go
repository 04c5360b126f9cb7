package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "ytchat",
		Short: "Ask questions about a YouTube video's transcript",
	}
	root.AddCommand(askCMD(), transcriptCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

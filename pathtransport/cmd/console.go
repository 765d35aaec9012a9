// Copyright © 2017 Johnny Morrice <john@functorama.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/johnny-morrice/pathtransport/cli"
	"github.com/johnny-morrice/pathtransport/log"
)

var historyFilePath string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive console",
	Long:  `Run commands against the transport at a prompt.  Type help for the command list.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		transport := openTransport()
		reported := reportErrors(transport)

		options := cli.TerminalOptions{
			Transport: transport,
			Output:    os.Stdout,
		}

		historyFile := openConsoleHistory()

		if historyFile != nil {
			defer historyFile.Close()
			options.History = historyFile
		}

		err := cli.RunTerminalConsole(options)

		if err != nil {
			die(err)
		}

		closeTransport(transport, reported)
	},
}

func openConsoleHistory() *os.File {
	if historyFilePath == "" {
		return nil
	}

	historyFile, err := openOrCreate(historyFilePath)

	if err != nil {
		log.Error("Failed to open console history: %v", err)
		return nil
	}

	return historyFile
}

func init() {
	RootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().StringVar(&historyFilePath, "history", homePath(".pathtransport_history"), "Console history file.  Empty disables history.")
}

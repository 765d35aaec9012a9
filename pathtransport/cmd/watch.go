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

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/cli"
	"github.com/johnny-morrice/pathtransport/log"
)

var watchCmd = &cobra.Command{
	Use:   "watch [ID [BAND]]",
	Short: "Print changes to existing things",
	Long: `Print a record for every change to things that already exist.  Narrow the watch
to one thing with ID, or to one band with ID and BAND.  Runs until interrupted.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		scope := api.Scope{}
		if len(args) > 0 {
			scope.ID = args[0]
		}

		if len(args) > 1 {
			scope.Band = args[1]
		}

		transport := openTransport()
		reported := reportErrors(transport)

		sub, err := transport.Updated(scope, func(record api.Record) {
			err := cli.PrintRecord(os.Stdout, record)

			if err != nil {
				log.Error("Failed to print record: %v", err)
			}
		})

		if err != nil {
			die(err)
		}

		waitForInterrupt()
		sub.Close()
		closeTransport(transport, reported)
	},
}

func init() {
	RootCmd.AddCommand(watchCmd)
}

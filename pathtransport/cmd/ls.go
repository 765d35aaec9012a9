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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnny-morrice/pathtransport/api"
)

var follow bool
var settle time.Duration

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List thing ids",
	Long: `Print the id of every thing under the prefix.  Without --follow, ls exits once
no new id has arrived for the settle time.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		transport := openTransport()
		reported := reportErrors(transport)

		ids := make(chan string, __LIST_BUFFER_SIZE)
		stopch := make(chan struct{})
		sub, err := transport.List(func(item api.ListItem) {
			select {
			case ids <- item.ID:
			case <-stopch:
			}
		})

		if err != nil {
			die(err)
		}

		if follow {
			go func() {
				for id := range ids {
					fmt.Println(id)
				}
			}()

			waitForInterrupt()
		} else {
			printUntilSettled(os.Stdout, ids, settle)
		}

		close(stopch)
		sub.Close()
		closeTransport(transport, reported)
	},
}

func printUntilSettled(w io.Writer, ids <-chan string, settle time.Duration) {
	timer := time.NewTimer(settle)
	defer timer.Stop()

	for {
		select {
		case id := <-ids:
			fmt.Fprintln(w, id)
			timer.Reset(settle)
		case <-timer.C:
			return
		}
	}
}

const __LIST_BUFFER_SIZE = 256

func init() {
	RootCmd.AddCommand(lsCmd)

	lsCmd.Flags().BoolVar(&follow, "follow", false, "Keep printing ids as things are added")
	lsCmd.Flags().DurationVar(&settle, "settle", time.Millisecond*200, "Quiet time before ls exits")
}

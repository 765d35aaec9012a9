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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnny-morrice/pathtransport/api"
)

var getCmd = &cobra.Command{
	Use:   "get ID BAND",
	Short: "Print one band of a thing",
	Long:  `Print the value of a band as JSON.  A missing band prints {}.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if client := remoteClient(); client != nil {
			value, err := client.Get(args[0], args[1])

			if err != nil {
				die(err)
			}

			printValue(value)
			return
		}

		transport := openTransport()
		reported := reportErrors(transport)

		result, err := transport.Get(args[0], args[1])

		if err != nil {
			die(err)
		}

		record := <-result
		printValue(record.Value)
		closeTransport(transport, reported)
	},
}

func printValue(value api.Value) {
	text, err := json.MarshalIndent(value, "", "  ")

	if err != nil {
		die(err)
	}

	fmt.Println(string(text))
}

func init() {
	RootCmd.AddCommand(getCmd)
}

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

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/johnny-morrice/pathtransport/api"
)

var putCmd = &cobra.Command{
	Use:   "put ID BAND JSON",
	Short: "Replace one band of a thing",
	Long:  `Replace a band with a JSON object.  Null fields and empty objects are dropped; {} removes the band.`,
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		value := api.Value{}
		err := json.Unmarshal([]byte(args[2]), &value)

		if err != nil {
			die(errors.Wrap(err, "invalid JSON object"))
		}

		if client := remoteClient(); client != nil {
			err = client.Update(args[0], args[1], value)

			if err != nil {
				die(err)
			}

			return
		}

		transport := openTransport()
		reported := reportErrors(transport)

		err = transport.Update(args[0], args[1], value)

		if err != nil {
			die(err)
		}

		closeTransport(transport, reported)
	},
}

func init() {
	RootCmd.AddCommand(putCmd)
}

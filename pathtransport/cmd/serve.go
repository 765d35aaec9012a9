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
	"github.com/spf13/cobra"

	"github.com/johnny-morrice/pathtransport/http"
	"github.com/johnny-morrice/pathtransport/log"
)

var addr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the transport over HTTP",
	Long: `Serve things over HTTP:

  GET    /things                   ndjson stream of ids
  GET    /things/{id}/{band}       band value
  PUT    /things/{id}/{band}       replace band value
  DELETE /things/{id}[/{band}]     remove band or thing
  GET    /updates[/{id}[/{band}]]  ndjson stream of changes`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		transport := openTransport()
		reported := reportErrors(transport)

		service := http.MakeWebService(http.WebServiceOptions{
			Transport: transport,
		})

		server, err := http.Serve(addr, service.Handler())

		if err != nil {
			die(err)
		}

		log.Info("Serving on %s", server.Addr())

		waitForInterrupt()

		service.Close()
		err = server.Close()

		if err != nil {
			log.Error("Failed to stop server: %v", err)
		}

		closeTransport(transport, reported)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&addr, "address", "localhost:8085", "Listen address for server")
}

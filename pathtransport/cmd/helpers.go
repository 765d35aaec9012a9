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
	"os/signal"
	"path"

	lib "github.com/johnny-morrice/pathtransport"
	"github.com/johnny-morrice/pathtransport/http"
	"github.com/johnny-morrice/pathtransport/log"
)

var serverAddr string

func die(err error) {
	log.Error("%v", err.Error())
	os.Exit(1)
}

func homePath(relativePath string) string {
	home := os.Getenv("HOME")
	return path.Join(home, relativePath)
}

func openOrCreate(filePath string) (*os.File, error) {
	return os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0600)
}

// openTransport connects with the flag and config file options.
func openTransport() *lib.PathTransport {
	transport, err := lib.New(lib.Options{})

	if err != nil {
		die(err)
	}

	return transport
}

// remoteClient is nil unless --server names a running pathtransport serve.
func remoteClient() *http.Client {
	if serverAddr == "" {
		return nil
	}

	client, err := http.MakeClient(http.ClientOptions{ServerAddr: serverAddr})

	if err != nil {
		die(err)
	}

	return client
}

// reportErrors logs asynchronous transport failures until the channel closes.
func reportErrors(transport *lib.PathTransport) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for err := range transport.Errors() {
			log.Error("%v", err)
		}
	}()

	return done
}

// closeTransport closes the transport and waits for its errors to be reported.
func closeTransport(transport *lib.PathTransport, reported <-chan struct{}) {
	err := transport.Close()
	<-reported

	if err != nil {
		die(err)
	}
}

func waitForInterrupt() {
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt)
	sig := <-sigch
	signal.Reset(os.Interrupt)
	log.Warn("Caught signal: %s", sig.String())
}

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
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	lib "github.com/johnny-morrice/pathtransport"
	"github.com/johnny-morrice/pathtransport/log"
	"github.com/johnny-morrice/pathtransport/store"
)

var cfgFile string
var logLevel string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "pathtransport",
	Short: "Move records over a realtime path store",
	Long: `pathtransport reads, writes and watches (id, band, value) records kept under a
path prefix in a hierarchical store.

The store is chosen by the --host URL:

  mem://name                 in-process store, lost on exit
  bolt:///path/to/file.db    BoltDB file
  redis://host:6379/0        Redis, shared between processes`,
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pathtransport.json)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "", "Log level: debug, info, warn, error or nothing")
	RootCmd.PersistentFlags().String("host", "", "Store URL, with scheme "+strings.Join(store.Schemes(), ", "))
	RootCmd.PersistentFlags().String("prefix", lib.DefaultPrefix, "Path prefix of every record")
	RootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "Address of a pathtransport server, as in http://localhost:8085.  Used by get, put and rm instead of the store")

	viper.BindPFlag(lib.HostKey, RootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag(lib.PrefixKey, RootCmd.PersistentFlags().Lookup("prefix"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	err := godotenv.Load()

	if err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to load .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".pathtransport")
		viper.AddConfigPath(homePath(""))
	}

	viper.SetEnvPrefix("pathtransport")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Info("Using config file: %s", viper.ConfigFileUsed())
	}

	if logLevel != "" {
		level, err := log.Parse(logLevel)

		if err != nil {
			die(err)
		}

		log.SetLevel(level)
	}
}

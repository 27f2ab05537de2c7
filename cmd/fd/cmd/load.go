//  Copyright (c) 2017 Couchbase, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 		http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/fielddata"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

var loadSettingsPath string
var loadDoc int
var loadShowMetrics bool

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load [path] [field...]",
	Short: "load builds field data for the given fields",
	Long: `The load command loads the field data of the given fields, or of every
field when none is given, and prints what was built.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := fielddata.LoadSettings(loadSettingsPath)
		if err != nil {
			return err
		}

		fields := args[1:]
		if len(fields) == 0 {
			fields = segment.Fields()
		}
		configs, err := settings.Configs(fields)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		metrics := fielddata.NewMetrics(reg)
		breaker := fielddata.NewBreaker(int64(settings.Breaker.Limit), metrics)
		logger := fielddata.NewLogger(os.Stderr, settings.Logging.Level, settings.Logging.Format)

		loaded, err := fielddata.LoadFields(context.Background(), &segment.SegmentBase,
			configs, breaker,
			fielddata.WithLogger(logger),
			fielddata.WithMetrics(metrics),
			fielddata.WithConcurrency(settings.Concurrency))
		if err != nil {
			return err
		}

		for _, field := range fields {
			fd := loaded[field]
			printFieldData(field, fd)
			_ = fd.Close()
		}
		fmt.Printf("breaker used %d limit %d trips %d\n",
			breaker.Used(), breaker.Limit(), breaker.Trips())

		if loadShowMetrics {
			mfs, err := reg.Gather()
			if err != nil {
				return err
			}
			for _, mf := range mfs {
				_, err = expfmt.MetricFamilyToText(os.Stdout, mf)
				if err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func printFieldData(field string, fd fielddata.GeoPointFieldData) {
	values := fd.Values()
	var withValue, total int
	for doc := 0; doc < fd.MaxDoc(); doc++ {
		values.SetDocument(doc)
		if n := values.Count(); n > 0 {
			withValue++
			total += n
		}
	}
	fmt.Printf("field '%s' shape %s bytes %d docs with value %d values %d\n",
		field, fielddata.ShapeOf(fd), fd.RamBytesUsed(), withValue, total)

	if loadDoc >= 0 && loadDoc < fd.MaxDoc() {
		values.SetDocument(loadDoc)
		for i := 0; i < values.Count(); i++ {
			fmt.Printf("  doc %d value %d: %s\n", loadDoc, i, values.ValueAt(i))
		}
	}
}

func init() {
	RootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVar(&loadSettingsPath, "config", "", "path to a yaml settings file")
	loadCmd.Flags().IntVar(&loadDoc, "doc", -1, "print the values of this document")
	loadCmd.Flags().BoolVar(&loadShowMetrics, "metrics", false, "print the collected metrics")
}

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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/fielddata"
	"github.com/spf13/cobra"
)

var buildFormat string
var buildCompress bool
var buildNumDocs uint64

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [out] [csv]",
	Short: "build writes a segment from doc,field,lat,lon rows",
	Long: `The build command reads doc,field,lat,lon rows from a csv file and
writes a segment indexing every point. Lines starting with # are ignored.`,
	// build creates the file the other commands open
	PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return nil },
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return fmt.Errorf("must specify output path and csv file")
		}
		format, err := fielddata.ParsePointFormat(buildFormat)
		if err != nil {
			return err
		}

		in, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer in.Close()

		b := fielddata.NewSegmentBuilder(fielddata.CompressPostings(buildCompress))
		err = addRows(b, csv.NewReader(in), format)
		if err != nil {
			return err
		}
		if buildNumDocs > 0 {
			err = b.SetNumDocs(buildNumDocs)
			if err != nil {
				return err
			}
		}

		sb, err := b.Build()
		if err != nil {
			return err
		}
		err = fielddata.PersistSegmentBase(sb, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s: %d docs, fields %v\n", args[0], sb.NumDocs(), sb.Fields())
		return nil
	},
}

func addRows(b *fielddata.SegmentBuilder, r *csv.Reader, format fielddata.PointFormat) error {
	r.Comment = '#'
	r.FieldsPerRecord = 4
	r.TrimLeadingSpace = true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line, _ := r.FieldPos(0)
		doc, err := strconv.ParseUint(rec[0], 10, 32)
		if err != nil {
			return fmt.Errorf("line %d: invalid doc %q", line, rec[0])
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid latitude %q", line, rec[2])
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid longitude %q", line, rec[3])
		}
		err = b.AddPoint(rec[1], uint32(doc), fielddata.GeoPoint{Lat: lat, Lon: lon}, format)
		if err != nil {
			return fmt.Errorf("line %d: %v", line, err)
		}
	}
}

func init() {
	RootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVar(&buildFormat, "format", "hashed", "point format, hashed or legacy")
	buildCmd.Flags().BoolVar(&buildCompress, "compress", false, "snappy compress postings")
	buildCmd.Flags().Uint64Var(&buildNumDocs, "num-docs", 0, "document count, defaults to the highest doc + 1")
}

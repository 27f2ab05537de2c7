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
	"fmt"

	"github.com/blevesearch/fielddata"
	"github.com/spf13/cobra"
)

var termsFormat string

// termsCmd represents the terms command
var termsCmd = &cobra.Command{
	Use:   "terms [path] [field]",
	Short: "terms prints the term dictionary of a field",
	Long:  `The terms command prints each term of a field, the point it decodes to and its postings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return fmt.Errorf("must specify field")
		}
		format, err := fielddata.ParsePointFormat(termsFormat)
		if err != nil {
			return err
		}

		terms, err := segment.Terms(args[1])
		if err != nil {
			return err
		}
		defer terms.Close()

		for {
			t, err := terms.Next()
			if err != nil {
				return err
			}
			if t == nil {
				return nil
			}
			var docs []uint32
			for t.Postings.HasNext() {
				docs = append(docs, t.Postings.Next())
			}
			p, ok, err := format.DecodeTerm(t.Term)
			switch {
			case err != nil:
				fmt.Printf("%x corrupt: %v docs %v\n", t.Term, err, docs)
			case !ok:
				fmt.Printf("%x prefix docs %v\n", t.Term, docs)
			default:
				fmt.Printf("%x %s docs %v\n", t.Term, p, docs)
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(termsCmd)
	termsCmd.Flags().StringVar(&termsFormat, "format", "hashed", "point format of the field, hashed or legacy")
}

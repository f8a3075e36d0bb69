// Command protoform lints prototype template files: well-formedness of the
// document tree, duplicate prototype ids, unresolved parent references, and
// inheritance cycles. Schema-aware validation happens in the owning program;
// this tool checks everything that can be checked without compiled types.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	protoform "github.com/protoform/protoform"
	"github.com/protoform/protoform/prototype"
	jsonsrc "github.com/protoform/protoform/source/json"
	yamlsrc "github.com/protoform/protoform/source/yaml"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "lint":
		os.Exit(lintCmd(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "protoform CLI\n\nUsage:\n  protoform lint [-json] file...\n\nChecks prototype files for parse errors, duplicate ids, missing parents and inheritance cycles.")
}

func lintCmd(args []string) int {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	var asJSON bool
	fs.BoolVar(&asJSON, "json", false, "input files are JSON instead of YAML")
	_ = fs.Parse(args)
	paths := fs.Args()
	if len(paths) == 0 {
		fs.Usage()
		return 2
	}

	decode := yamlsrc.DecodeMapping
	if asJSON {
		decode = jsonsrc.DecodeMapping
	}

	parents := map[string]string{}
	definedAt := map[string]string{}
	bad := 0

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", p, err)
			bad++
			continue
		}
		doc, err := decode(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", p, err)
			bad++
			continue
		}
		for _, e := range doc.Entries() {
			if prev, ok := definedAt[e.Key]; ok {
				fmt.Fprintf(os.Stderr, "%s: duplicate prototype id %q (first defined in %s)\n", p, e.Key, prev)
				bad++
				continue
			}
			definedAt[e.Key] = p
			body, ok := e.Value.(*protoform.Mapping)
			if !ok {
				fmt.Fprintf(os.Stderr, "%s: prototype %q: body must be a mapping\n", p, e.Key)
				bad++
				continue
			}
			if pn, ok := body.Get(prototype.InheritKey); ok {
				pv, okv := pn.(*protoform.Value)
				if !okv {
					fmt.Fprintf(os.Stderr, "%s: prototype %q: inherit must be a scalar id\n", p, e.Key)
					bad++
					continue
				}
				parents[e.Key] = pv.Raw
			} else {
				parents[e.Key] = ""
			}
		}
	}

	ids := make([]string, 0, len(parents))
	for id := range parents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		parent := parents[id]
		if parent == "" {
			continue
		}
		if _, ok := parents[parent]; !ok {
			fmt.Fprintf(os.Stderr, "%s: prototype %q: parent %q is not defined\n", definedAt[id], id, parent)
			bad++
		}
	}
	for _, c := range prototype.Cycles(parents) {
		fmt.Fprintf(os.Stderr, "%v\n", c)
		bad++
	}

	fmt.Printf("%d prototypes in %d files, %d problems\n", len(parents), len(paths), bad)
	if bad > 0 {
		return 1
	}
	return 0
}

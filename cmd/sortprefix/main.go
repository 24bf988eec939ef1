// Command sortprefix groups the files of a folder into subfolders named by
// the token before the first separator, e.g. "ivy_*.mp3" -> sorted/ivy/.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"convoscope/pkg/organizer"
)

var (
	dir       = flag.String("dir", ".", "Directory with the files to sort")
	separator = flag.String("sep", "_", "Prefix separator")
	dest      = flag.String("dest", "sorted", "Destination root for the prefix folders")
)

func main() {
	flag.Parse()

	groups, err := organizer.SortByPrefix(*dir, *separator, *dest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	prefixes := make([]string, 0, len(groups))
	total := 0
	for prefix, names := range groups {
		prefixes = append(prefixes, prefix)
		total += len(names)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		fmt.Printf("%s: %d files\n", prefix, len(groups[prefix]))
	}
	fmt.Printf("Sorted %d files into %d folders under %s\n", total, len(prefixes), *dest)
}

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ppdb/core/region"
)

// listRegions probes the region data source.
func (cli *commandLine) listRegions(province region.NodeID) error {
	timeout := cli.conf.Regions.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	lvl := region.Province
	if province.IsSet() {
		lvl = region.City
	}
	nodes, err := region.Children(ctx, cli.regions, lvl, province)
	if err != nil {
		return errors.Wrapf(err, "listing %s options", lvl)
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, n := range nodes {
		fmt.Fprintf(w, "%s\t%s\n", n.ID, n.Name)
	}
	fmt.Fprintf(w, "(%d %s options)\n", len(nodes), lvl)
	return w.Flush()
}

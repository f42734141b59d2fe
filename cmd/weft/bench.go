package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/weft-ui/weft"
	"github.com/weft-ui/weft/pkg/engine"
	"github.com/weft-ui/weft/pkg/renderer/treerender"
)

func benchCmd() *cobra.Command {
	var (
		children   int
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run reconciliation benchmarks",
		Long: `Run the engine against an in-memory tree backend and report
how long mount, no-op update, full update and unmount take for a
wide flat tree.

Examples:
  weft bench
  weft bench --children=10000
  weft bench --iterations=10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(children, iterations)
		},
	}

	cmd.Flags().IntVarP(&children, "children", "c", 1000, "Number of child rows")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 5, "Iterations to average over")

	return cmd
}

func runBench(children, iterations int) error {
	if children <= 0 || iterations <= 0 {
		return fmt.Errorf("bench: children and iterations must be positive")
	}

	printBanner()
	fmt.Println("  bench")
	fmt.Println()
	info("%d children, %d iterations", children, iterations)
	fmt.Println()

	var mount, noop, update, unmount time.Duration
	for i := 0; i < iterations; i++ {
		m, n, u, d, err := benchOnce(children)
		if err != nil {
			return err
		}
		mount += m
		noop += n
		update += u
		unmount += d
	}
	div := time.Duration(iterations)

	success("mount    %12s", mount/div)
	success("no-op    %12s", noop/div)
	success("update   %12s", update/div)
	success("unmount  %12s", unmount/div)
	return nil
}

// benchOnce mounts a flat tree of rows, re-renders it unchanged, updates
// every row label and finally unmounts it, timing each phase.
func benchOnce(children int) (mount, noop, update, unmount time.Duration, err error) {
	tr := treerender.New()
	e, err := engine.New(engine.Config{Renderer: tr, Scheduler: engine.SyncScheduler{}})
	if err != nil {
		return 0, 0, 0, 0, err
	}
	root := tr.NewRoot("root")

	render := func(el *weft.VNode) (time.Duration, error) {
		var rerr error
		start := time.Now()
		e.Render(el, root, func(err error) { rerr = err })
		return time.Since(start), rerr
	}

	if mount, err = render(rows(children, "row")); err != nil {
		return
	}
	if noop, err = render(rows(children, "row")); err != nil {
		return
	}
	if update, err = render(rows(children, "updated")); err != nil {
		return
	}
	unmount, err = render(weft.H(weft.Host("list"), nil))
	return
}

func rows(n int, label string) *weft.VNode {
	kids := make([]*weft.VNode, n)
	for i := range kids {
		kids[i] = weft.H(weft.Host("row"), weft.Props{
			"text": fmt.Sprintf("%s %d", label, i),
		})
	}
	return weft.H(weft.Host("list"), nil, kids...)
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexxo-build/nexxocore/engine/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Dependency graph analysis",
}

var graphAnalyzeCmd = &cobra.Command{
	Use:   "analyze [edge-list-file]",
	Short: "Detect cycles, orphans, and a topological order over an edge list",
	Long: `Reads a text file where each line is "node dep1,dep2,...", builds the
dependency graph, and prints cycles, orphaned nodes, and a topological
order (or the cycle blocking one).`,
	Args: cobra.ExactArgs(1),
	RunE: runGraphAnalyze,
}

func init() {
	graphCmd.AddCommand(graphAnalyzeCmd)
}

func runGraphAnalyze(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening edge list: %w", err)
	}
	defer f.Close()

	ctx := cmd.Context()
	a := graph.New()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		node, deps := parseEdgeLine(line)
		a.AddNode(ctx, node, deps)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading edge list: %w", err)
	}

	result := a.Analyze(ctx, nil)
	fmt.Printf("nodes=%d edges=%d has_cycles=%t orphans=%d\n",
		result.TotalNodes, result.TotalEdges, result.HasCycles, len(result.OrphanedNodes))

	for _, c := range result.Cycles {
		fmt.Printf("cycle: %v\n", c.Nodes)
	}
	for _, o := range result.OrphanedNodes {
		fmt.Printf("orphan: %s\n", o)
	}

	order, err := a.TopologicalSort(ctx)
	if err != nil {
		fmt.Printf("topological sort: %v\n", err)
		return nil
	}
	fmt.Printf("order: %v\n", order)
	return nil
}

// parseEdgeLine splits "node dep1,dep2" into node and its dependency list.
func parseEdgeLine(line string) (string, []string) {
	node, rest, found := strings.Cut(line, " ")
	if !found || rest == "" {
		return node, nil
	}
	return node, strings.Split(rest, ",")
}

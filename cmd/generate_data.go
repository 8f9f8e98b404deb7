package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jmehdipour/group-load/internal/model"
	"github.com/jmehdipour/group-load/internal/sample"
	"github.com/spf13/cobra"
)

var (
	genOutput    string
	genCount     int
	genCorporate int
	genEmployees int
	genSeed      uint64
)

var generateDataCmd = &cobra.Command{
	Use:   "generate-data",
	Short: "Write generated groups to a JSON file usable by send-file",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := genSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		groups := generateGroups(sample.NewGenerator(seed), genCount, genCorporate, genEmployees)

		data, err := json.MarshalIndent(groups, "", "  ")
		if err != nil {
			return fmt.Errorf("encode groups: %w", err)
		}
		if err := os.WriteFile(genOutput, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", genOutput, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d groups to %s\n", len(groups), genOutput)
		return nil
	},
}

func init() {
	f := generateDataCmd.Flags()
	f.StringVarP(&genOutput, "output", "o", "sample_groups.json", "output file")
	f.IntVar(&genCount, "count", 10, "number of random groups")
	f.IntVar(&genCorporate, "corporate", 0, "number of additional corporate groups")
	f.IntVar(&genEmployees, "employees", 25, "employees per corporate group")
	f.Uint64Var(&genSeed, "seed", 0, "generator seed (0 uses the clock)")
}

func generateGroups(gen *sample.Generator, count, corporate, employees int) []model.GroupDetails {
	groups := gen.Batch(count)
	for i := 0; i < corporate; i++ {
		groups = append(groups, gen.Corporate(fmt.Sprintf("Company %d", i+1), employees))
	}
	return groups
}

package cmd

import (
	"fmt"
	"time"

	"github.com/jmehdipour/group-load/internal/model"
	"github.com/jmehdipour/group-load/internal/sample"
	"github.com/spf13/cobra"
)

var (
	sampleCount     int
	sampleCorporate bool
	sampleCompany   string
	sampleEmployees int
	sampleSeed      uint64
)

var sendSampleCmd = &cobra.Command{
	Use:   "send-sample",
	Short: "Publish the built-in sample group or generated groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.log.Sync() }()

		raws, err := sampleRecords()
		if err != nil {
			return err
		}

		st, err := rt.openStores()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		s, err := rt.newStreamer(cmd.Context(), st)
		if err != nil {
			return err
		}
		defer s.Close()

		outcomes := s.StreamBatchOutcomes(cmd.Context(), raws)
		return batchErr(printResults(cmd.OutOrStdout(), outcomes), len(outcomes))
	},
}

func init() {
	f := sendSampleCmd.Flags()
	f.IntVar(&sampleCount, "count", 0, "number of random groups to generate (0 sends the built-in sample)")
	f.BoolVar(&sampleCorporate, "corporate", false, "send one generated corporate group")
	f.StringVar(&sampleCompany, "company-name", "Acme Corp", "company name for --corporate")
	f.IntVar(&sampleEmployees, "employees", 10, "employee count for --corporate")
	f.Uint64Var(&sampleSeed, "seed", 0, "generator seed (0 uses the clock)")
}

func sampleRecords() ([]map[string]any, error) {
	if !sampleCorporate && sampleCount <= 0 {
		return sample.SampleGroups(), nil
	}

	seed := sampleSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	gen := sample.NewGenerator(seed)

	var groups []model.GroupDetails
	if sampleCorporate {
		groups = append(groups, gen.Corporate(sampleCompany, sampleEmployees))
	}
	groups = append(groups, gen.Batch(sampleCount)...)

	return toRaw(groups)
}

// toRaw converts typed groups to the untyped shape the pipeline accepts.
func toRaw(groups []model.GroupDetails) ([]map[string]any, error) {
	raws := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		m, err := g.ToMap()
		if err != nil {
			return nil, fmt.Errorf("convert group %s: %w", g.GroupID, err)
		}
		raws = append(raws, m)
	}
	return raws, nil
}

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sendFileCmd = &cobra.Command{
	Use:   "send-file PATH",
	Short: "Publish groups from a JSON file (one object or an array of objects)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raws, err := readGroupsFile(args[0])
		if err != nil {
			return err
		}

		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.log.Sync() }()

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

// readGroupsFile accepts a single JSON object or an array of objects.
func readGroupsFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parseGroups(data)
}

func parseGroups(data []byte) ([]map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	if data[0] == '[' {
		var raws []map[string]any
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("parse group array: %w", err)
		}
		return raws, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse group object: %w", err)
	}
	return []map[string]any{raw}, nil
}

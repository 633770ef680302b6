package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNamesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "names <model.stan>",
		Short: "Print the parameter names that would be converted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rp, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer rp.log.Sync() //nolint:errcheck

			return NamesOutput(rp, args[0])
		},
	}
}

// NamesOutput prints one "name<TAB>type<TAB>dimensions" line per parameter,
// sorted by name. The type is empty when the oracle does not report one.
func NamesOutput(rp *runParams, filename string) error {
	params, err := rp.conv.Oracle.Names(rp.ctx, filename)
	if err != nil {
		return err
	}

	for _, n := range params.Names() {
		p := params[n]
		if _, err := fmt.Fprintf(rp.out, "%s\t%s\t%d\n", n, p.Type, p.Dimensions); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"socialsim/internal/evo"
	"socialsim/internal/model"
	"socialsim/pkg/socialsim"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <behavior-a> <behavior-b>",
		Short: "Resolve predator encounters for one behavior pair",
		Long: `Resolve draws predator encounters for a pair and reports who survives.
With --table it prints the whole survival matrix instead.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if table, _ := cmd.Flags().GetBool("table"); table {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if table, _ := cmd.Flags().GetBool("table"); table {
				for _, cell := range evo.Matrix() {
					fmt.Fprintf(out, "a=%s b=%s shape=%s p_a=%.2f p_b=%.2f\n", cell.A, cell.B, cell.Shape, cell.PA, cell.PB)
				}
				return nil
			}

			a, err := model.ParseBehavior(args[0])
			if err != nil {
				return err
			}
			b, err := model.ParseBehavior(args[1])
			if err != nil {
				return err
			}
			seed, _ := cmd.Flags().GetInt64("seed")
			trials, _ := cmd.Flags().GetInt("trials")
			if trials <= 0 {
				return fmt.Errorf("trials must be > 0")
			}

			rng := evo.NewSource(seed)
			survivedA, survivedB := 0, 0
			for i := 0; i < trials; i++ {
				sa, sb, err := socialsim.ResolveEncounter(a, b, rng)
				if err != nil {
					return err
				}
				if trials == 1 {
					fmt.Fprintf(out, "a=%s survived=%t b=%s survived=%t\n", a, sa, b, sb)
					return nil
				}
				if sa {
					survivedA++
				}
				if sb {
					survivedB++
				}
			}
			fmt.Fprintf(out, "a=%s b=%s trials=%d survival_a=%.4f survival_b=%.4f\n",
				a, b, trials, float64(survivedA)/float64(trials), float64(survivedB)/float64(trials))
			return nil
		},
	}
	cmd.Flags().Int64("seed", 1, "random seed")
	cmd.Flags().Int("trials", 1, "number of encounters to draw")
	cmd.Flags().Bool("table", false, "print the survival matrix")
	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaKeep bool

// NewSchemaCmd creates the schema command group.
func NewSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the vector store schema",
	}
	cmd.AddCommand(newSchemaInitCmd())
	return cmd
}

func newSchemaInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the vector store class, dropping any existing one",
		Long: `Create the chunk class or collection in the configured vector store.
An existing class is deleted first, discarding its records, unless --keep
is given.

Examples:
  rag schema init
  rag schema init --keep`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.InitSchema(cmd.Context(), !schemaKeep); err != nil {
				return err
			}
			verb := "Created"
			if schemaKeep {
				verb = "Ensured"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s class %s in %s.\n", verb, a.Config.VectorStore.ClassName, a.Config.VectorStore.Type)
			return nil
		},
	}
	cmd.Flags().BoolVar(&schemaKeep, "keep", false, "Keep an existing class and its records")
	return cmd
}

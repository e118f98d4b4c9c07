package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/tranche/internal/importer"
)

func newProjectImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create every project in a JSON or YAML file as its creator",
		Long: `Create every project in a JSON or YAML file as its creator.

The whole file is checked before anything is created. Projects are then
created one by one in file order; a rejected project stops the import and
earlier ones stay created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.caller()
			if err != nil {
				return err
			}
			schema, err := importer.LoadImportFile(args[0])
			if err != nil {
				return err
			}
			if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
				return fmt.Errorf("invalid import file: %w", errors.Join(errs...))
			}
			inputs, err := importer.Convert(schema)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, in := range inputs {
				id, err := app.Projects.CreateProject(cmd.Context(), caller, in)
				if err != nil {
					return fmt.Errorf("project %d (%q): %w", i+1, in.Name, err)
				}
				fmt.Fprintf(out, "Created project #%d %s\n", id, in.Name)
			}
			return nil
		},
	}
}

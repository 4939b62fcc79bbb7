package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/orgops-api/internal/repository"
	"github.com/noah-isme/orgops-api/internal/service"
)

type importOutput struct {
	File    string      `json:"file"`
	Applied bool        `json:"applied"`
	Rows    int         `json:"rows"`
	Status  int         `json:"status,omitempty"`
	Result  interface{} `json:"result"`
}

func newImportCmd(e *env) *cobra.Command {
	var (
		file  string
		apply bool
		actor string
		term  string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate, and with --apply import, an xlsx event sheet",
		Long: "Reads the first worksheet of an xlsx workbook laid out like the upload template.\n" +
			"Without --apply the rows are only checked against reference data.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			drafts, err := service.DraftsFromSheet(f)
			if err != nil {
				return err
			}

			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			termID := e.cfg.Imports.CurrentTermID
			if term != "" {
				termID = term
			}
			svc := service.NewEventImportService(
				service.RepositoryBeginner(repository.NewEventImportRepository(db)),
				repository.NewReferenceRepository(db),
				repository.NewTermRepository(db),
				service.NewDateParser(e.cfg.Imports.Timezone),
				nil,
				nil,
				nil,
				e.logger,
				service.EventImportServiceConfig{CurrentTermID: termID, MaxBatchSize: e.cfg.Imports.MaxBatchSize},
			)

			out := importOutput{File: file, Applied: apply, Rows: len(drafts)}
			if !apply {
				validation, err := svc.Validate(cmd.Context(), drafts)
				if err != nil {
					return err
				}
				out.Result = validation
				return writeJSON(cmd.OutOrStdout(), out)
			}

			result, _, err := svc.Import(cmd.Context(), drafts, actor)
			if err != nil {
				return err
			}
			out.Status, out.Result = service.BuildImportResponse(result)
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !result.Committed {
				return fmt.Errorf("import rolled back: %d row(s) failed", len(result.Failures()))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the .xlsx workbook (required)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the events (default: validate only)")
	cmd.Flags().StringVar(&actor, "actor", os.Getenv("USER"), "Name recorded in logs as the importer")
	cmd.Flags().StringVar(&term, "term", "", "Override CURRENT_TERM_ID for this run")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

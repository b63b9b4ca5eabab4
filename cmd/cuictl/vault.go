package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/vault"
)

func parseTenant(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("--tenant: %w", err)
	}
	return &id, nil
}

func newVerifyCmd() *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-hash every cataloged object and report mismatches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := parseTenant(tenant)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.svc.Vault.VerifyVault(cmd.Context(), domain.SystemPrincipal(), tenantID)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATUS\tSOURCE\tFILENAME\tEXPECTED\tPATH")
			for _, row := range report.Rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Status, row.Source, row.Filename, row.Expected, row.RelPath)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok=%d mismatch=%d missing=%d\n", report.OK, report.Mismatch, report.Missing)
			return report.Err()
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "limit verification to one tenant")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		tenant         string
		inspections    []string
		includeObjects bool
		out            string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an evidence manifest ZIP for selected inspections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := parseTenant(tenant)
			if err != nil {
				return err
			}
			ids := make([]uuid.UUID, 0, len(inspections))
			for _, s := range inspections {
				id, err := uuid.Parse(s)
				if err != nil {
					return fmt.Errorf("--inspection %q: %w", s, err)
				}
				ids = append(ids, id)
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.svc.Vault.ExportManifest(cmd.Context(), domain.SystemPrincipal(), vault.ExportInput{
				TenantID:       tenantID,
				InspectionIDs:  ids,
				IncludeObjects: includeObjects,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, res.Archive, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d rows, export run %s).\n", out, res.Rows, res.Inspection.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant that owns the inspections")
	cmd.Flags().StringSliceVar(&inspections, "inspection", nil, "inspection id to include (repeatable)")
	cmd.Flags().BoolVar(&includeObjects, "include-objects", false, "embed the referenced objects in the archive")
	cmd.Flags().StringVarP(&out, "out", "o", "evidence_manifest.zip", "output path")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("inspection")
	return cmd
}

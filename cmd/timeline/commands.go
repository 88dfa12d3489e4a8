package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-timeline/internal/export"
)

var (
	exportFormat string
	exportTrack  string
	exportOut    string
	importName   string
)

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a stored project as EDL or YAML",
		Long: `Export the last saved state of a project.

EDL exports one track as a CMX3600 edit decision list. YAML exports the
whole project state and can be read back with 'import'.

Examples:
  # Export the first track as EDL into the current directory
  heimdex-timeline export 6f1c...

  # Export an audio track
  heimdex-timeline export 6f1c... --track a1 --out ~/Desktop

  # Export the full state
  heimdex-timeline export 6f1c... --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
	cmd.Flags().StringVarP(&exportFormat, "format", "f", export.FormatEDL, "output format (edl or yaml)")
	cmd.Flags().StringVarP(&exportTrack, "track", "t", "", "track id for EDL export (default first track)")
	cmd.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.db.Close()

	outDir, err := filepath.Abs(exportOut)
	if err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}
	if err := export.ValidateOutputDir(outDir); err != nil {
		return err
	}

	ctx := context.Background()
	p, err := st.service.Get(ctx, args[0])
	if err != nil {
		return err
	}

	f, err := export.Render(p.State, exportFormat, exportTrack, p.Name)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(outDir, export.FileName(f.Extension, p.Name))
	if err := os.WriteFile(outputPath, f.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	if f.Format == export.FormatEDL {
		fmt.Printf("Wrote %d events to %s\n", f.EventCount, outputPath)
	} else {
		fmt.Printf("Wrote %s\n", outputPath)
	}
	return nil
}

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create a project from a YAML or JSON state file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	cmd.Flags().StringVarP(&importName, "name", "n", "", "project name (default file name)")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	state, err := export.ParseState(data)
	if err != nil {
		return err
	}

	name := importName
	if name == "" {
		base := filepath.Base(args[0])
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.db.Close()

	p, err := st.service.Create(context.Background(), name, &state)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", p.ID)
	fmt.Fprintf(w, "Name:\t%s\n", p.Name)
	fmt.Fprintf(w, "Tracks:\t%d\n", len(p.State.Timeline.Tracks))
	fmt.Fprintf(w, "Clips:\t%d\n", p.State.Timeline.ClipCount())
	return w.Flush()
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/aoi-inspection-client/pkg/aoi"
)

func newOptionsCommand(ctx *commandContext) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "options",
		Short: "List lot/wafer options inspected in a time window",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.aoiService(cmd)
			if err != nil {
				return err
			}
			opts, err := svc.FetchOptions(cmd.Context(), start, end)
			if err != nil {
				return fmt.Errorf("fetch options: %w", err)
			}
			if ctx.wantTable(cmd) {
				fmt.Fprintln(cmd.OutOrStdout(), optionsTable(opts))
				return nil
			}
			return writeJSON(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Window start (server time format)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (server time format)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var q aoi.SummaryQuery

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the per-wafer AOI summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.aoiService(cmd)
			if err != nil {
				return err
			}
			list, err := svc.FetchWaferAOIList(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("fetch summary: %w", err)
			}
			if ctx.wantTable(cmd) {
				fmt.Fprintln(cmd.OutOrStdout(), summaryTable(list))
				return nil
			}
			return writeJSON(cmd, list)
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.StartTime, "start", "", "Window start")
	f.StringVar(&q.EndTime, "end", "", "Window end")
	f.StringVar(&q.Product, "product", "", "Product filter")
	f.StringVar(&q.Layer, "layer", "", "Layer filter")
	f.StringVar(&q.Eqp, "eqp", "", "Equipment filter")
	f.StringVar(&q.Lot, "lot", "", "Lot filter")
	f.StringVar(&q.Wafer, "wafer", "", "Wafer filter")
	return cmd
}

func newRawDataCommand(ctx *commandContext) *cobra.Command {
	var waferKey string

	cmd := &cobra.Command{
		Use:   "rawdata",
		Short: "Print the raw defect data of a wafer",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.aoiService(cmd)
			if err != nil {
				return err
			}
			raw, err := svc.FetchDefectRawData(cmd.Context(), waferKey)
			if err != nil {
				return fmt.Errorf("fetch raw data: %w", err)
			}
			return writeRawJSON(cmd, raw)
		},
	}
	cmd.Flags().StringVar(&waferKey, "wafer-key", "", "Wafer key")
	_ = cmd.MarkFlagRequired("wafer-key")
	return cmd
}

func newDetailCommand(ctx *commandContext) *cobra.Command {
	var waferKey, defectID string

	cmd := &cobra.Command{
		Use:   "detail",
		Short: "Print the detail document of one defect",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.aoiService(cmd)
			if err != nil {
				return err
			}
			raw, err := svc.FetchDefectDetail(cmd.Context(), waferKey, defectID)
			if err != nil {
				return fmt.Errorf("fetch defect detail: %w", err)
			}
			return writeRawJSON(cmd, raw)
		},
	}
	cmd.Flags().StringVar(&waferKey, "wafer-key", "", "Wafer key")
	cmd.Flags().StringVar(&defectID, "defect-id", "", "Defect id")
	_ = cmd.MarkFlagRequired("wafer-key")
	_ = cmd.MarkFlagRequired("defect-id")
	return cmd
}

func newImageCommand(ctx *commandContext) *cobra.Command {
	var waferKey, defectID, out string

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Download the image crop of one defect",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.aoiService(cmd)
			if err != nil {
				return err
			}
			img, err := svc.FetchDefectImage(cmd.Context(), waferKey, defectID)
			if err != nil {
				return fmt.Errorf("fetch defect image: %w", err)
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(img.Data)
				return err
			}
			if err := os.WriteFile(out, img.Data, 0o644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			contentType := strings.TrimSpace(img.ContentType)
			if contentType == "" {
				contentType = "unknown type"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %s)\n", out, humanize.Bytes(uint64(len(img.Data))), contentType)
			return nil
		},
	}
	cmd.Flags().StringVar(&waferKey, "wafer-key", "", "Wafer key")
	cmd.Flags().StringVar(&defectID, "defect-id", "", "Defect id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, or - for stdout")
	_ = cmd.MarkFlagRequired("wafer-key")
	_ = cmd.MarkFlagRequired("defect-id")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"usagesummary/internal/domain"
	"usagesummary/internal/http/handlers"
	"usagesummary/internal/storage"
	"usagesummary/pkg/zip"
)

const (
	formatJSON = "json"
	formatZip  = "zip"
)

type summaryLister interface {
	ListSummaries(ctx context.Context, from, to time.Time, scope *domain.Scope) ([]domain.DailyUsageSummary, error)
}

type exportDocument struct {
	From        string                     `json:"from"`
	To          string                     `json:"to"`
	Scope       string                     `json:"scope,omitempty"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Items       []handlers.SummaryResponse `json:"items"`
}

func exportCmd() *cobra.Command {
	var from, to, scope, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write daily usage summaries to the file store as JSON",
		Long: `Write the summaries between --from and --to (inclusive) to
$STORAGE_PATH/exports/daily-usage/<from>_<to>.json, or with --format zip to a
<from>_<to>.zip archive holding the JSON document and a CSV rendition.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDay, err := domain.ParseDate(from)
			if err != nil {
				return err
			}
			toDay, err := domain.ParseDate(to)
			if err != nil {
				return err
			}
			if fromDay.After(toDay) {
				return fmt.Errorf("--from must not be after --to")
			}
			if format != formatJSON && format != formatZip {
				return fmt.Errorf("--format must be %s or %s", formatJSON, formatZip)
			}
			filter, err := handlers.ParseScope(scope)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, cfg, _, err := openServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			store, err := storage.NewFileStore(cfg.StoragePath)
			if err != nil {
				return err
			}
			key, n, err := exportSummaries(ctx, svc.Summaries, store, fromDay, toDay, filter, format, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d summaries to %s\n", n, store.Path(key))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&scope, "scope", "", "only export system or one stream scope id")
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json or zip")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func exportSummaries(ctx context.Context, lister summaryLister, store *storage.FileStore, from, to time.Time, scope *domain.Scope, format string, now time.Time) (string, int, error) {
	summaries, err := lister.ListSummaries(ctx, from, to, scope)
	if err != nil {
		return "", 0, fmt.Errorf("list summaries: %w", err)
	}
	doc := exportDocument{
		From:        from.Format(domain.DateLayout),
		To:          to.Format(domain.DateLayout),
		GeneratedAt: now.UTC(),
		Items:       make([]handlers.SummaryResponse, 0, len(summaries)),
	}
	if scope != nil {
		doc.Scope = scope.String()
	}
	for _, s := range summaries {
		doc.Items = append(doc.Items, handlers.NewSummaryResponse(s))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("encode export: %w", err)
	}
	base := fmt.Sprintf("%s_%s", doc.From, doc.To)
	key := "exports/daily-usage/" + base + ".json"
	if format == formatZip {
		csvData, err := summariesCSV(doc.Items)
		if err != nil {
			return "", 0, err
		}
		data, err = zip.Archive([]zip.File{
			{Name: base + ".json", Data: data, Modified: doc.GeneratedAt},
			{Name: base + ".csv", Data: csvData, Modified: doc.GeneratedAt},
		})
		if err != nil {
			return "", 0, err
		}
		key = "exports/daily-usage/" + base + ".zip"
	}
	key, err = store.Write(ctx, key, data)
	if err != nil {
		return "", 0, err
	}
	return key, len(summaries), nil
}

var csvHeader = []string{
	"date", "scope", "unique_visitor_count", "page_view_count", "stream_view_count",
	"stream_viewer_count", "stream_contributor_count", "message_count",
	"average_response_time", "is_weekday",
}

func summariesCSV(items []handlers.SummaryResponse) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, it := range items {
		record := []string{
			it.Date,
			it.Scope,
			strconv.FormatInt(it.UniqueVisitorCount, 10),
			strconv.FormatInt(it.PageViewCount, 10),
			strconv.FormatInt(it.StreamViewCount, 10),
			strconv.FormatInt(it.StreamViewerCount, 10),
			strconv.FormatInt(it.StreamContributorCount, 10),
			strconv.FormatInt(it.MessageCount, 10),
			strconv.FormatInt(it.AverageResponseTime, 10),
			strconv.FormatBool(it.IsWeekday),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

package utils

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cloudledger/costsync/model"
)

// DrawSyncReportTable displays the consolidated outcome of one sync
// cycle, one row per provider pipeline.
func DrawSyncReportTable(report *model.SyncReport) {
	fmt.Printf("\n%s\n", text.FgHiWhite.Sprint(" 💰 MULTI-CLOUD COST SYNC"))
	fmt.Printf(" Sync ID: %s\n", text.FgBlue.Sprint(report.SyncID))
	fmt.Printf(" Window:  %s → %s\n",
		text.FgBlue.Sprint(report.Window.Start.Format("2006-01-02")),
		text.FgBlue.Sprint(report.Window.End.Format("2006-01-02")))
	fmt.Println(text.FgHiBlue.Sprint(" ------------------------------------------------"))

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle("Sync Results by Provider")
	tw.AppendHeader(table.Row{"Provider", "Status", "Records", "Error"})
	tw.SetStyle(table.StyleRounded)

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})

	for _, result := range sortedResults(report) {
		status := text.FgHiGreen.Sprint("✅ " + result.Status)
		errMsg := ""
		provider := text.FgGreen.Sprint(strings.ToUpper(string(result.Provider)))

		if result.Status == model.PipelineStatusError {
			status = text.FgHiRed.Sprint("⚠ " + result.Status)
			errMsg = text.FgRed.Sprint(result.ErrorMessage)
			provider = text.FgRed.Sprint(strings.ToUpper(string(result.Provider)))
		}

		tw.AppendRow(table.Row{
			provider,
			status,
			result.RecordsProcessed,
			errMsg,
		})
	}

	if len(report.ProviderResults) > 1 {
		tw.AppendSeparator()
		tw.AppendRow(table.Row{
			text.FgHiWhite.Sprint("TOTAL"),
			"",
			report.TotalRecordsProcessed,
			"",
		})
	}

	tw.Render()

	fmt.Printf(" Completed in %s\n", text.FgBlue.Sprint(report.Duration.Round(10*time.Millisecond).String()))
}

// DrawValidationTable displays the outcome of provider credential
// validation, one row per configured provider.
func DrawValidationTable(results []model.ProviderValidation) {
	fmt.Printf("\n%s\n", text.FgHiWhite.Sprint(" 🔐 PROVIDER CREDENTIAL CHECK"))
	fmt.Println(text.FgHiBlue.Sprint(" ------------------------------------------------"))

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle("Credential Validation")
	tw.AppendHeader(table.Row{"Provider", "Account/Project ID", "Account Name", "Status"})
	tw.SetStyle(table.StyleRounded)

	SortProviderValidations(results)

	for _, result := range results {
		if result.Error != nil {
			tw.AppendRow(table.Row{
				text.FgRed.Sprint(strings.ToUpper(string(result.Provider))),
				"-",
				"-",
				text.FgHiRed.Sprint("⚠ " + result.Error.Error()),
			})
			continue
		}

		tw.AppendRow(table.Row{
			text.FgGreen.Sprint(strings.ToUpper(string(result.Provider))),
			result.Account.AccountID,
			result.Account.AccountName,
			text.FgHiGreen.Sprint("✅ Valid"),
		})
	}

	tw.Render()
}

// SortProviderValidations sorts validation results for consistent display.
func SortProviderValidations(results []model.ProviderValidation) {
	order := map[model.ProviderTag]int{
		model.ProviderAWS:   1,
		model.ProviderAzure: 2,
		model.ProviderGCP:   3,
	}
	sort.Slice(results, func(i, j int) bool {
		return order[results[i].Provider] < order[results[j].Provider]
	})
}

func sortedResults(report *model.SyncReport) []model.ProviderSyncResult {
	order := map[model.ProviderTag]int{
		model.ProviderAWS:   1,
		model.ProviderAzure: 2,
		model.ProviderGCP:   3,
	}

	results := make([]model.ProviderSyncResult, 0, len(report.ProviderResults))
	for _, result := range report.ProviderResults {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		return order[results[i].Provider] < order[results[j].Provider]
	})
	return results
}

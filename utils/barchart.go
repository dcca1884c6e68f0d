package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/cloudledger/costsync/model"
)

const (
	ColorRank1 = "#d73027"
	ColorRank2 = "#f46d43"
	ColorRank3 = "#fee08b"
	ColorRank4 = "#abdda4"
	ColorRank5 = "#66c2a5"
	ColorRank6 = "#1a9850"
)

var defaultStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("#F4D060"))

// DrawProviderCostChart renders the synced cost totals per provider as
// a bar chart, most expensive provider in the hottest color.
func DrawProviderCostChart(totals map[model.ProviderTag]decimal.Decimal, currency string) {
	if len(totals) == 0 {
		return
	}

	fmt.Printf("\n%s\n", text.FgHiWhite.Sprint(" 📊 COST BY PROVIDER"))
	fmt.Println(text.FgHiBlue.Sprint(" ------------------------------------------------"))

	providers := make([]model.ProviderTag, 0, len(totals))
	for provider := range totals {
		providers = append(providers, provider)
	}
	sort.Slice(providers, func(i, j int) bool {
		return providers[i] < providers[j]
	})

	amounts := make([]float64, len(providers))
	for i, provider := range providers {
		amounts[i], _ = totals[provider].Float64()
	}

	indexedColors := assignRankedColors(amounts)

	bc := barchart.New(80, 15)
	for i, provider := range providers {
		bc.Push(barchart.BarData{
			Label: fmt.Sprintf("%s: %.2f %s", strings.ToUpper(string(provider)), amounts[i], currency),
			Values: []barchart.BarValue{
				{
					Value: amounts[i],
					Style: lipgloss.NewStyle().Foreground(lipgloss.Color(indexedColors[i])),
				},
			},
		})
	}

	fmt.Println()

	bc.Draw()
	s := lipgloss.JoinHorizontal(lipgloss.Top,
		defaultStyle.Render(bc.View()),
	)

	fmt.Println(s)
}

func assignRankedColors(amounts []float64) []string {
	palette := []string{ColorRank1, ColorRank2, ColorRank3, ColorRank4, ColorRank5, ColorRank6}

	type amountWithIndex struct {
		index int
		value float64
	}

	toSort := make([]amountWithIndex, len(amounts))
	for i, amount := range amounts {
		toSort[i] = amountWithIndex{index: i, value: amount}
	}

	sort.Slice(toSort, func(i, j int) bool {
		return toSort[i].value > toSort[j].value
	})

	resultColors := make([]string, len(amounts))
	for rank, sorted := range toSort {
		if rank < len(palette) {
			resultColors[sorted.index] = palette[rank]
		}
	}

	return resultColors
}

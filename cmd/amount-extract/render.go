package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/zombor/amount-scan/internal/amount"
	"github.com/zombor/amount-scan/internal/extraction"
)

var typeColors = map[amount.Type]*color.Color{
	amount.TypeTotalBill: color.New(color.FgCyan, color.Bold),
	amount.TypePaid:      color.New(color.FgGreen),
	amount.TypeDue:       color.New(color.FgRed),
	amount.TypeDiscount:  color.New(color.FgMagenta),
}

// render formats a pipeline result as json, yaml or coloured text
func render(result *extraction.Result, format string, noColor bool) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling json: %w", err)
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("marshaling yaml: %w", err)
		}
		return string(data), nil
	case "text":
		if noColor {
			color.NoColor = true
		}
		return renderText(result), nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, yaml or text)", format)
	}
}

func renderText(result *extraction.Result) string {
	var b strings.Builder
	if result.Status != extraction.StatusOK {
		fmt.Fprintf(&b, "%s: %s\n", color.YellowString(result.Status), result.Reason)
		return b.String()
	}

	fmt.Fprintf(&b, "Currency:   %s\n", result.Currency)
	fmt.Fprintf(&b, "Confidence: %.3f\n", result.PipelineConfidence)
	for _, a := range result.Amounts {
		c, ok := typeColors[a.Type]
		if !ok {
			c = color.New(color.FgWhite)
		}
		fmt.Fprintf(&b, "  %s %12s  %q\n", c.Sprintf("%-10s", a.Type), a.Value, a.Source)
	}
	return b.String()
}

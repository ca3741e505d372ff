package output

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// ConsoleFormatter provides a concise console style summary via the formatter interface.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "RETIREMENT PLAN SUMMARY")
	fmt.Fprintln(&buf, "================================")

	if p := report.Projection; p != nil && len(p.Years) > 0 {
		first := p.Years[0]
		last := p.Years[len(p.Years)-1]
		fmt.Fprintf(&buf, "Horizon: %d-%d (%d years)\n", first.Year, last.Year, len(p.Years))
		fmt.Fprintf(&buf, "Starting Net Worth: %s\n", FormatCurrency(first.TotalAssets.Sub(first.TotalDebt)))
		fmt.Fprintf(&buf, "Final Net Worth:    %s\n", FormatCurrency(p.FinalNetWorth()))
		if p.RanOutOfMoney() {
			fmt.Fprintf(&buf, "WARNING: funds deplete in %d\n", p.DepletionYear)
		} else {
			fmt.Fprintln(&buf, "Funds last the full horizon")
		}
		for _, y := range p.Years {
			if y.IsRetired {
				fmt.Fprintf(&buf, "At retirement (%d, age %d): assets=%s debt=%s\n",
					y.Year, y.Age, FormatCurrency(y.TotalAssets), FormatCurrency(y.TotalDebt))
				break
			}
		}
		fmt.Fprintln(&buf)
	}

	if mc := report.MonteCarlo; mc != nil {
		fmt.Fprintln(&buf, "MONTE CARLO")
		fmt.Fprintf(&buf, "Trials: %d\n", mc.NumTrials)
		fmt.Fprintf(&buf, "Success Probability: %s\n", FormatPercentage(mc.SuccessProbability.Mul(decimal.NewFromInt(100))))
		fmt.Fprintf(&buf, "Median Ending Value: %s\n", FormatCurrency(mc.MedianEndingValue))
		if n := len(mc.Bands); n > 0 {
			last := mc.Bands[n-1]
			fmt.Fprintf(&buf, "Final Year Bands: P10=%s P50=%s P90=%s\n",
				FormatCurrency(last.P10), FormatCurrency(last.P50), FormatCurrency(last.P90))
		}
		fmt.Fprintln(&buf)
	}

	if s := report.Solver; s != nil {
		fmt.Fprintln(&buf, "SOLVERS")
		if s.EarliestRetirementAge != nil {
			fmt.Fprintf(&buf, "Earliest Sustainable Retirement Age: %d\n", *s.EarliestRetirementAge)
		} else {
			fmt.Fprintln(&buf, "Earliest Sustainable Retirement Age: not reachable in horizon")
		}
		fmt.Fprintf(&buf, "Max Sustainable Spending: %s/yr\n", FormatCurrency(s.MaxSustainableSpending))
	}

	return buf.Bytes(), nil
}

package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVFormatter exports the yearly projection (one row per year) and, when
// present, the Monte Carlo percentile bands as a second table.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if report.Projection != nil {
		header := []string{"Year", "Age", "TotalAssets", "LiquidAssets", "RealEstate", "TotalDebt", "GrossIncome", "Spending", "TaxPaid", "PenaltyPaid", "RMDFloor", "TotalWithdrawals", "IsRetired", "RanOutOfMoney"}
		if err := w.Write(header); err != nil {
			return nil, err
		}
		for _, y := range report.Projection.Years {
			row := []string{
				strconv.Itoa(y.Year),
				strconv.Itoa(y.Age),
				y.TotalAssets.StringFixed(2),
				y.LiquidAssets.StringFixed(2),
				y.RealEstate.StringFixed(2),
				y.TotalDebt.StringFixed(2),
				y.GrossIncome.StringFixed(2),
				y.Spending.StringFixed(2),
				y.TaxPaid.StringFixed(2),
				y.PenaltyPaid.StringFixed(2),
				y.RMDFloor.StringFixed(2),
				y.Withdrawals.Total().StringFixed(2),
				strconv.FormatBool(y.IsRetired),
				strconv.FormatBool(y.RanOutOfMoney),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	if report.MonteCarlo != nil {
		if report.Projection != nil {
			w.Flush()
			buf.WriteString("\n")
		}
		header := []string{"Year", "P10", "P25", "P50", "P75", "P90", "MedianWithdrawal"}
		if err := w.Write(header); err != nil {
			return nil, err
		}
		for _, b := range report.MonteCarlo.Bands {
			row := []string{
				strconv.Itoa(b.Year),
				b.P10.StringFixed(2),
				b.P25.StringFixed(2),
				b.P50.StringFixed(2),
				b.P75.StringFixed(2),
				b.P90.StringFixed(2),
				b.MedianWithdrawal.StringFixed(2),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

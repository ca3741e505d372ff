package output

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/shopspring/decimal"
)

func sampleReport() *Report {
	return &Report{
		GeneratedAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Projection: &domain.Projection{
			Years: []domain.ProjectionYear{
				{
					Year: 2026, Age: 40,
					TotalAssets:  decimal.NewFromInt(500000),
					LiquidAssets: decimal.NewFromInt(400000),
					RealEstate:   decimal.NewFromInt(100000),
					TotalDebt:    decimal.NewFromInt(200000),
					Spending:     decimal.NewFromInt(60000),
				},
				{
					Year: 2027, Age: 41,
					TotalAssets:  decimal.NewFromInt(530000),
					LiquidAssets: decimal.NewFromInt(425000),
					RealEstate:   decimal.NewFromInt(105000),
					TotalDebt:    decimal.NewFromInt(190000),
					Spending:     decimal.NewFromInt(61800),
					IsRetired:    true,
				},
			},
		},
		MonteCarlo: &domain.MonteCarloResult{
			NumTrials:          100,
			SuccessProbability: decimal.NewFromFloat(0.87),
			MedianEndingValue:  decimal.NewFromInt(900000),
			Bands: []domain.PercentileBand{{
				YearIndex: 0, Year: 2026,
				P10: decimal.NewFromInt(100), P25: decimal.NewFromInt(200),
				P50: decimal.NewFromInt(300), P75: decimal.NewFromInt(400),
				P90: decimal.NewFromInt(500),
			}},
		},
	}
}

func TestGetFormatterByName(t *testing.T) {
	for _, name := range []string{"console", "csv", "json"} {
		if GetFormatterByName(name) == nil {
			t.Errorf("formatter %q should be registered", name)
		}
	}
	if GetFormatterByName("xml") != nil {
		t.Error("unknown formatter should return nil")
	}
	// Lookup is case and whitespace tolerant.
	if GetFormatterByName(" JSON ") == nil {
		t.Error("lookup should normalize the name")
	}
}

func TestJSONFormatter(t *testing.T) {
	data, err := (JSONFormatter{}).Format(sampleReport())
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Projection.Years) != 2 {
		t.Errorf("expected two projection years, got %d", len(decoded.Projection.Years))
	}
	if decoded.MonteCarlo.NumTrials != 100 {
		t.Errorf("monte carlo trials: got %d", decoded.MonteCarlo.NumTrials)
	}
}

func TestCSVFormatter(t *testing.T) {
	data, err := (CSVFormatter{}).Format(sampleReport())
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	out := string(data)

	if !strings.HasPrefix(out, "Year,Age,TotalAssets") {
		t.Errorf("missing projection header, got %q", out[:40])
	}
	if !strings.Contains(out, "2027,41,530000.00") {
		t.Errorf("missing projection row: %s", out)
	}
	if !strings.Contains(out, "P10,P25,P50,P75,P90") {
		t.Errorf("missing monte carlo table: %s", out)
	}
}

func TestConsoleFormatter(t *testing.T) {
	data, err := (ConsoleFormatter{}).Format(sampleReport())
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"RETIREMENT PLAN SUMMARY",
		"Horizon: 2026-2027",
		"Final Net Worth:    $340000.00",
		"Success Probability: 87.00%",
		"Funds last the full horizon",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleFormatterDepletionWarning(t *testing.T) {
	report := sampleReport()
	report.MonteCarlo = nil
	report.Projection.DepletionYear = 2027

	data, err := (ConsoleFormatter{}).Format(report)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(string(data), "funds deplete in 2027") {
		t.Errorf("expected a depletion warning:\n%s", data)
	}
}

func TestWriteFormatted(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	filename, err := WriteFormatted(JSONFormatter{}, sampleReport(), "json")
	if err != nil {
		t.Fatalf("WriteFormatted: %v", err)
	}
	if !strings.HasPrefix(filename, "plan_report_") || !strings.HasSuffix(filename, ".json") {
		t.Errorf("unexpected filename %q", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("reading report file: %v", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report file is not valid JSON: %v", err)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatCurrency(decimal.NewFromFloat(1234.5)); got != "$1234.50" {
		t.Errorf("FormatCurrency: got %q", got)
	}
	if got := FormatPercentage(decimal.NewFromFloat(12.345)); got != "12.35%" {
		t.Errorf("FormatPercentage: got %q", got)
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/format"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Output selects how results are written.
type Output string

// Output formats.
const (
	OutputTable Output = "table"
	OutputJSON  Output = "json"
)

// ParseOutput validates an --format value.
func ParseOutput(s string) (Output, error) {
	switch Output(strings.ToLower(strings.TrimSpace(s))) {
	case OutputTable, "":
		return OutputTable, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", common.NewUserError(
			fmt.Sprintf("unknown output format %q; use table or json", s),
			common.ErrInvalidConfig)
	}
}

// Renderer writes results to w in the chosen format.
type Renderer struct {
	w      io.Writer
	output Output
}

// NewRenderer creates a renderer.
func NewRenderer(w io.Writer, output Output) *Renderer {
	return &Renderer{w: w, output: output}
}

func (r *Renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func (r *Renderer) println(s string) error {
	if _, err := fmt.Fprintln(r.w, s); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(SubtleColor)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}

// Prediction renders one cascade result.
func (r *Renderer) Prediction(text string, p model.PredictionResult) error {
	if r.output == OutputJSON {
		return r.writeJSON(struct {
			Text       string                 `json:"text"`
			Prediction model.PredictionResult `json:"prediction"`
		}{Text: text, Prediction: p})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Category:    %s (%s)\n", BoldStyle.Render(p.Category), format.Percent(p.CategoryConfidence))
	fmt.Fprintf(&b, "Fraud:       %s  p=%.2f", fraudStyle(p.FraudRiskLevel).Render(string(p.FraudRiskLevel)), p.FraudProbability)
	if p.IsFraud {
		b.WriteString("  " + ErrorStyle.Render("flagged"))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Normalized:  %s\n", p.NormalizedText)
	fmt.Fprintf(&b, "Model:       %s", p.ModelVersion)
	if len(p.RiskFactors) > 0 {
		fmt.Fprintf(&b, "\nFactors:     %s", strings.Join(p.RiskFactors, ", "))
	}

	return r.println(RenderBox(LensIcon+" "+text, b.String()))
}

// Report renders a full analysis report.
func (r *Renderer) Report(report model.AggregateReport) error {
	if r.output == OutputJSON {
		return r.writeJSON(report)
	}

	sections := []string{
		r.summarySection(report.Summary),
		r.cashFlowSection(report.CashFlow),
		r.forecastSection(report.Forecast),
		r.riskSection(report),
		r.profileSection(report.Profile),
		r.anomalySection(report.Anomalies),
		r.fraudSection(report.Fraud),
		r.budgetSection(report.BudgetAlerts),
		r.trendSection(report.Trends),
	}

	for _, s := range sections {
		if s == "" {
			continue
		}
		if err := r.println(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) summarySection(s model.Summary) string {
	categories := make([]string, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := s.ByCategory[categories[i]], s.ByCategory[categories[j]]
		if a != b {
			return a > b
		}
		return categories[i] < categories[j]
	})

	t := newTable("Category", "Amount", "Share")
	for _, c := range categories {
		share := "-"
		if s.TotalSpent != 0 {
			share = format.Percent(s.ByCategory[c] / s.TotalSpent)
		}
		t.Row(c, format.RupeesFloat(s.ByCategory[c]), share)
	}
	t.Row(BoldStyle.Render("Total"), BoldStyle.Render(format.RupeesFloat(s.TotalSpent)), "")

	return FormatTitle(ChartIcon+" Spending by category") + "\n" + t.String()
}

func (r *Renderer) cashFlowSection(flows []model.MonthlyCashFlow) string {
	if len(flows) == 0 {
		return ""
	}
	t := newTable("Month", "Income", "Expense", "Savings")
	for _, f := range flows {
		savings := format.RupeesFloat(f.Savings)
		if f.Savings < 0 {
			savings = ErrorStyle.Render(savings)
		}
		t.Row(f.Month, format.RupeesFloat(f.Income), format.RupeesFloat(f.Expense), savings)
	}
	return FormatTitle("Monthly cash flow") + "\n" + t.String()
}

func (r *Renderer) forecastSection(points []model.ForecastPoint) string {
	if len(points) == 0 {
		return ""
	}
	t := newTable("Month", "Predicted spending")
	for _, p := range points {
		t.Row("+"+strconv.Itoa(p.MonthOffset), format.RupeesFloat(p.PredictedSpending))
	}
	return FormatTitle("Forecast") + "\n" + t.String()
}

func (r *Renderer) riskSection(report model.AggregateReport) string {
	risk := report.Risk
	var b strings.Builder
	fmt.Fprintf(&b, "Cash-flow risk: %s\n", riskStyle(risk.Risk).Render(strings.ToUpper(string(risk.Risk))))
	fmt.Fprintf(&b, "Reason:         %s\n", risk.Reason)
	fmt.Fprintf(&b, "Income:         %s\n", format.RupeesFloat(risk.TotalIncome))
	fmt.Fprintf(&b, "Avg expense:    %s\n", format.RupeesFloat(risk.AvgExpense))
	fmt.Fprintf(&b, "Stress score:   %.2f", report.StressScore)
	return FormatTitle("Risk") + "\n" + b.String()
}

func (r *Renderer) profileSection(p model.Profile) string {
	top := "-"
	if len(p.TopCategories) > 0 {
		top = strings.Join(p.TopCategories, ", ")
	}
	return FormatTitle("Behaviour") + "\n" +
		fmt.Sprintf("Profile:        %s\nTop categories: %s\nImpulsive share: %s",
			BoldStyle.Render(p.Profile), top, format.Percent(p.ImpulsiveScore))
}

func (r *Renderer) anomalySection(anomalies []model.Anomaly) string {
	if len(anomalies) == 0 {
		return FormatTitle("Anomalies") + "\n" + SuccessStyle.Render("None detected")
	}
	t := newTable("Date", "Description", "Amount", "z")
	for _, a := range anomalies {
		t.Row(a.Date, a.Description, format.Rupees(a.Amount), fmt.Sprintf("%.2f", a.ZScore))
	}
	return FormatTitle("Anomalies") + "\n" + t.String()
}

func (r *Renderer) fraudSection(f model.FraudSummary) string {
	line := fmt.Sprintf("%d of %d transactions flagged (%.2f%%)", f.Flagged, f.Total, f.Percentage)
	style := SuccessStyle
	if f.Flagged > 0 {
		style = WarningStyle
	}
	return FormatTitle("Fraud") + "\n" + style.Render(line)
}

func (r *Renderer) budgetSection(breaches []model.BudgetBreach) string {
	if len(breaches) == 0 {
		return ""
	}
	t := newTable("Category", "Spent", "Limit", "Over")
	for _, b := range breaches {
		t.Row(b.Category, format.RupeesFloat(b.Spent), format.RupeesFloat(b.Limit), ErrorStyle.Render(format.RupeesFloat(b.Over)))
	}
	return FormatTitle(WarningIcon+" Budget alerts") + "\n" + t.String()
}

func (r *Renderer) trendSection(trends model.TrendSample) string {
	if len(trends.Entries) == 0 {
		return ""
	}
	t := newTable("Month", "Category", "Amount")
	for _, e := range trends.Entries {
		t.Row(e.Month, e.Category, format.RupeesFloat(e.Amount))
	}
	out := FormatTitle("Trends") + "\n" + t.String()
	if trends.Truncated {
		out += "\n" + SubtitleStyle.Render(fmt.Sprintf("showing first %d entries", trends.Limit))
	}
	return out
}

// Outcome renders a scenario comparison.
func (r *Renderer) Outcome(outcome model.Outcome) error {
	if r.output == OutputJSON {
		return r.writeJSON(outcome)
	}

	c := outcome.Comparison
	name := outcome.Scenario.Name
	if name == "" {
		name = string(outcome.Scenario.Kind)
	}

	t := newTable("Category", "Baseline", "What-if", "Delta")
	for _, d := range c.Categories {
		t.Row(d.Category, format.RupeesFloat(d.Baseline), format.RupeesFloat(d.WhatIf), signed(d.Delta))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total spent:   %s\n", signed(c.TotalDelta))
	fmt.Fprintf(&b, "Next forecast: %s\n", signed(c.ForecastDelta))
	fmt.Fprintf(&b, "Risk:          %s -> %s\n",
		riskStyle(c.BaselineRisk).Render(string(c.BaselineRisk)),
		riskStyle(c.WhatIfRisk).Render(string(c.WhatIfRisk)))
	fmt.Fprintf(&b, "Stress score:  %+.2f\n", c.StressDelta)
	fmt.Fprintf(&b, "Profile:       %s -> %s\n", c.BaselineProfile, c.WhatIfProfile)
	fmt.Fprintf(&b, "Anomalies:     %+d", c.AnomalyCountDelta)

	return r.println(FormatTitle("Scenario: "+name) + "\n" + t.String() + "\n" + b.String())
}

func signed(v float64) string {
	switch {
	case v > 0:
		return WarningStyle.Render("+" + format.RupeesFloat(v))
	case v < 0:
		return SuccessStyle.Render(format.RupeesFloat(v))
	default:
		return format.RupeesFloat(0)
	}
}

// Forecast renders forecast points on their own.
func (r *Renderer) Forecast(points []model.ForecastPoint) error {
	if r.output == OutputJSON {
		return r.writeJSON(points)
	}
	if len(points) == 0 {
		return r.println(FormatInfo("No forecast requested"))
	}
	return r.println(r.forecastSection(points))
}

// Feedback renders stored category corrections.
func (r *Renderer) Feedback(items []model.Feedback) error {
	if r.output == OutputJSON {
		return r.writeJSON(items)
	}
	if len(items) == 0 {
		return r.println(FormatInfo("No feedback recorded"))
	}
	t := newTable("ID", "Recorded", "Description", "Predicted", "Corrected")
	for _, f := range items {
		t.Row(strconv.FormatInt(f.ID, 10), f.RecordedAt.Format("2006-01-02 15:04"), f.Description, f.PredictedCategory, f.CorrectedCategory)
	}
	return r.println(t.String())
}

// History renders stored analyses.
func (r *Renderer) History(records []model.AnalysisRecord) error {
	if r.output == OutputJSON {
		return r.writeJSON(records)
	}
	if len(records) == 0 {
		return r.println(FormatInfo("No saved analyses"))
	}
	t := newTable("ID", "Created", "Label", "Txns", "Spent", "Risk", "Profile")
	for _, rec := range records {
		t.Row(
			rec.ID,
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.Label,
			strconv.Itoa(rec.TransactionCount),
			format.RupeesFloat(rec.Report.Summary.TotalSpent),
			riskStyle(rec.Report.Risk.Risk).Render(string(rec.Report.Risk.Risk)),
			rec.Report.Profile.Profile,
		)
	}
	return r.println(t.String())
}

// Analysis renders a saved analysis with the scenarios linked to it.
func (r *Renderer) Analysis(record model.AnalysisRecord, scenarios []model.ScenarioRecord) error {
	if r.output == OutputJSON {
		return r.writeJSON(struct {
			Analysis  model.AnalysisRecord   `json:"analysis"`
			Scenarios []model.ScenarioRecord `json:"scenarios"`
		}{Analysis: record, Scenarios: scenarios})
	}

	header := fmt.Sprintf("%s  %s  (%d transactions)",
		record.Label, record.CreatedAt.Format("2006-01-02 15:04"), record.TransactionCount)
	if err := r.println(FormatTitle(header)); err != nil {
		return err
	}
	if err := r.Report(record.Report); err != nil {
		return err
	}
	for _, sc := range scenarios {
		if err := r.Outcome(sc.Outcome()); err != nil {
			return err
		}
	}
	return nil
}

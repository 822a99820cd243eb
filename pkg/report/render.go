package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Render
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Render writes rep to w in the given format
func Render(w io.Writer, rep *Report, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatText, "":
		return renderText(w, rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}

func renderText(w io.Writer, rep *Report) error {
	var b strings.Builder
	last := -1
	for _, s := range rep.Summaries {
		if s.Threshold != last {
			if last != -1 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "For N = %d\n", s.Threshold)
			last = s.Threshold
		}
		fmt.Fprintf(&b, "When A = %d\n", s.Baseline)
		fmt.Fprintf(&b, "mean = %.10f\n", s.Mean)
		fmt.Fprintf(&b, "sd   = %.10f\n", s.StdDev)
		if s.Conditional != nil {
			fmt.Fprintf(&b, "P(%d <= overshoot < %d | %d drawn) = %.10f\n",
				rep.Event.From, rep.Event.To, rep.ConditionValue, *s.Conditional)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

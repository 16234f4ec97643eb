package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/mvp-joe/ccflex/internal/features"
	"github.com/mvp-joe/ccflex/internal/lines"
	"github.com/schollz/progressbar/v3"
)

// linesProgressReporter shows a per-file progress bar during line extraction.
type linesProgressReporter struct {
	quiet bool
	out   io.Writer
	bar   *progressbar.ProgressBar
}

// NewLinesProgressReporter creates a progress reporter for line extraction.
func NewLinesProgressReporter(quiet bool, out io.Writer) lines.ProgressReporter {
	if quiet {
		return lines.NoOpProgressReporter{}
	}
	return &linesProgressReporter{out: out}
}

func (p *linesProgressReporter) OnResolveComplete(files int) {
	p.bar = progressbar.NewOptions(files,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("Extracting lines"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.out)
		}),
	)
}

func (p *linesProgressReporter) OnFileExtracted(path string, rows int) {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

func (p *linesProgressReporter) OnComplete(stats *lines.Stats) {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
	fmt.Fprintf(p.out, "✓ Extracted %s lines from %s files in %.1fs\n",
		formatNumber(stats.Lines), formatNumber(stats.Files), stats.Duration.Seconds())
	if stats.Duplicates > 0 || stats.DecodeErrors > 0 {
		fmt.Fprintf(p.out, "  Duplicates dropped: %s\n", formatNumber(stats.Duplicates))
		fmt.Fprintf(p.out, "  Undecodable lines:  %s\n", formatNumber(stats.DecodeErrors))
	}
}

// featuresProgressReporter shows a row spinner during feature extraction.
// The row count is unknown up front.
type featuresProgressReporter struct {
	out  io.Writer
	bar  *progressbar.ProgressBar
	seen int
}

// NewFeaturesProgressReporter creates a progress reporter for feature extraction.
func NewFeaturesProgressReporter(quiet bool, out io.Writer) features.ProgressReporter {
	if quiet {
		return features.NoOpProgressReporter{}
	}
	return &featuresProgressReporter{
		out: out,
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Extracting features"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("rows/s"),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(out)
			}),
		),
	}
}

func (p *featuresProgressReporter) OnRow(rows int) {
	if delta := rows - p.seen; delta > 0 {
		p.bar.Add(delta)
		p.seen = rows
	}
}

func (p *featuresProgressReporter) OnComplete(stats *features.Stats) {
	p.bar.Finish()
	fmt.Fprintf(p.out, "✓ Extracted %s features for %s rows in %.1fs\n",
		formatNumber(stats.Features), formatNumber(stats.Rows), stats.Duration.Seconds())
}

// formatNumber formats an integer with thousands separators.
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

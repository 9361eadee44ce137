package sentinelhub

import (
	"fmt"
	"strings"

	"github.com/cropsight/crop-damage-verifier/internal/domain"
)

// buildEvalscript renders the per-pixel computation for one sensor's index
// layers. Normalized differences are computed per pixel before the API
// reduces each output to AOI statistics; single radar bands are converted to
// decibels. The dataMask output lets the API separate masked pixels from
// real samples.
func buildEvalscript(specs []domain.IndexSpec) string {
	inputs := inputBands(specs)

	var outputs, pixels []string
	for _, spec := range specs {
		outputs = append(outputs, fmt.Sprintf(`      {id: %q, bands: 1, sampleType: "FLOAT32"},`, spec.Name))
		pixels = append(pixels, fmt.Sprintf("    %s: [%s],", spec.Name, pixelExpr(spec)))
	}
	outputs = append(outputs, `      {id: "dataMask", bands: 1},`)
	pixels = append(pixels, "    dataMask: [s.dataMask],")

	var b strings.Builder
	b.WriteString("//VERSION=3\n")
	b.WriteString("function setup() {\n")
	b.WriteString("  return {\n")
	fmt.Fprintf(&b, "    input: [{bands: [%s]}],\n", strings.Join(inputs, ", "))
	b.WriteString("    output: [\n")
	b.WriteString(strings.Join(outputs, "\n"))
	b.WriteString("\n    ]\n  };\n}\n\n")
	b.WriteString("function evaluatePixel(s) {\n")
	b.WriteString("  return {\n")
	b.WriteString(strings.Join(pixels, "\n"))
	b.WriteString("\n  };\n}\n")
	return b.String()
}

func pixelExpr(spec domain.IndexSpec) string {
	if spec.NormalizedDifference() {
		return fmt.Sprintf("(s.%s - s.%s) / (s.%s + s.%s)", spec.BandA, spec.BandB, spec.BandA, spec.BandB)
	}
	if spec.Unit == "dB" {
		// GRD pixels are linear power; the thresholds are in dB.
		return fmt.Sprintf("10 * Math.log(s.%s) / Math.LN10", spec.BandA)
	}
	return fmt.Sprintf("s.%s", spec.BandA)
}

// inputBands collects the distinct source bands plus dataMask, quoted for the
// setup block, in first-use order.
func inputBands(specs []domain.IndexSpec) []string {
	var bands []string
	seen := make(map[string]bool)
	add := func(band string) {
		if band != "" && !seen[band] {
			seen[band] = true
			bands = append(bands, fmt.Sprintf("%q", band))
		}
	}
	for _, spec := range specs {
		add(spec.BandA)
		add(spec.BandB)
	}
	add("dataMask")
	return bands
}

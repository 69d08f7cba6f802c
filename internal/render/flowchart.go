package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/rcarv/factory-planner/pkg/factory"
)

// recyclerMachineKey marks variants that run material backwards; their
// nodes get a distinguishing border in the chart.
const recyclerMachineKey = "recycler"

const flowChartClassDefs = `    classDef normal fill:#BCBCBC
    classDef uncommon fill:#77E66A
    classDef rare fill:#4890F2
    classDef epic fill:#AF24F0
    classDef legendary fill:#EC9736
    classDef normal-recycling fill:#BCBCBC,stroke:#f5495a,stroke-width:4px
    classDef uncommon-recycling fill:#77E66A,stroke:#f5495a,stroke-width:4px
    classDef rare-recycling fill:#4890F2,stroke:#f5495a,stroke-width:4px
    classDef epic-recycling fill:#AF24F0,stroke:#f5495a,stroke-width:4px
    classDef legendary-recycling fill:#EC9736,stroke:#f5495a,stroke-width:4px`

// FlowChart renders the solved plan as a Mermaid graph: one subgraph per
// recipe, one node per (quality, machine, module loadout) sized by the
// rounded-up building count, color-coded by quality tier.
func FlowChart(report *factory.SolveReport, names *Names) string {
	var sb strings.Builder
	classes := make(map[string][]string)
	var classOrder []string

	sb.WriteString("graph LR\n")

	addNode := func(recipeKey, quality string, rec factory.CraftingRecipe, lines *[]string) {
		graphID := sanitizeID(fmt.Sprintf("%s_%s_%s", recipeKey, rec.Machine, quality))
		classID := quality
		if rec.Machine == recyclerMachineKey {
			classID += "-recycling"
		}
		if _, ok := classes[classID]; !ok {
			classOrder = append(classOrder, classID)
		}
		classes[classID] = append(classes[classID], graphID)

		mods := moduleLabel(rec.NumQualModules, rec.NumProdModules, rec.NumBeaconedSpeedModules)
		if mods != "" {
			mods = " " + mods
		}
		label := fmt.Sprintf("%s - %s - %s%s x %d",
			stripParens(names.Recipe(recipeKey)), quality, names.Item(rec.Machine), mods,
			int(math.Ceil(rec.NumBuildings)))
		*lines = append(*lines, fmt.Sprintf("%s[%s]", graphID, label))
	}

	for _, recipeKey := range sortedKeys(report.CraftingRecipes) {
		byQuality := report.CraftingRecipes[recipeKey]
		var lines []string
		for _, quality := range sortedQualities(byQuality) {
			for _, rec := range byQuality[quality] {
				addNode(recipeKey, quality, rec, &lines)
			}
		}
		fmt.Fprintf(&sb, "subgraph %s\n%s\nend\n", stripParens(names.Recipe(recipeKey)), strings.Join(lines, "\n"))
	}

	for _, resourceKey := range sortedKeys(report.MiningRecipes) {
		var lines []string
		for _, rec := range report.MiningRecipes[resourceKey] {
			addNode(resourceKey, "normal", factory.CraftingRecipe{
				NumBuildings:            rec.NumBuildings,
				Machine:                 rec.Machine,
				NumQualModules:          rec.NumQualModules,
				NumProdModules:          rec.NumProdModules,
				NumBeaconedSpeedModules: rec.NumBeaconedSpeedModules,
			}, &lines)
		}
		fmt.Fprintf(&sb, "subgraph %s\n%s\nend\n", stripParens(names.Item(resourceKey))+" mining", strings.Join(lines, "\n"))
	}

	sb.WriteString(flowChartClassDefs)
	sb.WriteString("\n")
	for _, classID := range classOrder {
		fmt.Fprintf(&sb, "class %s %s\n", strings.Join(classes[classID], ","), classID)
	}

	return sb.String()
}

// WriteFlowChartHTML wraps the Mermaid source in a self-contained page.
func WriteFlowChartHTML(w io.Writer, report *factory.SolveReport, names *Names) error {
	html := fmt.Sprintf(`<!doctype html>
<html lang="en">
  <body>
    <pre class="mermaid">
%s
    </pre>
    <script type="module">
      import mermaid from 'https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs';
    </script>
  </body>
</html>
`, FlowChart(report, names))
	_, err := io.WriteString(w, html)
	return err
}

func stripParens(s string) string {
	return strings.NewReplacer("(", "", ")", "").Replace(s)
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_' || r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

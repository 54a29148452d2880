package wikipedia

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/reshape"
	"bogoinsight/internal/table"
)

// GPUURL is the article listing Nvidia graphics processors.
const GPUURL = BaseURL + "List_of_Nvidia_graphics_processing_units"

const (
	modelColumn        = "model"
	fabModelColumn     = "fab model"
	fabColumn          = "fab (nm)"
	architectureColumn = "architecture"
	memoryColumn       = "Memory - Size (GB)"
	usageDataCenter    = "data center"
)

var gpuInfo = crawler.Info{
	Topic:       "Nvidia GPU Specs",
	Description: "Specs on Nvidia GPUs that are crucial for machine learning.",
	Tags:        []string{"GPU", "machine learning"},
	SourceDescription: "Wikipedia: https://en.wikipedia.org/wiki/List_of_Nvidia_graphics_processing_units " +
		"Nvidia official website: https://www.nvidia.com/",
}

// headerAliases unify spellings that differ between the article's tables.
var headerAliases = map[string]string{
	"TDP (W)":                         "TDP (Watts)",
	"Clock speeds - Base core (MHz)":  "Clock speeds - Base core clock (MHz)",
	"Clock speeds - Boost core (MHz)": "Clock speeds - Boost core clock (MHz)",
}

var desktopColumns = normalizer.MustMapping("desktop gpu columns",
	pair{From: "Model", To: modelColumn},
	pair{From: "Launch", To: "period"},
	pair{From: "Process", To: fabModelColumn},
	pair{From: "Core config", To: "CUDA cores"},
	pair{From: memoryColumn, To: "memory (GB)"},
	pair{From: "Memory - Bandwidth (GB/s)", To: "bandwidth (GB/s)"},
	pair{From: "Memory - Bus type", To: "memory bus type"},
	pair{From: "Clock speeds - Base core clock (MHz)", To: "base clock (MHz)"},
	pair{From: "Clock speeds - Boost core clock (MHz)", To: "boost clock (MHz)"},
	pair{From: "Processing power (TFLOPS) - Double precision", To: "processing power fp64 (TFLOPS)"},
	pair{From: "Processing power (TFLOPS) - Single precision", To: "processing power fp32 (TFLOPS)"},
	pair{From: "Processing power (TFLOPS) - Half precision", To: "processing power fp16 (TFLOPS)"},
	pair{From: "TDP (Watts)", To: "TDP (Watts)"},
)

var dataCenterColumns = normalizer.MustMapping("data center gpu columns",
	pair{From: "Model", To: modelColumn},
	pair{From: "Launch", To: "period"},
	pair{From: "Shaders - CUDA cores (total)", To: "CUDA cores"},
	pair{From: memoryColumn, To: "memory (GB)"},
	pair{From: "Memory - Bandwidth (GB/s)", To: "bandwidth (GB/s)"},
	pair{From: "Memory - Bus type", To: "memory bus type"},
	pair{From: "Shaders - Base clock (MHz)", To: "base clock (MHz)"},
	pair{From: "Shaders - Max boost clock (MHz)", To: "boost clock (MHz)"},
	pair{From: "Processing power (TFLOPS) - Double precision (FMA)", To: "processing power fp64 (TFLOPS)"},
	pair{From: "Processing power (TFLOPS) - Single precision (MAD or FMA)", To: "processing power fp32 (TFLOPS)"},
	pair{From: "Processing power (TFLOPS) - Half precision Tensor Core FP32 Accumulate", To: "processing power fp16 (TFLOPS)"},
	pair{From: "Micro- architecture", To: architectureColumn},
	pair{From: "TDP (Watts)", To: "TDP (Watts)"},
)

var gpuTypes = map[string]normalizer.Coercion{
	"period":                         normalizer.AsDate,
	"CUDA cores":                     normalizer.NumberBefore(":"),
	"memory (GB)":                    normalizer.AsNumber,
	"bandwidth (GB/s)":               normalizer.AsNumber,
	"base clock (MHz)":               normalizer.AsNumber,
	"boost clock (MHz)":              normalizer.AsNumber,
	"processing power fp64 (TFLOPS)": normalizer.AsNumber,
	"processing power fp32 (TFLOPS)": normalizer.AsNumber,
	"processing power fp16 (TFLOPS)": normalizer.AsNumber,
	"TDP (Watts)":                    normalizer.AsNumber,
}

// Data center tables carry no process column.
var architectureFabs = normalizer.MustMapping("architecture fab",
	pair{From: "Pascal", To: "TSMC 16FF"},
	pair{From: "Volta", To: "TSMC 12FFN"},
	pair{From: "Turing", To: "TSMC 12FFN"},
	pair{From: "Ampere", To: "TSMC N7"},
	pair{From: "Hopper", To: "TSMC 4N"},
	pair{From: "Ada Lovelace", To: "TSMC 4N"},
)

var fabNodes = map[string]float64{
	"TSMC 16FF":    14,
	"TSMC 12FFN":   14,
	"Samsung 8LPP": 10,
	"TSMC N7":      7,
	"TSMC 4N":      5,
}

var gpuLeadColumns = []string{"period", "usage", "series", architectureColumn, fabColumn}

// gpuSection is one article section and the models picked from its table.
type gpuSection struct {
	id           string
	models       []string
	usage        string
	series       string
	architecture string
	columns      *normalizer.Mapping
}

var gpuSections = []gpuSection{
	{
		id:           "GeForce_10_series",
		models:       []string{"GeForce GTX 1080", "GeForce GTX 1080 Ti", "TITAN X Pascal", "TITAN Xp"},
		usage:        "desktop",
		series:       "GeForce 10 series",
		architecture: "Pascal",
		columns:      desktopColumns,
	},
	{
		id:           "Volta_series",
		models:       []string{"Nvidia TITAN V"},
		usage:        "desktop",
		series:       "Volta series",
		architecture: "Volta",
		columns:      desktopColumns,
	},
	{
		id:           "RTX_20_series",
		models:       []string{"GeForce RTX 2070", "GeForce RTX 2080", "GeForce RTX 2080 Ti", "Nvidia TITAN RTX"},
		usage:        "desktop",
		series:       "GeForce 20 series",
		architecture: "Turing",
		columns:      desktopColumns,
	},
	{
		id: "RTX_30_series",
		models: []string{
			"GeForce RTX 3070", "GeForce RTX 3070 Ti", "GeForce RTX 3080",
			"GeForce RTX 3080 Ti", "GeForce RTX 3090", "GeForce RTX 3090 Ti",
		},
		usage:        "desktop",
		series:       "GeForce 30 series",
		architecture: "Ampere",
		columns:      desktopColumns,
	},
	{
		id:           "RTX_40_series",
		models:       []string{"GeForce RTX 4070", "GeForce RTX 4070 Ti", "GeForce RTX 4080", "GeForce RTX 4090"},
		usage:        "desktop",
		series:       "GeForce 40 series",
		architecture: "Ada Lovelace",
		columns:      desktopColumns,
	},
	{
		id: "Tesla",
		models: []string{
			"P100 GPU accelerator (mezzanine)",
			"P100 GPU accelerator (12 GB card)",
			"P100 GPU accelerator (16 GB card)",
			"P4 GPU accelerator",
			"P40 GPU accelerator",
			"V100 GPU accelerator (mezzanine)",
			"V100 GPU accelerator (PCIe card)",
			"V100 GPU accelerator (PCIe FHHL card)",
			"T4 GPU accelerator (PCIe card)",
			"A100 GPU accelerator (PCIe card)",
			"A40 GPU accelerator (PCIe card)",
			"A30 GPU accelerator (PCIe card)",
			"A10 GPU accelerator (PCIe card)",
			"H100 GPU accelerator (PCIe card)",
			"H100 GPU accelerator (SXM card)",
			"L40 GPU accelerator",
		},
		usage:   usageDataCenter,
		series:  "Data Center GPUs",
		columns: dataCenterColumns,
	},
}

// GPUSpecs picks machine learning relevant models out of several sections
// of the Nvidia GPU article.
type GPUSpecs struct {
	fetcher   crawler.Fetcher
	url       string
	sections  []gpuSection
	processor *normalizer.Processor
}

// NewGPUSpecs creates a new GPUSpecs instance. An empty url uses GPUURL.
func NewGPUSpecs(f crawler.Fetcher, url string) *GPUSpecs {
	return newGPUSpecs(f, url, gpuSections)
}

func newGPUSpecs(f crawler.Fetcher, url string, sections []gpuSection) *GPUSpecs {
	if url == "" {
		url = GPUURL
	}

	return &GPUSpecs{fetcher: f, url: url, sections: sections, processor: normalizer.NewProcessor()}
}

// Info returns the static description of the dataset.
func (c *GPUSpecs) Info() crawler.Info { return gpuInfo }

// Crawl returns one grid per section, in section order.
func (c *GPUSpecs) Crawl(ctx context.Context) (*crawler.RawData, error) {
	doc, err := page(ctx, c.fetcher, c.url)
	if err != nil {
		return nil, err
	}

	raw := &crawler.RawData{}

	for _, s := range c.sections {
		g, err := extract.SectionTable(doc, s.id)
		if err != nil {
			return nil, err
		}

		raw.Grids = append(raw.Grids, g)
	}

	return raw, nil
}

// Process normalizes every section and stacks them into one model table.
func (c *GPUSpecs) Process(raw *crawler.RawData, report *normalizer.Report) (*table.Table, error) {
	if err := raw.GridCount(len(c.sections)); err != nil {
		return nil, err
	}

	t := table.New(modelColumn)

	for i, s := range c.sections {
		g, _ := raw.Grid(i)

		batch, err := c.section(s, g, report)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", s.id, err)
		}

		var cols []string

		for _, col := range batch.Columns {
			if col != modelColumn {
				cols = append(cols, col)
			}
		}

		for _, rec := range batch.Records {
			values := make([]table.Value, len(cols))
			for j, col := range cols {
				values[j] = rec[col]
			}

			if err := t.AppendValues(rec[modelColumn], cols, values); err != nil {
				return nil, fmt.Errorf("section %s: %w", s.id, err)
			}
		}
	}

	t.Reorder(gpuLeadColumns...)

	return t, nil
}

// section returns the section's selected rows with the derived columns appended.
func (c *GPUSpecs) section(s gpuSection, g *extract.Grid, report *normalizer.Report) (*normalizer.Batch, error) {
	g, scaled := unifyHeaders(g)

	required := []string{"Model", "Launch", memoryColumn}
	if err := g.Require(required...); err != nil {
		return nil, err
	}

	wanted := allow(s.models...)
	g.Filter(func(row []string) bool {
		return wanted[normalizer.Clean(g.Cell(row, "Model"))] &&
			normalizer.Clean(g.Cell(row, "Launch")) != "Unlaunched"
	})

	suffixModels(g)
	g = splitMemoryOptions(g)

	types := make(map[string]normalizer.Coercion, len(gpuTypes))
	for k, v := range gpuTypes {
		types[k] = v
	}

	for raw := range scaled {
		if name, ok := s.columns.Lookup(raw); ok {
			types[name] = normalizer.Scaled(0.001, 3)
		}
	}

	batch, err := c.processor.Process(g, normalizer.GridSpec{Columns: s.columns, Types: types})
	if err != nil {
		return nil, err
	}

	for _, rec := range batch.Records {
		rec["usage"] = table.Text(s.usage)
		rec["series"] = table.Text(s.series)

		if s.architecture != "" {
			rec[architectureColumn] = table.Text(s.architecture)
		}

		if s.usage == usageDataCenter {
			rec[fabModelColumn] = table.Missing()

			if arch, ok := rec[architectureColumn].Str(); ok {
				if fab, ok := architectureFabs.Map(arch, report); ok {
					rec[fabModelColumn] = table.Text(fab)
				}
			}
		}

		rec[fabColumn] = table.Missing()

		if fab, ok := rec[fabModelColumn].Str(); ok {
			if nm, ok := fabNodes[fab]; ok {
				rec[fabColumn] = table.Number(nm)
			} else {
				report.Unmapped("fab node", fab)
			}
		}
	}

	for _, col := range []string{"usage", "series", architectureColumn, fabModelColumn, fabColumn} {
		if !slices.Contains(batch.Columns, col) {
			batch.Columns = append(batch.Columns, col)
		}
	}

	return batch, nil
}

// unifyHeaders copies the grid, applying header aliases and renaming GFLOPS
// columns to TFLOPS. It returns the renamed headers whose values need scaling.
func unifyHeaders(g *extract.Grid) (*extract.Grid, map[string]bool) {
	out := &extract.Grid{Source: g.Source, Header: make([]string, len(g.Header)), Rows: make([][]string, len(g.Rows))}
	scaled := make(map[string]bool)

	for r, row := range g.Rows {
		out.Rows[r] = append([]string(nil), row...)
	}

	for i, h := range g.Header {
		if alias, ok := headerAliases[h]; ok {
			h = alias
		}

		if strings.Contains(h, "(GFLOPS)") {
			h = strings.Replace(h, "(GFLOPS)", "(TFLOPS)", 1)
			scaled[h] = true
		}

		out.Header[i] = h
	}

	return out, scaled
}

// suffixModels gives repeated model names " v2", " v3" suffixes.
func suffixModels(g *extract.Grid) {
	i := g.Index("Model")

	names := make([]string, len(g.Rows))
	for r, row := range g.Rows {
		names[r] = normalizer.Clean(row[i])
	}

	for r, n := range reshape.SuffixDuplicates(names) {
		g.Rows[r][i] = n
	}
}

// splitMemoryOptions turns a row sold with "X or Y" GB of memory into one
// row per option named "<model> - XG". The second options follow all rows.
func splitMemoryOptions(g *extract.Grid) *extract.Grid {
	model, memory := g.Index("Model"), g.Index(memoryColumn)
	out := &extract.Grid{Source: g.Source, Header: g.Header}

	var extra [][]string

	for _, row := range g.Rows {
		first, second, ok := strings.Cut(normalizer.Clean(row[memory]), " or ")
		if !ok {
			out.Rows = append(out.Rows, row)

			continue
		}

		name := normalizer.Clean(row[model])

		for i, option := range []string{first, second} {
			r := append([]string(nil), row...)
			r[model] = fmt.Sprintf("%s - %sG", name, strings.TrimSpace(option))
			r[memory] = strings.TrimSpace(option)

			if i == 0 {
				out.Rows = append(out.Rows, r)
			} else {
				extra = append(extra, r)
			}
		}
	}

	out.Rows = append(out.Rows, extra...)

	return out
}

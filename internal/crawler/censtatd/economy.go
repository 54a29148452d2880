package censtatd

import (
	"bogoinsight/internal/crawler"
	"bogoinsight/internal/normalizer"
)

var gdpDefinition = Definition{
	Info: crawler.Info{
		Topic: "Hong Kong GDP Growth",
		Description: "GDP of Hong Kong in current and chained dollars with year-on-year rates, " +
			"the seasonally adjusted quarter-on-quarter rate and the implicit price deflator.",
		Tags:              []string{"Hong Kong", "GDP"},
		SourceDescription: sourceDescription("310-31001"),
	},
	Query: Query{
		ID:   "310-31001",
		Lang: "en",
		CV:   map[string][]string{},
		SV: map[string][]string{
			"CUR": {"Raw_M_hkd_d", "YoY_1dp_%_s"},
			"CON": {"Raw_M_hkd_d", "YoY_1dp_%_s"},
			"DEF": {"Raw_1dp_idx_n", "YoY_1dp_%_s"},
			"SA1": {"QoQ_1dp_%_s"},
		},
		Period: Period{Start: "199003"},
		Freq:   "Q",
	},
	PeriodLayout: Monthly,
	DropFreq:     "Y",
	Metrics: normalizer.MustMapping("sv",
		pair{From: "CUR", To: "GDP current"},
		pair{From: "CON", To: "GDP chained (2021)"},
		pair{From: "DEF", To: "implicit price deflator"},
		pair{From: "SA1", To: "GDP seasonally adjusted"},
	),
	Units: normalizer.MustMapping("svDesc",
		pair{From: "HK$ million", To: "M HKD"},
		pair{From: "Year-on-year % change", To: "rate YoY"},
		pair{From: "Index (Year 2021=100)", To: "index 2021=100"},
		pair{From: "Quarter-to-quarter % change", To: "rate QoQ"},
	),
	Labels: normalizer.MustLabelRules("{metric} ({unit})", nil),
}

var foreignInvestmentDefinition = Definition{
	Info: crawler.Info{
		Topic: "Hong Kong Foreign Investment",
		Description: "Foreign direct investment of Hong Kong by major source economy: " +
			"year-end position, inflow and income outflow. Yearly data since 1998.",
		Tags:              []string{"Hong Kong", "foreign investment"},
		SourceDescription: sourceDescription("315-38011"),
	},
	Query: Query{
		ID:   "315-38011",
		Lang: "en",
		CV:   map[string][]string{"COUNTRY": {"VG", "CN", "GB", "KY", "BM", "US"}},
		SV: map[string][]string{
			"DI_POS_IDI":        {"Raw_B_1dp_hkd_d"},
			"DI_INCOME_OUTFLOW": {"Raw_B_1dp_hkd_d"},
			"DI_INFLOW":         {"Raw_B_1dp_hkd_d"},
		},
		Period: Period{Start: "196101"},
	},
	PeriodLayout: Yearly,
	Metrics: normalizer.MustMapping("sv",
		pair{From: "DI_POS_IDI", To: "year end direct investment position"},
		pair{From: "DI_INCOME_OUTFLOW", To: "direct investment income outflow"},
		pair{From: "DI_INFLOW", To: "direct investment inflow"},
	),
	Units:          normalizer.MustMapping("svDesc", pair{From: "HK$ billion", To: "HK$B"}),
	Dimension:      "COUNTRY",
	BlankDimension: "all",
	Labels:         normalizer.MustLabelRules("{metric} {sub} ({unit})", nil),
}

// GDP crawls quarterly GDP figures.
func GDP(f crawler.Fetcher, endpoint string) *Crawler {
	return New(gdpDefinition, f, endpoint)
}

// ForeignInvestment crawls yearly direct investment by economy.
func ForeignInvestment(f crawler.Fetcher, endpoint string) *Crawler {
	return New(foreignInvestmentDefinition, f, endpoint)
}

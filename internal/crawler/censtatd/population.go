package censtatd

import (
	"bogoinsight/internal/crawler"
	"bogoinsight/internal/normalizer"
)

// HouseholdGrowthColumn is derived from the household total.
const HouseholdGrowthColumn = "household growth rate (%)"

var householdCountDefinition = Definition{
	Info: crawler.Info{
		Topic:             "Hong Kong Household Count",
		Description:       "Domestic households of Hong Kong by tenure, as counts and percentage shares, quarterly.",
		Tags:              []string{"Hong Kong", "household"},
		SourceDescription: sourceDescription("130-06604"),
	},
	Query: Query{
		ID:     "130-06604",
		Lang:   "en",
		CV:     map[string][]string{"TENURE": {"1", "2", "3", "4", "5", "1.1", "1.2"}},
		SV:     map[string][]string{"DH": {"Raw_K_1dp_hh_n", "Prop_1dp_%_n"}},
		Period: Period{Start: "200201"},
		Freq:   "Q",
	},
	PeriodLayout: Monthly,
	DropFreq:     "Y",
	QuarterEnds:  true,
	Metrics:      normalizer.MustMapping("sv", pair{From: "DH", To: "households"}),
	Units: normalizer.MustMapping("svDesc",
		pair{From: "Percentage share (%)", To: "%"},
		pair{From: "No. ('000)", To: "'000"},
	),
	Dimension: "TENUREDesc",
	Dimensions: normalizer.MustMapping("TENUREDesc",
		pair{From: "Total", To: "total"},
		pair{From: "Owner-occupiers", To: "owner-occupier total"},
		pair{From: "Residing in private sector housing", To: "private owner-occupiers"},
		pair{From: "Residing in public sector housing", To: "public owner-occupiers"},
		pair{From: "Sole tenants", To: "sole tenants"},
		pair{From: "Co-tenants", To: "co-tenants"},
		pair{From: "Accommodation provided by employers", To: "accommodation provided by employers"},
		pair{From: "Others", To: "others"},
	),
	Labels: normalizer.MustLabelRules("{metric} {sub} ({unit})", nil),
	Growth: []Growth{{Source: "households total ('000)", Target: HouseholdGrowthColumn}},
}

var populationGrowthDefinition = Definition{
	Info: crawler.Info{
		Topic: "Hong Kong Population Growth",
		Description: "Population growth of Hong Kong per half year: births, deaths, natural change, " +
			"net movement by inflow type and overall growth.",
		Tags:              []string{"Hong Kong", "population"},
		SourceDescription: sourceDescription("110-01003"),
	},
	Query: Query{
		ID:   "110-01003",
		Lang: "en",
		CV:   map[string][]string{"TYPE_INFLOW": {"one-way", "others"}},
		SV: map[string][]string{
			"BIRTHS_PRO": {"Raw_K_1dp_per_n"},
			"DEATHS_PRO": {"Raw_K_1dp_per_n"},
			"PG":         {"Raw_K_1dp_per_n"},
			"PGR":        {"Raw_1dp_%_n"},
			"NI":         {"Raw_K_1dp_per_n"},
			"NM":         {"Raw_K_1dp_per_n"},
		},
		Period: Period{Start: "196101"},
	},
	PeriodLayout: Monthly,
	Metrics: normalizer.MustMapping("sv",
		pair{From: "BIRTHS_PRO", To: "births"},
		pair{From: "DEATHS_PRO", To: "deaths"},
		pair{From: "PG", To: "population growth"},
		pair{From: "PGR", To: "population growth rate"},
		pair{From: "NI", To: "natural change"},
		pair{From: "NM", To: "net movement"},
	),
	Units: normalizer.MustMapping("svDesc",
		pair{From: "('000)", To: "'000"},
		pair{From: "(%)", To: "%"},
	),
	Dimension:      "TYPE_INFLOW",
	BlankDimension: "total",
	Dimensions: normalizer.MustMapping("TYPE_INFLOW",
		pair{From: "one-way", To: "one-way"},
		pair{From: "others", To: "others"},
		pair{From: "total", To: "total"},
	),
	Labels: normalizer.MustLabelRules("{metric} ({unit})", map[string]string{
		"net movement": "{metric} {sub} ({unit})",
	}),
}

// HouseholdCount crawls quarterly households by tenure with a growth column.
func HouseholdCount(f crawler.Fetcher, endpoint string) *Crawler {
	return New(householdCountDefinition, f, endpoint)
}

// PopulationGrowth crawls half-yearly population movement.
func PopulationGrowth(f crawler.Fetcher, endpoint string) *Crawler {
	return New(populationGrowthDefinition, f, endpoint)
}

// All returns every series in display order.
func All(f crawler.Fetcher, endpoint string) []crawler.Crawler {
	return []crawler.Crawler{
		HIBOR(f, endpoint),
		InterestRate(f, endpoint),
		ExchangeRate(f, endpoint),
		GDP(f, endpoint),
		ForeignInvestment(f, endpoint),
		HouseholdCount(f, endpoint),
		PopulationGrowth(f, endpoint),
	}
}

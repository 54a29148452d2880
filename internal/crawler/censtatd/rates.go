package censtatd

import (
	"bogoinsight/internal/crawler"
	"bogoinsight/internal/normalizer"
)

type pair = normalizer.Pair

var hiborDefinition = Definition{
	Info: crawler.Info{
		Topic: "HIBOR",
		Description: "Hong Kong Dollar Interest Settlement Rates (Hong Kong Interbank Offered Rate). " +
			"The base of type H mortgage rates and a closer indicator of funding cost than the best lending rate. " +
			"Monthly data since July 1996.",
		Tags:              []string{"Hong Kong", "interest rate"},
		SourceDescription: sourceDescription("340-45022"),
	},
	Query: Query{
		ID:     "340-45022",
		Lang:   "en",
		CV:     map[string][]string{"MATURITY": {"0N", "1W", "1M", "3M", "6M"}},
		SV:     map[string][]string{"SET_RATE": {"Rate_2dp_%_n"}},
		Period: Period{Start: "199607"},
	},
	PeriodLayout: Monthly,
	DropFreq:     "Y",
	Metrics:      normalizer.MustMapping("sv", pair{From: "SET_RATE", To: "HIBOR"}),
	Units: normalizer.MustMapping("svDesc",
		pair{From: "Rates at end of period(percent per annum)", To: "% p.a."},
	),
	Dimension: "MATURITY",
	Labels:    normalizer.MustLabelRules("{metric} {sub} ({unit})", nil),
}

var interestRateDefinition = Definition{
	Info: crawler.Info{
		Topic: "Hong Kong Interest Rate",
		Description: "Interest rates of Hong Kong: time deposit rates, savings deposit rates " +
			"and the best lending rate quoted by HSBC.",
		Tags:              []string{"Hong Kong", "interest rate"},
		SourceDescription: sourceDescription("340-45021"),
	},
	Query: Query{
		ID:   "340-45021",
		Lang: "en",
		CV:   map[string][]string{"DEP_P_T": {"1W", "1M", "3M", "6M", "12M"}},
		SV: map[string][]string{
			"BL_RATE":    {"Rate_2dp_%_n"},
			"S_DEP_RATE": {"Rate_2dp_%_n"},
			"T_DEP_RATE": {"Rate_2dp_%_n"},
		},
		Period: Period{Start: "196101"},
	},
	PeriodLayout: Monthly,
	DropFreq:     "Y",
	Metrics: normalizer.MustMapping("sv",
		pair{From: "BL_RATE", To: "best lending rate"},
		pair{From: "S_DEP_RATE", To: "savings deposit rate"},
		pair{From: "T_DEP_RATE", To: "time deposit rate"},
	),
	Units:     normalizer.MustMapping("svDesc", pair{From: "(Percent for annum)", To: "% p.a."}),
	Dimension: "DEP_P_T",
	Labels: normalizer.MustLabelRules("{metric} ({unit})", map[string]string{
		"time deposit rate": "{metric} {sub} ({unit})",
	}),
}

var exchangeRateDefinition = Definition{
	Info: crawler.Info{
		Topic:             "Hong Kong Exchange Rate",
		Description:       "Monthly exchange rates of RMB, USD, GBP, EUR and JPY to HKD since 1975.",
		Tags:              []string{"Hong Kong", "exchange rate"},
		SourceDescription: sourceDescription("340-46001"),
	},
	Query: Query{
		ID:   "340-46001",
		Lang: "en",
		CV:   map[string][]string{},
		SV: map[string][]string{
			"FC_JPY": {"Raw_4dp_hkd_d"},
			"FC_GBP": {"Raw_2dp_hkd_d"},
			"FC_USD": {"Raw_3dp_hkd_d"},
			"FC_CNY": {"Raw_4dp_hkd_d"},
			"FC_EUR": {"Raw_2dp_hkd_d"},
		},
		Period: Period{Start: "197501"},
	},
	PeriodLayout: Monthly,
	DropFreq:     "Y",
	Metrics: normalizer.MustMapping("sv",
		pair{From: "FC_JPY", To: "exchange rate JPY to HKD"},
		pair{From: "FC_CNY", To: "exchange rate CNY to HKD"},
		pair{From: "FC_USD", To: "exchange rate USD to HKD"},
		pair{From: "FC_GBP", To: "exchange rate GBP to HKD"},
		pair{From: "FC_EUR", To: "exchange rate EUR to HKD"},
	),
	Labels: normalizer.MustLabelRules("{metric}", nil),
}

// HIBOR crawls the interbank offered rates by maturity.
func HIBOR(f crawler.Fetcher, endpoint string) *Crawler {
	return New(hiborDefinition, f, endpoint)
}

// InterestRate crawls deposit and lending rates.
func InterestRate(f crawler.Fetcher, endpoint string) *Crawler {
	return New(interestRateDefinition, f, endpoint)
}

// ExchangeRate crawls monthly exchange rates to HKD.
func ExchangeRate(f crawler.Fetcher, endpoint string) *Crawler {
	return New(exchangeRateDefinition, f, endpoint)
}

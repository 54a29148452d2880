package rvd

import (
	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
)

// Derived column names.
const (
	RentalGrowthColumn  = "house rental growth all (% rate MoM)"
	TakeUpGrowthColumn  = "house take-up growth all (% rate YoY)"
	VacancyGrowthColumn = "house vacancy growth all (% rate YoY)"
)

var rentalIndexDefinition = Definition{
	Info: crawler.Info{
		Topic:             "Hong Kong House Rental Index",
		Description:       "Monthly private domestic rental index of Hong Kong by class since 1993.",
		Tags:              []string{"Hong Kong", "house rental"},
		SourceDescription: sourceDescription,
	},
	URL: RentalIndexURL,
	Layout: extract.Layout{
		Sheet:      "Monthly  按月",
		Columns:    []string{"B", "F", "I", "L", "O", "R", "U", "X", "AA", "AD"},
		SkipRows:   7,
		SkipFooter: 6,
		Names: []string{
			yearColumn,
			monthColumn,
			"house rental A, < 40m^2 (idx 1999=100)",
			"house rental B, 40~69 m^2 (idx 1999=100)",
			"house rental C, 70~99 m^2 (idx 1999=100)",
			"house rental D, 100~159 m^2 (idx 1999=100)",
			"house rental E, >= 160 m^2 (idx 1999=100)",
			"house rental ABC, < 100 m^2 (idx 1999=100)",
			"house rental DE, >= 100 m^2 (idx 1999=100)",
			"house rental all (idx 1999=100)",
		},
	},
	Monthly:      true,
	GrowthSource: "house rental all (idx 1999=100)",
	GrowthTarget: RentalGrowthColumn,
}

var takeUpDefinition = Definition{
	Info: crawler.Info{
		Topic:             "Hong Kong House Take-up",
		Description:       "Yearly take-up of private domestic units by class since 1990. Village houses are excluded since 2004.",
		Tags:              []string{"Hong Kong", "house take-up"},
		SourceDescription: sourceDescription,
	},
	URL: PrivateDomesticURL,
	Layout: extract.Layout{
		Sheet:      "Take-up_入住量",
		Columns:    []string{"C", "E", "I", "M"},
		SkipRows:   17,
		SkipFooter: 7,
		Names: []string{
			yearColumn,
			"house take-up < 100m^2 (num)",
			"house take-up >= 100m^2 (num)",
			"house take-up all (num)",
		},
	},
	GrowthSource: "house take-up all (num)",
	GrowthTarget: TakeUpGrowthColumn,
}

var vacancyDefinition = Definition{
	Info: crawler.Info{
		Topic:             "Hong Kong House Vacancy",
		Description:       "Yearly vacancy of private domestic units by class since 1982. Village houses are excluded since 2004.",
		Tags:              []string{"Hong Kong", "house vacancy"},
		SourceDescription: sourceDescription,
	},
	URL: PrivateDomesticURL,
	Layout: extract.Layout{
		Sheet:      "Vacancy_空置量",
		Columns:    []string{"C", "E:P"},
		SkipRows:   15,
		SkipFooter: 6,
		Names: []string{
			yearColumn,
			"house vacancy A, < 40m^2 (num)",
			"house vacancy A, < 40m^2 (%)",
			"house vacancy B, 40~69 m^2 (num)",
			"house vacancy B, 40~69 m^2 (%)",
			"house vacancy C, 70~99 m^2 (num)",
			"house vacancy C, 70~99 m^2 (%)",
			"house vacancy D, 100~159 m^2 (num)",
			"house vacancy D, 100~159 m^2 (%)",
			"house vacancy E, >= 160 m^2 (num)",
			"house vacancy E, >= 160 m^2 (%)",
			"house vacancy all (num)",
			"house vacancy all (%)",
		},
	},
	PercentScale: true,
	GrowthSource: "house vacancy all (num)",
	GrowthTarget: VacancyGrowthColumn,
}

// RentalIndex crawls the monthly rental index.
func RentalIndex(f crawler.Fetcher, url string) *Crawler {
	return New(rentalIndexDefinition, f, url)
}

// TakeUp crawls yearly take-up.
func TakeUp(f crawler.Fetcher, url string) *Crawler {
	return New(takeUpDefinition, f, url)
}

// Vacancy crawls yearly vacancy.
func Vacancy(f crawler.Fetcher, url string) *Crawler {
	return New(vacancyDefinition, f, url)
}

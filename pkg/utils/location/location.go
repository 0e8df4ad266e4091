// Package location groups listing locations into a country, city and area
// tree for the search filters.
package location

import (
	"sort"
	"strings"
)

// Row is one (country, city, area) combination with its listing count.
type Row struct {
	Country string
	City    string
	Area    string
	Count   int64
}

type Country struct {
	Name   string `json:"name"`
	Count  int64  `json:"count"`
	Cities []City `json:"cities,omitempty"`
}

type City struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Count   int64  `json:"count"`
	Areas   []Area `json:"areas,omitempty"`
}

type Area struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Build folds rows into a tree ordered by listing count, then name.
func Build(rows []Row) []Country {
	countries := map[string]*Country{}
	cities := map[[2]string]*City{}

	for _, r := range rows {
		co := countries[r.Country]
		if co == nil {
			co = &Country{Name: r.Country}
			countries[r.Country] = co
		}
		co.Count += r.Count

		key := [2]string{r.Country, r.City}
		ci := cities[key]
		if ci == nil {
			ci = &City{Name: r.City, Country: r.Country}
			cities[key] = ci
		}
		ci.Count += r.Count
		if r.Area != "" {
			ci.Areas = append(ci.Areas, Area{Name: r.Area, Count: r.Count})
		}
	}

	for key, ci := range cities {
		sort.Slice(ci.Areas, func(i, j int) bool {
			return less(ci.Areas[i].Count, ci.Areas[j].Count, ci.Areas[i].Name, ci.Areas[j].Name)
		})
		co := countries[key[0]]
		co.Cities = append(co.Cities, *ci)
	}

	out := make([]Country, 0, len(countries))
	for _, co := range countries {
		sort.Slice(co.Cities, func(i, j int) bool {
			return less(co.Cities[i].Count, co.Cities[j].Count, co.Cities[i].Name, co.Cities[j].Name)
		})
		out = append(out, *co)
	}
	sort.Slice(out, func(i, j int) bool {
		return less(out[i].Count, out[j].Count, out[i].Name, out[j].Name)
	})
	return out
}

func less(ci, cj int64, ni, nj string) bool {
	if ci != cj {
		return ci > cj
	}
	return ni < nj
}

// Countries drops the nested cities.
func Countries(tree []Country) []Country {
	out := make([]Country, len(tree))
	for i, co := range tree {
		out[i] = Country{Name: co.Name, Count: co.Count}
	}
	return out
}

// CitiesOf returns the cities of a country, matched case-insensitively.
func CitiesOf(tree []Country, country string) []City {
	for _, co := range tree {
		if strings.EqualFold(co.Name, country) {
			out := make([]City, len(co.Cities))
			for i, ci := range co.Cities {
				out[i] = City{Name: ci.Name, Country: ci.Country, Count: ci.Count}
			}
			return out
		}
	}
	return []City{}
}

// AreasOf returns the areas of every city with that name.
func AreasOf(tree []Country, city string) []Area {
	merged := map[string]int64{}
	for _, co := range tree {
		for _, ci := range co.Cities {
			if strings.EqualFold(ci.Name, city) {
				for _, a := range ci.Areas {
					merged[a.Name] += a.Count
				}
			}
		}
	}
	out := make([]Area, 0, len(merged))
	for name, n := range merged {
		out = append(out, Area{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Count, out[j].Count, out[i].Name, out[j].Name) })
	return out
}

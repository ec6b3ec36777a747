package catalog

import "strings"

// Business describes the shop the assistant answers for.
type Business struct {
	Name      string
	Location  string
	Phone     string
	Email     string
	Instagram string
}

// ServiceCategory groups related services for the system prompt.
type ServiceCategory struct {
	Category string
	Items    []string
}

// JDFMarine is the default business profile.
var JDFMarine = Business{
	Name:      "J.D.F. Performance Marine",
	Location:  "New Windsor, NY on the Hudson River",
	Phone:     "845-787-4241",
	Email:     "JDFperformancemarine@gmail.com",
	Instagram: "@jdf_marine",
}

// PopularServices are the highlights shown first.
var PopularServices = []string{
	"Custom Rigging",
	"Race Engine Building",
	"Outdrive Rebuilds",
	"Mercury / MerCruiser Diagnostics",
	"Winterizing & Shrinkwrap",
	"Water Testing",
}

// Services is the full catalog grouped by category.
var Services = []ServiceCategory{
	{
		Category: "Performance & Racing",
		Items: []string{
			"High-Performance / Race Engine Building or Upgrades",
			"High-Performance Boat Setup and Dialing In",
			"Custom Rigging",
			"EFI Conversions",
		},
	},
	{
		Category: "Engine & Drive Services",
		Items: []string{
			"Repowers",
			"Outdrive Rebuilds or Upgrades",
			"Engine and Drive Oil Changes",
			"Tune Ups",
		},
	},
	{
		Category: "Diagnostics & Repairs",
		Items: []string{
			"Mercury / MerCruiser Diagnostics",
			"Yamaha and Kawasaki Jetski 2 stroke / 4 stroke service, repair, and upgrades",
			"Maintenance and Repairs (Impellers, Bellos, Transom Assemblies, Engine Alignments, etc.)",
		},
	},
	{
		Category: "Boat & PWC Care",
		Items: []string{
			"Hull, Interior and Electronic Upgrades",
			"Winterizing and Shrinkwrap (Boat and PWC)",
			"Water Testing",
			"Boat / PWC Transportation",
		},
	},
	{
		Category: "Specialty Services",
		Items:    []string{"Dockside Service"},
	},
}

// ServiceList renders every catalog item as a flat bullet list for prompts.
func ServiceList() string {
	var b strings.Builder
	for _, cat := range Services {
		for _, item := range cat.Items {
			b.WriteString("- ")
			b.WriteString(item)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
